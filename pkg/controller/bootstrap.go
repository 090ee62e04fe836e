package controller

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/imbecility/savetube/pkg/backend"
	"github.com/imbecility/savetube/pkg/client"
	"github.com/imbecility/savetube/pkg/config"
	"github.com/imbecility/savetube/pkg/notify"
	"github.com/imbecility/savetube/pkg/saver"
)

// New creates a Controller bound to view with all dependencies built from cfg.
// The logger is expected to be set up already. New never touches view; call
// Init once the view can render.
func New(cfg config.Config, view View) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Create the directory
	absOutDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("invalid output dir: %w", err)
	}
	if err := os.MkdirAll(absOutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	// Initialize the HTTP client
	httpClient, err := client.NewHttpClient(cfg.TimeoutSec)
	if err != nil {
		return nil, fmt.Errorf("failed to init http client: %w", err)
	}

	api := backend.New(cfg.APIBase, httpClient)

	fileSaver := &saver.FileSaver{
		Client:    httpClient,
		OutputDir: absOutDir,
		OnProgress: func(written, total int64) {
			slog.Debug("Saving file", "written", written, "total", total)
		},
	}

	opts := DefaultOptions()
	opts.RealProgress = cfg.RealProgress

	slog.Debug("Controller ready", "api", api.BaseURL, "out", absOutDir, "real_progress", cfg.RealProgress)

	return NewController(api, view, fileSaver, notify.New(cfg.DesktopNotify, cfg.NotifyTTL), opts), nil
}
