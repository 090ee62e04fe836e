package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/imbecility/savetube/pkg/config"
	"github.com/imbecility/savetube/pkg/controller"
	"github.com/imbecility/savetube/pkg/logger"
	"github.com/imbecility/savetube/pkg/ui/console"
	"github.com/imbecility/savetube/pkg/ui/tui"
)

func main() {
	cfg := config.Default()

	envFile := envFileArg(os.Args[1:])
	if err := config.LoadEnv(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", envFile, err)
		os.Exit(1)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("savetube", flag.ExitOnError)
	fs.String("env", envFile, "Env file with SAVETUBE_* settings")
	config.BindFlags(fs, &cfg)
	_ = fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Interactive() {
		os.Exit(runInteractive(ctx, cfg))
	}
	os.Exit(runOnce(ctx, cfg))
}

func runInteractive(ctx context.Context, cfg config.Config) int {
	// the TUI owns the terminal, logs go to a file
	var logOut io.Writer = io.Discard
	logFile, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	} else {
		defer logFile.Close()
		logOut = logFile
	}
	logger.SetupGlobal(cfg.Debug, cfg.Debug, logOut)

	app := tui.New(cfg.NotifyTTL)
	ctrl, err := controller.New(cfg, app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Initialization failed: %v\n", err)
		return 1
	}

	slog.Info("Starting interactive UI", "api", cfg.APIBase)
	if err := app.Run(ctx, ctrl); err != nil {
		slog.Error("UI crashed", "err", err)
		return 1
	}
	return 0
}

func runOnce(ctx context.Context, cfg config.Config) int {
	logger.SetupGlobal(cfg.Debug, cfg.Debug, nil)

	ctrl, err := controller.New(cfg, console.New(nil))
	if err != nil {
		slog.Error("Initialization failed", "err", err)
		return 1
	}
	ctrl.Init()

	slog.Debug("Processing via CLI", "url", cfg.URL, "action", cfg.Action)
	if err := console.Run(ctx, ctrl, cfg); err != nil {
		slog.Debug("Action failed", "err", err)
		return 1
	}
	return 0
}

// envFileArg finds -env before the flag set exists so the file can seed the
// flag defaults.
func envFileArg(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "env" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ".env"
}
