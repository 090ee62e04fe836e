package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xhit/go-str2duration/v2"

	"github.com/imbecility/savetube/pkg/backend"
	"github.com/imbecility/savetube/pkg/models"
)

// Actions accepted by the one-shot console mode.
const (
	ActionInfo     = "info"
	ActionVideo    = "video"
	ActionAudio    = "audio"
	ActionPlaylist = "playlist"
)

// Config represents the client configuration.
type Config struct {
	// APIBase is the backend base URL (defaults to http://localhost:5000).
	APIBase string
	// OutputDir is where saved files land (defaults to ./downloads).
	OutputDir string
	// TimeoutSec bounds one backend exchange in seconds (defaults to 600).
	TimeoutSec int
	// Debug enables verbose logging.
	Debug bool
	// LogFile receives logs while the TUI owns the terminal.
	LogFile string
	// DesktopNotify enables system notifications on finished downloads.
	DesktopNotify bool
	// RealProgress polls the backend progress endpoint instead of only estimating.
	RealProgress bool
	// NotifyTTL is how long an in-app notification stays visible.
	NotifyTTL time.Duration

	// URL switches to one-shot console mode.
	URL string
	// Action is one of info, video, audio, playlist.
	Action string
	// Format and Quality select the output; empty means the first catalog entry and best.
	Format  string
	Quality string
	// MediaType is video or audio for playlist downloads.
	MediaType string
}

func Default() Config {
	return Config{
		APIBase:   backend.DefaultBaseURL,
		OutputDir: "./downloads",
		// long playlists keep the request open for the whole download
		TimeoutSec: 600,
		LogFile:    "storage/logs/savetube.log",
		NotifyTTL:  5 * time.Second,
		Action:     ActionInfo,
		Quality:    models.QualityBest,
		MediaType:  string(models.MediaVideo),
	}
}

// LoadEnv loads .env style files into the process environment. Missing files
// are skipped; variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			slog.Debug("Env file not found", "file", f)
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with SAVETUBE_* variables.
func ApplyEnv(cfg *Config) error {
	var errs []error

	if v := os.Getenv("SAVETUBE_API"); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv("SAVETUBE_OUT"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("SAVETUBE_LOG"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("SAVETUBE_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SAVETUBE_TIMEOUT: %w", err))
		} else {
			cfg.TimeoutSec = n
		}
	}
	if v := os.Getenv("SAVETUBE_NOTIFY_TTL"); v != "" {
		d, err := str2duration.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SAVETUBE_NOTIFY_TTL: %w", err))
		} else {
			cfg.NotifyTTL = d
		}
	}
	for name, dst := range map[string]*bool{
		"SAVETUBE_DEBUG":          &cfg.Debug,
		"SAVETUBE_DESKTOP_NOTIFY": &cfg.DesktopNotify,
		"SAVETUBE_REAL_PROGRESS":  &cfg.RealProgress,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		*dst = b
	}

	return errors.Join(errs...)
}

// BindFlags registers every option on fs with the current cfg values as defaults.
func BindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.APIBase, "api", cfg.APIBase, "Backend base URL")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for saved files")
	fs.IntVar(&cfg.TimeoutSec, "timeout", cfg.TimeoutSec, "Max seconds per backend request")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Log file used by the interactive UI")
	fs.BoolVar(&cfg.DesktopNotify, "desktop-notify", cfg.DesktopNotify, "Show desktop notifications")
	fs.BoolVar(&cfg.RealProgress, "real-progress", cfg.RealProgress, "Poll backend progress instead of estimating")
	fs.Var((*durationValue)(&cfg.NotifyTTL), "notify-ttl", "How long notifications stay visible (e.g. 5s, 1m)")

	fs.StringVar(&cfg.URL, "url", cfg.URL, "YouTube URL (runs once without the interactive UI)")
	fs.StringVar(&cfg.Action, "get", cfg.Action, "One-shot action: info, video, audio, playlist")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Output format (mp4, webm, mp3, ...)")
	fs.StringVar(&cfg.Quality, "quality", cfg.Quality, "Video quality: best, 2160, 1440, 1080, 720, 480, 360")
	fs.StringVar(&cfg.MediaType, "type", cfg.MediaType, "Playlist media type: video or audio")
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.APIBase)
	}
	if c.TimeoutSec <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.TimeoutSec)
	}
	if c.NotifyTTL <= 0 {
		return fmt.Errorf("notify-ttl must be positive, got %s", c.NotifyTTL)
	}
	if c.OutputDir == "" {
		return errors.New("output dir must not be empty")
	}

	switch c.Action {
	case ActionInfo, ActionVideo, ActionAudio, ActionPlaylist:
	default:
		return fmt.Errorf("unknown action %q", c.Action)
	}
	if !models.MediaType(c.MediaType).Valid() {
		return fmt.Errorf("unknown media type %q", c.MediaType)
	}
	return nil
}

// Interactive reports whether the TUI should run.
func (c *Config) Interactive() bool {
	return strings.TrimSpace(c.URL) == ""
}

type durationValue time.Duration

func (d *durationValue) String() string {
	return time.Duration(*d).String()
}

func (d *durationValue) Set(s string) error {
	v, err := str2duration.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = durationValue(v)
	return nil
}
