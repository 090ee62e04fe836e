package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imbecility/savetube/pkg/backend"
	"github.com/imbecility/savetube/pkg/models"
	"github.com/imbecility/savetube/pkg/notify"
	"github.com/imbecility/savetube/pkg/progress"
	"github.com/imbecility/savetube/pkg/saver"
	"github.com/imbecility/savetube/pkg/utils"
)

var (
	ErrEmptyURL         = errors.New("empty url")
	ErrInvalidURL       = errors.New("unsupported url")
	ErrNoPlaylist       = errors.New("no playlist fetched")
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrBusy means the same control already has a request in flight.
	ErrBusy = errors.New("operation already in progress")
)

var userMessages = []struct {
	err error
	msg string
}{
	{ErrEmptyURL, "Please enter a YouTube URL"},
	{ErrInvalidURL, "Please enter a valid YouTube URL"},
	{ErrNoPlaylist, "Please fetch playlist info first"},
}

// Message converts an operation error into notification text.
func Message(err error) string {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}

const (
	desktopTitleSingle   = "SaveTube - Download Complete"
	desktopTitlePlaylist = "SaveTube - Playlist Download Complete"
)

type Options struct {
	// HideDelay and PlaylistHideDelay keep a finished progress bar on screen.
	HideDelay         time.Duration
	PlaylistHideDelay time.Duration
	// Tick and Step drive the simulated progress of single downloads.
	Tick time.Duration
	Step float64
	// PlaylistTick and PlaylistStep drive playlist progress.
	PlaylistTick time.Duration
	PlaylistStep float64
	// RealProgress polls the backend progress endpoint during single downloads.
	RealProgress bool
}

func DefaultOptions() Options {
	return Options{
		HideDelay:         2 * time.Second,
		PlaylistHideDelay: 3 * time.Second,
		Tick:              500 * time.Millisecond,
		Step:              15,
		PlaylistTick:      time.Second,
		PlaylistStep:      5,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.HideDelay <= 0 {
		o.HideDelay = def.HideDelay
	}
	if o.PlaylistHideDelay <= 0 {
		o.PlaylistHideDelay = def.PlaylistHideDelay
	}
	if o.Tick <= 0 {
		o.Tick = def.Tick
	}
	if o.Step <= 0 {
		o.Step = def.Step
	}
	if o.PlaylistTick <= 0 {
		o.PlaylistTick = def.PlaylistTick
	}
	if o.PlaylistStep <= 0 {
		o.PlaylistStep = def.PlaylistStep
	}
	return o
}

// Selection is what the download form holds.
type Selection struct {
	Format  string
	Quality string
	// Type is only read by playlist downloads; single downloads take the kind argument.
	Type models.MediaType
}

type Controller struct {
	Backend  backend.Backend
	View     View
	Saver    saver.Saver
	Notifier notify.Notifier
	Options  Options
	State    *State

	newID func() string
}

// NewController wires a controller. Zero fields in opts take their
// DefaultOptions values.
func NewController(b backend.Backend, v View, s saver.Saver, n notify.Notifier, opts Options) *Controller {
	if n == nil {
		n = notify.Nop{}
	}
	opts = opts.withDefaults()
	return &Controller{
		Backend:  b,
		View:     v,
		Saver:    s,
		Notifier: n,
		Options:  opts,
		State:    NewState(),
		newID:    uuid.NewString,
	}
}

// Init pushes the initial counters to the view. It blocks as long as the
// view's update methods do.
func (c *Controller) Init() {
	success, fail := c.State.Counters()
	c.View.ShowStats(success, fail)
}

// FetchVideoInfo loads metadata for url and renders it. Playlist URLs chain
// into exactly one playlist-info call.
func (c *Controller) FetchVideoInfo(ctx context.Context, rawURL string) error {
	url, err := c.validateURL(rawURL)
	if err != nil {
		return err
	}
	if !c.begin(ActionFetch) {
		return ErrBusy
	}
	defer c.end(ActionFetch)

	slog.Info("Fetching video info", "url", url)

	info, err := c.Backend.VideoInfo(ctx, url)
	if err != nil {
		return c.fetchFailed(url, err)
	}
	c.State.setVideo(info)

	if info.IsPlaylist {
		if err := c.loadPlaylist(ctx, url); err != nil {
			return c.fetchFailed(url, err)
		}
	} else {
		c.State.setPlaylist("", nil)
		c.View.ShowVideoInfo(info)
		c.View.HidePlaylist()
	}

	c.View.Notify(LevelSuccess, "Video info loaded successfully!")
	return nil
}

// FetchPlaylistInfo loads and renders playlist metadata on its own.
func (c *Controller) FetchPlaylistInfo(ctx context.Context, rawURL string) error {
	url, err := c.validateURL(rawURL)
	if err != nil {
		return err
	}
	if !c.begin(ActionFetch) {
		return ErrBusy
	}
	defer c.end(ActionFetch)

	if err := c.loadPlaylist(ctx, url); err != nil {
		c.State.setPlaylist("", nil)
		slog.Error("Playlist info failed", "url", url, "err", err)
		c.View.Notify(LevelError, Message(err))
		return err
	}
	return nil
}

func (c *Controller) loadPlaylist(ctx context.Context, url string) error {
	info, err := c.Backend.PlaylistInfo(ctx, url)
	if err != nil {
		return err
	}
	c.State.setPlaylist(url, info)
	c.View.ShowPlaylistInfo(info)

	// the first video stands in for the playlist in the preview
	if video := c.State.Video(); video != nil {
		c.View.ShowVideoInfo(video)
	}
	slog.Info("Playlist loaded", "title", info.Title, "videos", info.VideoCount)
	return nil
}

func (c *Controller) fetchFailed(url string, err error) error {
	// the hidden playlist section must not stay downloadable
	c.State.setPlaylist("", nil)
	slog.Error("Video info failed", "url", url, "err", err)
	c.View.Notify(LevelError, Message(err))
	c.View.HideResults()
	return err
}

// DownloadMedia asks the backend for one video or audio file and saves it.
func (c *Controller) DownloadMedia(ctx context.Context, rawURL string, kind models.MediaType, sel Selection) error {
	url, err := c.validateURL(rawURL)
	if err != nil {
		return err
	}
	req, err := c.buildRequest(url, kind, sel)
	if err != nil {
		c.View.Notify(LevelError, Message(err))
		return err
	}
	req.DownloadID = c.newID()

	action := actionFor(kind)
	if !c.begin(action) {
		return ErrBusy
	}
	defer c.end(action)

	slog.Info("Starting download", "url", url, "type", kind, "format", req.Format, "quality", req.Quality, "id", req.DownloadID)

	gen := c.showProgress(
		fmt.Sprintf("Downloading %s...", kind),
		fmt.Sprintf("Preparing %s download in %s format", kind, strings.ToUpper(req.Format)),
	)
	stop := progress.Start(ctx, c.singleSource(req.DownloadID), func(p float64) {
		c.View.UpdateProgress(p, "")
	})

	res, err := c.Backend.Download(ctx, req)
	stop()

	if err != nil {
		slog.Error("Download failed", "url", url, "err", err)
		c.View.Notify(LevelError, Message(err))
		c.View.HideProgress()
		c.View.ShowStats(c.State.addFail(1))
		return err
	}

	c.View.UpdateProgress(100, "Download complete!")
	c.View.Notify(LevelSuccess, fmt.Sprintf("%s downloaded successfully! Starting file download...", kind.Label()))
	c.desktop(desktopTitleSingle, fmt.Sprintf("%s has been downloaded successfully!", res.Title))
	c.View.ShowStats(c.State.addSuccess(1))
	c.hideProgressAfter(gen, c.Options.HideDelay)

	c.saveFile(ctx, res)
	return nil
}

// DownloadPlaylist downloads the whole playlist fetched earlier in one request.
func (c *Controller) DownloadPlaylist(ctx context.Context, rawURL string, sel Selection) error {
	url, err := c.validateURL(rawURL)
	if err != nil {
		return err
	}
	playlist := c.State.PlaylistFor(url)
	if playlist == nil {
		c.View.Notify(LevelError, Message(ErrNoPlaylist))
		return ErrNoPlaylist
	}

	kind := sel.Type
	if kind == "" {
		kind = models.MediaVideo
	}
	req, err := c.buildRequest(url, kind, sel)
	if err != nil {
		c.View.Notify(LevelError, Message(err))
		return err
	}

	if !c.begin(ActionDownloadPlaylist) {
		return ErrBusy
	}
	defer c.end(ActionDownloadPlaylist)

	slog.Info("Starting playlist download", "url", url, "videos", playlist.VideoCount, "type", kind, "format", req.Format)

	gen := c.showProgress("Downloading playlist...", fmt.Sprintf("Preparing to download %d videos", playlist.VideoCount))
	src := progress.NewSimulated(c.Options.PlaylistTick, c.Options.PlaylistStep)
	stop := progress.Start(ctx, src, func(p float64) {
		c.View.UpdateProgress(p, fmt.Sprintf("Downloading videos... (%d%%)", int(p)))
	})

	res, err := c.Backend.DownloadPlaylist(ctx, req)
	stop()

	if err != nil {
		slog.Error("Playlist download failed", "url", url, "err", err)
		c.View.Notify(LevelError, Message(err))
		c.View.HideProgress()
		c.View.ShowStats(c.State.addFail(1))
		return err
	}

	c.View.UpdateProgress(100, "Playlist download complete!")
	c.View.Notify(LevelSuccess, fmt.Sprintf("Successfully downloaded %d videos from \"%s\"! Files saved in: %s",
		res.VideoCount, res.PlaylistTitle, res.DownloadPathName))
	c.desktop(desktopTitlePlaylist, fmt.Sprintf("Successfully downloaded %d videos from \"%s\"!", res.VideoCount, res.PlaylistTitle))

	c.State.addSuccess(res.SuccessfulCount)
	c.View.ShowStats(c.State.addFail(res.FailedCount))
	c.hideProgressAfter(gen, c.Options.PlaylistHideDelay)

	slog.Info("Playlist download finished", "title", res.PlaylistTitle, "ok", res.SuccessfulCount, "failed", res.FailedCount)
	return nil
}

func (c *Controller) validateURL(rawURL string) (string, error) {
	url := strings.TrimSpace(rawURL)
	var err error
	switch {
	case url == "":
		err = ErrEmptyURL
	case !utils.IsSupportedURL(url):
		err = ErrInvalidURL
	}
	if err != nil {
		c.View.Notify(LevelError, Message(err))
		return "", err
	}
	return url, nil
}

func (c *Controller) buildRequest(url string, kind models.MediaType, sel Selection) (models.DownloadRequest, error) {
	if !kind.Valid() {
		return models.DownloadRequest{}, fmt.Errorf("%w: unknown media type %q", ErrInvalidSelection, kind)
	}

	format := strings.ToLower(strings.TrimSpace(sel.Format))
	if format == "" {
		format = models.FormatsFor(kind)[0]
	}
	if !slices.Contains(models.FormatsFor(kind), format) {
		return models.DownloadRequest{}, fmt.Errorf("%w: %s format %q is not supported", ErrInvalidSelection, kind, format)
	}

	quality := models.QualityBest
	if kind == models.MediaVideo && sel.Quality != "" {
		quality = strings.ToLower(strings.TrimSpace(sel.Quality))
		if !slices.Contains(models.VideoQualities, quality) {
			return models.DownloadRequest{}, fmt.Errorf("%w: quality %q is not supported", ErrInvalidSelection, quality)
		}
	}

	return models.DownloadRequest{URL: url, Type: kind, Format: format, Quality: quality}, nil
}

func (c *Controller) singleSource(downloadID string) progress.Source {
	sim := progress.NewSimulated(c.Options.Tick, c.Options.Step)
	if c.Options.RealProgress {
		return &progress.Polled{Poller: c.Backend, DownloadID: downloadID, Fallback: sim}
	}
	return sim
}

func (c *Controller) showProgress(title, status string) uint64 {
	gen := c.State.nextProgress()
	c.View.ShowProgress(title, status)
	return gen
}

func (c *Controller) hideProgressAfter(gen uint64, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if c.State.currentProgress() == gen {
			c.View.HideProgress()
		}
	})
}

func (c *Controller) saveFile(ctx context.Context, res *models.DownloadResult) {
	if c.Saver == nil {
		return
	}
	link := c.Backend.FileLink(res)
	if link.URL == "" {
		slog.Warn("Backend returned no file path", "title", res.Title)
		c.View.Notify(LevelWarning, fmt.Sprintf("%s was downloaded on the server but no file link was returned", res.Title))
		return
	}
	path, err := c.Saver.Save(ctx, link)
	if err != nil {
		slog.Error("Saving file failed", "url", link.URL, "err", err)
		c.View.Notify(LevelError, fmt.Sprintf("Could not save %s: %v", link.Filename, err))
		return
	}
	slog.Info("Download saved", "path", path)
}

func (c *Controller) desktop(title, body string) {
	if err := c.Notifier.Notify(title, body); err != nil {
		slog.Debug("Desktop notification failed", "err", err)
	}
}

func (c *Controller) begin(action Action) bool {
	if !c.State.begin(action) {
		slog.Debug("Control busy", "action", action)
		return false
	}
	c.View.SetBusy(action, true)
	return true
}

func (c *Controller) end(action Action) {
	c.State.end(action)
	c.View.SetBusy(action, false)
}
