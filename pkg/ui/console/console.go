// Package console prints controller output line by line for one-shot use.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-colorable"
	"github.com/schollz/progressbar/v3"

	"github.com/imbecility/savetube/pkg/config"
	"github.com/imbecility/savetube/pkg/controller"
	"github.com/imbecility/savetube/pkg/models"
	"github.com/imbecility/savetube/pkg/utils"
)

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

var levelStyles = map[controller.Level]struct {
	color string
	mark  string
}{
	controller.LevelInfo:    {colorCyan, "i"},
	controller.LevelSuccess: {colorGreen, "✔"},
	controller.LevelWarning: {colorYellow, "!"},
	controller.LevelError:   {colorRed, "✘"},
}

type View struct {
	out io.Writer

	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	status string
}

var _ controller.View = (*View)(nil)

// New returns a view writing to out; nil means colored stdout.
func New(out io.Writer) *View {
	if out == nil {
		out = colorable.NewColorableStdout()
	}
	return &View{out: out}
}

func (v *View) ShowVideoInfo(info *models.VideoInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearBar()

	fmt.Fprintf(v.out, "%s%s%s\n", colorBold, info.Title, colorReset)
	if info.Uploader != "" {
		fmt.Fprintf(v.out, "  %suploader%s  %s\n", colorGray, colorReset, info.Uploader)
	}
	if info.IsPlaylist {
		fmt.Fprintf(v.out, "  %splaylist%s  %d videos\n", colorGray, colorReset, info.VideoCount)
	} else {
		fmt.Fprintf(v.out, "  %sduration%s  %s\n", colorGray, colorReset, utils.FormatDuration(info.Duration))
		fmt.Fprintf(v.out, "  %sviews%s     %s\n", colorGray, colorReset, utils.FormatViews(info.ViewCount))
	}
	if info.Thumbnail != "" {
		fmt.Fprintf(v.out, "  %sthumb%s     %s\n", colorGray, colorReset, info.Thumbnail)
	}
	video, audio := info.FormatLabels()
	if len(video) > 0 {
		fmt.Fprintf(v.out, "  %svideo%s     %s\n", colorGray, colorReset, strings.Join(video, ", "))
	}
	if len(audio) > 0 {
		fmt.Fprintf(v.out, "  %saudio%s     %s\n", colorGray, colorReset, strings.Join(audio, ", "))
	}
}

func (v *View) ShowPlaylistInfo(info *models.PlaylistInfo) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearBar()

	fmt.Fprintf(v.out, "%s%d videos in \"%s\"%s\n", colorBold, info.VideoCount, info.Title, colorReset)
	for i, entry := range info.Videos {
		fmt.Fprintf(v.out, "  %s%2d.%s %s\n", colorGray, i+1, colorReset, entry.Title)
	}
}

func (v *View) HidePlaylist() {}

func (v *View) HideResults() {}

func (v *View) Notify(level controller.Level, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearBar()

	style, ok := levelStyles[level]
	if !ok {
		style = levelStyles[controller.LevelInfo]
	}
	fmt.Fprintf(v.out, "%s%s %s%s\n", style.color, style.mark, message, colorReset)
}

func (v *View) ShowProgress(title, status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearBar()

	fmt.Fprintf(v.out, "%s%s%s\n", colorBold, title, colorReset)
	v.status = status
	v.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(v.out),
		progressbar.OptionSetDescription(status),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (v *View) UpdateProgress(percent float64, status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bar == nil {
		return
	}
	if status != "" && status != v.status {
		v.status = status
		v.bar.Describe(status)
	}
	_ = v.bar.Set(int(percent))
}

func (v *View) HideProgress() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bar == nil {
		return
	}
	_ = v.bar.Finish()
	fmt.Fprintln(v.out)
	v.bar = nil
}

// SetBusy is a no-op: the console runs one action at a time.
func (v *View) SetBusy(controller.Action, bool) {}

func (v *View) ShowStats(success, fail int) {
	if success == 0 && fail == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearBar()
	fmt.Fprintf(v.out, "%sdownloads:%s %s%d ok%s, %s%d failed%s\n",
		colorGray, colorReset, colorGreen, success, colorReset, colorRed, fail, colorReset)
}

// clearBar moves the bar out of the way before printing a line.
func (v *View) clearBar() {
	if v.bar != nil {
		_ = v.bar.Clear()
	}
}

// Run performs the action selected in cfg against ctrl.
func Run(ctx context.Context, ctrl *controller.Controller, cfg config.Config) error {
	sel := controller.Selection{
		Format:  cfg.Format,
		Quality: cfg.Quality,
		Type:    models.MediaType(cfg.MediaType),
	}

	switch cfg.Action {
	case config.ActionInfo:
		return ctrl.FetchVideoInfo(ctx, cfg.URL)
	case config.ActionVideo:
		return ctrl.DownloadMedia(ctx, cfg.URL, models.MediaVideo, sel)
	case config.ActionAudio:
		return ctrl.DownloadMedia(ctx, cfg.URL, models.MediaAudio, sel)
	case config.ActionPlaylist:
		if err := ctrl.FetchPlaylistInfo(ctx, cfg.URL); err != nil {
			return err
		}
		return ctrl.DownloadPlaylist(ctx, cfg.URL, sel)
	}
	return fmt.Errorf("unknown action %q", cfg.Action)
}
