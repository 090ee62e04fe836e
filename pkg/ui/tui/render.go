package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/rivo/tview"

	"github.com/imbecility/savetube/pkg/controller"
	"github.com/imbecility/savetube/pkg/models"
	"github.com/imbecility/savetube/pkg/utils"
)

const barWidth = 40

// progressBar draws a fixed-width bar followed by the rounded percentage.
func progressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(math.Round(percent / 100 * float64(width)))
	return fmt.Sprintf("[green]%s[gray]%s[-] %3d%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", width-filled),
		int(math.Round(percent)))
}

func previewText(info *models.VideoInfo, rawURL string) string {
	if info == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[::b]%s[::-]\n", tview.Escape(info.Title))
	if info.Uploader != "" {
		fmt.Fprintf(&b, "[gray]by[-] %s\n", tview.Escape(info.Uploader))
	}
	if info.IsPlaylist {
		fmt.Fprintf(&b, "[yellow]Playlist[-] · %d videos\n", info.VideoCount)
	} else {
		fmt.Fprintf(&b, "%s · [black:white] %s [-:-]\n", utils.FormatViews(info.ViewCount), utils.FormatDuration(info.Duration))
	}
	if id := utils.VideoID(strings.TrimSpace(rawURL)); id != "" {
		fmt.Fprintf(&b, "[gray]ID:[-] %s\n", id)
	}
	if info.Thumbnail != "" {
		fmt.Fprintf(&b, "[gray]Thumbnail:[-] %s\n", tview.Escape(info.Thumbnail))
	}
	video, audio := info.FormatLabels()
	if len(video) > 0 {
		fmt.Fprintf(&b, "[gray]Video formats:[-] %s\n", strings.Join(video, ", "))
	}
	if len(audio) > 0 {
		fmt.Fprintf(&b, "[gray]Audio formats:[-] %s\n", strings.Join(audio, ", "))
	}
	return b.String()
}

func playlistSummary(info *models.PlaylistInfo) string {
	if info == nil {
		return ""
	}
	return fmt.Sprintf("%d videos in \"%s\"", info.VideoCount, tview.Escape(info.Title))
}

func playlistEntries(info *models.PlaylistInfo) string {
	if info == nil {
		return ""
	}
	var b strings.Builder
	for i, v := range info.Videos {
		fmt.Fprintf(&b, "[gray]%2d.[-] %s\n", i+1, tview.Escape(v.Title))
	}
	return b.String()
}

func statsText(success, fail int) string {
	return fmt.Sprintf("[green]✔ %d[-]  [red]✘ %d[-]", success, fail)
}

var levelColors = map[controller.Level]string{
	controller.LevelInfo:    "aqua",
	controller.LevelSuccess: "green",
	controller.LevelWarning: "yellow",
	controller.LevelError:   "red",
}

func noticeText(level controller.Level, msg string) string {
	color, ok := levelColors[level]
	if !ok {
		color = "white"
	}
	return fmt.Sprintf("[%s]%s[-]  [gray](Esc to dismiss)[-]", color, tview.Escape(msg))
}

// upper returns the catalog labels the dropdowns display.
func upper(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(v)
	}
	return out
}

func qualityLabels() []string {
	out := make([]string, len(models.VideoQualities))
	for i, q := range models.VideoQualities {
		if q == models.QualityBest {
			out[i] = "Best"
			continue
		}
		out[i] = q + "p"
	}
	return out
}
