// Package tui is the interactive terminal front end.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/imbecility/savetube/pkg/controller"
	"github.com/imbecility/savetube/pkg/models"
)

var buttonLabels = map[controller.Action][2]string{
	controller.ActionFetch:            {"Fetch", "Fetching..."},
	controller.ActionDownloadVideo:    {"Download Video", "Downloading..."},
	controller.ActionDownloadAudio:    {"Download Audio", "Downloading..."},
	controller.ActionDownloadPlaylist: {"Download Playlist", "Downloading..."},
}

type App struct {
	app  *tview.Application
	ctrl *controller.Controller
	ctx  context.Context
	ttl  time.Duration

	root *tview.Flex

	urlInput *tview.InputField
	buttons  map[controller.Action]*tview.Button

	preview      *tview.TextView
	downloadBox  *tview.Flex
	videoFormat  *tview.DropDown
	videoQuality *tview.DropDown
	audioFormat  *tview.DropDown

	playlistBox     *tview.Flex
	playlistSummary *tview.TextView
	playlistList    *tview.TextView
	playlistType    *tview.DropDown
	playlistFormat  *tview.DropDown
	playlistQuality *tview.DropDown

	progressBox *tview.TextView
	notice      *tview.TextView
	stats       *tview.TextView

	// UI goroutine only
	showResults   bool
	showPlaylist  bool
	showProgress  bool
	progressTitle string
	progressText  string
	percent       float64
	noticeGen     uint64
}

var _ controller.View = (*App)(nil)

// New builds the widgets. notifyTTL is how long a notification stays visible.
func New(notifyTTL time.Duration) *App {
	a := &App{
		app:     tview.NewApplication(),
		ttl:     notifyTTL,
		buttons: map[controller.Action]*tview.Button{},
	}

	a.urlInput = tview.NewInputField()
	a.urlInput.SetLabel("URL: ")
	a.urlInput.SetPlaceholder("https://www.youtube.com/watch?v=...")
	a.urlInput.SetFieldBackgroundColor(tcell.ColorNone)
	a.urlInput.SetFieldTextColor(tcell.ColorWhite)
	a.urlInput.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			a.fetch()
		}
	})

	for action, labels := range buttonLabels {
		button := tview.NewButton(labels[0])
		button.SetStyle(tcell.Style{}.Background(tcell.ColorDarkSlateGray))
		button.SetActivatedStyle(tcell.Style{}.Background(tcell.ColorDarkRed))
		a.buttons[action] = button
	}
	a.buttons[controller.ActionFetch].SetSelectedFunc(a.fetch)
	a.buttons[controller.ActionDownloadVideo].SetSelectedFunc(func() { a.download(models.MediaVideo) })
	a.buttons[controller.ActionDownloadAudio].SetSelectedFunc(func() { a.download(models.MediaAudio) })
	a.buttons[controller.ActionDownloadPlaylist].SetSelectedFunc(a.downloadPlaylist)

	a.preview = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	a.preview.SetBorder(true).SetTitle(" Preview ").SetTitleAlign(tview.AlignLeft)

	a.videoFormat = dropDown("Video format: ", upper(models.VideoFormats))
	a.videoQuality = dropDown("Quality: ", qualityLabels())
	a.audioFormat = dropDown("Audio format: ", upper(models.AudioFormats))

	videoRow := tview.NewFlex().
		AddItem(a.videoFormat, 0, 1, false).
		AddItem(a.videoQuality, 0, 1, false).
		AddItem(a.buttons[controller.ActionDownloadVideo], 20, 0, false)
	audioRow := tview.NewFlex().
		AddItem(a.audioFormat, 0, 2, false).
		AddItem(a.buttons[controller.ActionDownloadAudio], 20, 0, false)
	a.downloadBox = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(videoRow, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(audioRow, 1, 0, false)
	a.downloadBox.SetBorder(true).SetTitle(" Download ").SetTitleAlign(tview.AlignLeft)

	a.playlistSummary = tview.NewTextView().SetDynamicColors(true)
	a.playlistList = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	a.playlistFormat = dropDown("Format: ", upper(models.VideoFormats))
	a.playlistQuality = dropDown("Quality: ", qualityLabels())
	a.playlistType = tview.NewDropDown().SetLabel("Type: ")
	a.playlistType.SetFieldBackgroundColor(tcell.ColorNone)
	a.playlistType.SetOptions([]string{models.MediaVideo.Label(), models.MediaAudio.Label()}, func(_ string, index int) {
		a.playlistFormat.SetOptions(upper(models.FormatsFor(playlistKind(index))), nil)
		a.playlistFormat.SetCurrentOption(0)
	})
	a.playlistType.SetCurrentOption(0)

	playlistControls := tview.NewFlex().
		AddItem(a.playlistType, 0, 1, false).
		AddItem(a.playlistFormat, 0, 1, false).
		AddItem(a.playlistQuality, 0, 1, false).
		AddItem(a.buttons[controller.ActionDownloadPlaylist], 22, 0, false)
	a.playlistBox = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.playlistSummary, 1, 0, false).
		AddItem(a.playlistList, 0, 1, false).
		AddItem(playlistControls, 1, 0, false)
	a.playlistBox.SetBorder(true).SetTitle(" Playlist ").SetTitleAlign(tview.AlignLeft)

	a.progressBox = tview.NewTextView().SetDynamicColors(true)
	a.progressBox.SetBorder(true).SetTitleAlign(tview.AlignLeft)

	a.notice = tview.NewTextView().SetDynamicColors(true)
	a.stats = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignRight)

	a.root = tview.NewFlex().SetDirection(tview.FlexRow)
	a.root.SetBorder(true).SetTitle(" SaveTube ")
	a.layout()

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc:
			a.noticeGen++
			a.notice.Clear()
			return nil
		case tcell.KeyTab:
			a.cycleFocus(1)
			return nil
		case tcell.KeyBacktab:
			a.cycleFocus(-1)
			return nil
		}
		return event
	})
	return a
}

func dropDown(label string, options []string) *tview.DropDown {
	d := tview.NewDropDown().SetLabel(label).SetOptions(options, nil)
	d.SetFieldBackgroundColor(tcell.ColorNone)
	d.SetCurrentOption(0)
	return d
}

func playlistKind(index int) models.MediaType {
	if index == 1 {
		return models.MediaAudio
	}
	return models.MediaVideo
}

// Run blocks until the user quits with Ctrl+C or ctx is done. It initializes
// ctrl once the event loop is running.
func (a *App) Run(ctx context.Context, ctrl *controller.Controller) error {
	a.ctx = ctx
	a.ctrl = ctrl
	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()
	// view updates wait for the event loop, so Init must not run inline
	go ctrl.Init()
	return a.app.SetRoot(a.root, true).SetFocus(a.urlInput).EnableMouse(true).Run()
}

// layout rebuilds the root flex from the visibility flags.
func (a *App) layout() {
	a.root.Clear()

	header := tview.NewFlex().
		AddItem(a.urlInput, 0, 1, true).
		AddItem(a.buttons[controller.ActionFetch], 12, 0, false)
	a.root.AddItem(header, 1, 0, true)
	a.root.AddItem(tview.NewBox(), 1, 0, false)

	if a.showResults {
		a.root.AddItem(a.preview, 9, 0, false)
		a.root.AddItem(a.downloadBox, 5, 0, false)
	}
	if a.showPlaylist {
		a.root.AddItem(a.playlistBox, 0, 1, false)
	} else {
		a.root.AddItem(tview.NewBox(), 0, 1, false)
	}
	if a.showProgress {
		a.root.AddItem(a.progressBox, 4, 0, false)
	}

	footer := tview.NewFlex().
		AddItem(a.notice, 0, 3, false).
		AddItem(a.stats, 16, 0, false)
	a.root.AddItem(footer, 1, 0, false)
}

func (a *App) focusables() []tview.Primitive {
	items := []tview.Primitive{a.urlInput, a.buttons[controller.ActionFetch]}
	if a.showResults {
		items = append(items,
			a.videoFormat, a.videoQuality, a.buttons[controller.ActionDownloadVideo],
			a.audioFormat, a.buttons[controller.ActionDownloadAudio])
	}
	if a.showPlaylist {
		items = append(items,
			a.playlistList, a.playlistType, a.playlistFormat, a.playlistQuality,
			a.buttons[controller.ActionDownloadPlaylist])
	}
	return items
}

func (a *App) cycleFocus(dir int) {
	items := a.focusables()
	current := a.app.GetFocus()
	next := 0
	for i, p := range items {
		if p == current {
			next = (i + dir + len(items)) % len(items)
			break
		}
	}
	a.app.SetFocus(items[next])
}

func (a *App) fetch() {
	url := a.urlInput.GetText()
	go func() {
		if err := a.ctrl.FetchVideoInfo(a.ctx, url); err != nil {
			slog.Debug("Fetch ended with error", "err", err)
		}
	}()
}

func (a *App) download(kind models.MediaType) {
	url := a.urlInput.GetText()
	sel := controller.Selection{}
	if kind == models.MediaAudio {
		_, sel.Format = a.audioFormat.GetCurrentOption()
	} else {
		_, sel.Format = a.videoFormat.GetCurrentOption()
		sel.Quality = selectedQuality(a.videoQuality)
	}
	go func() {
		if err := a.ctrl.DownloadMedia(a.ctx, url, kind, sel); err != nil {
			slog.Debug("Download ended with error", "err", err)
		}
	}()
}

func (a *App) downloadPlaylist() {
	url := a.urlInput.GetText()
	typeIndex, _ := a.playlistType.GetCurrentOption()
	sel := controller.Selection{Type: playlistKind(typeIndex)}
	_, sel.Format = a.playlistFormat.GetCurrentOption()
	sel.Quality = selectedQuality(a.playlistQuality)
	go func() {
		if err := a.ctrl.DownloadPlaylist(a.ctx, url, sel); err != nil {
			slog.Debug("Playlist download ended with error", "err", err)
		}
	}()
}

func selectedQuality(d *tview.DropDown) string {
	index, _ := d.GetCurrentOption()
	if index < 0 || index >= len(models.VideoQualities) {
		return models.QualityBest
	}
	return models.VideoQualities[index]
}
