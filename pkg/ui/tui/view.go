package tui

import (
	"time"

	"github.com/imbecility/savetube/pkg/controller"
	"github.com/imbecility/savetube/pkg/models"
)

// The controller runs on worker goroutines, so every view method hands its
// widget changes to the event loop.

func (a *App) ShowVideoInfo(info *models.VideoInfo) {
	a.app.QueueUpdateDraw(func() {
		a.preview.SetText(previewText(info, a.urlInput.GetText()))
		a.preview.ScrollToBeginning()
		a.showResults = true
		a.layout()
	})
}

func (a *App) ShowPlaylistInfo(info *models.PlaylistInfo) {
	a.app.QueueUpdateDraw(func() {
		a.playlistSummary.SetText(playlistSummary(info))
		a.playlistList.SetText(playlistEntries(info))
		a.playlistList.ScrollToBeginning()
		a.showPlaylist = true
		a.layout()
	})
}

func (a *App) HidePlaylist() {
	a.app.QueueUpdateDraw(func() {
		a.showPlaylist = false
		a.layout()
	})
}

func (a *App) HideResults() {
	a.app.QueueUpdateDraw(func() {
		a.showResults = false
		a.showPlaylist = false
		a.layout()
		a.app.SetFocus(a.urlInput)
	})
}

func (a *App) Notify(level controller.Level, message string) {
	a.app.QueueUpdateDraw(func() {
		a.noticeGen++
		gen := a.noticeGen
		a.notice.SetText(noticeText(level, message))
		time.AfterFunc(a.ttl, func() {
			a.app.QueueUpdateDraw(func() {
				if a.noticeGen == gen {
					a.notice.Clear()
				}
			})
		})
	})
}

func (a *App) ShowProgress(title, status string) {
	a.app.QueueUpdateDraw(func() {
		a.progressTitle = title
		a.progressText = status
		a.percent = 0
		a.showProgress = true
		a.renderProgress()
		a.layout()
	})
}

func (a *App) UpdateProgress(percent float64, status string) {
	a.app.QueueUpdateDraw(func() {
		a.percent = percent
		if status != "" {
			a.progressText = status
		}
		a.renderProgress()
	})
}

func (a *App) HideProgress() {
	a.app.QueueUpdateDraw(func() {
		a.showProgress = false
		a.layout()
	})
}

func (a *App) renderProgress() {
	a.progressBox.SetTitle(" " + a.progressTitle + " ")
	a.progressBox.SetText(progressBar(a.percent, barWidth) + "\n" + a.progressText)
}

func (a *App) SetBusy(action controller.Action, busy bool) {
	a.app.QueueUpdateDraw(func() {
		button, ok := a.buttons[action]
		if !ok {
			return
		}
		labels := buttonLabels[action]
		if busy {
			button.SetLabel(labels[1])
		} else {
			button.SetLabel(labels[0])
		}
	})
}

func (a *App) ShowStats(success, fail int) {
	a.app.QueueUpdateDraw(func() {
		a.stats.SetText(statsText(success, fail))
	})
}
