package controller

import "github.com/imbecility/savetube/pkg/models"

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Action identifies a user control that can be busy.
type Action int

const (
	ActionFetch Action = iota
	ActionDownloadVideo
	ActionDownloadAudio
	ActionDownloadPlaylist
)

func (a Action) String() string {
	switch a {
	case ActionFetch:
		return "fetch"
	case ActionDownloadVideo:
		return "download-video"
	case ActionDownloadAudio:
		return "download-audio"
	case ActionDownloadPlaylist:
		return "download-playlist"
	}
	return "unknown"
}

func actionFor(kind models.MediaType) Action {
	if kind == models.MediaAudio {
		return ActionDownloadAudio
	}
	return ActionDownloadVideo
}

// View is everything the controller needs from a front end. Progress methods
// may be called from a background goroutine.
type View interface {
	// ShowVideoInfo renders the preview and download sections.
	ShowVideoInfo(info *models.VideoInfo)
	// ShowPlaylistInfo renders the playlist section.
	ShowPlaylistInfo(info *models.PlaylistInfo)
	HidePlaylist()
	// HideResults hides preview, download and playlist sections.
	HideResults()

	Notify(level Level, message string)

	ShowProgress(title, status string)
	// UpdateProgress sets the bar; an empty status keeps the current text.
	UpdateProgress(percent float64, status string)
	HideProgress()

	SetBusy(action Action, busy bool)
	ShowStats(success, fail int)
}
