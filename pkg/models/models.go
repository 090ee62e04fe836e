package models

import "strings"

type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// Label returns the capitalized media type ("Video", "Audio") used in messages.
func (m MediaType) Label() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

func (m MediaType) Valid() bool {
	return m == MediaVideo || m == MediaAudio
}

const QualityBest = "best"

var (
	VideoFormats   = []string{"mp4", "webm", "avi", "mov", "mkv"}
	AudioFormats   = []string{"mp3", "wav", "m4a", "opus", "flac"}
	VideoQualities = []string{QualityBest, "2160", "1440", "1080", "720", "480", "360"}
)

// FormatsFor returns the output format catalog of a media type.
func FormatsFor(m MediaType) []string {
	if m == MediaAudio {
		return AudioFormats
	}
	return VideoFormats
}

type VideoFormat struct {
	Ext        string `json:"ext"`
	Resolution string `json:"resolution,omitempty"`
}

type AudioFormat struct {
	Ext string `json:"ext"`
}

type VideoInfo struct {
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader,omitempty"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	ViewCount  int64   `json:"view_count,omitempty"`
	IsPlaylist bool    `json:"is_playlist"`
	// VideoCount is only set by the backend when the URL points at a playlist.
	VideoCount   int           `json:"video_count,omitempty"`
	VideoFormats []VideoFormat `json:"video_formats,omitempty"`
	AudioFormats []AudioFormat `json:"audio_formats,omitempty"`
}

// FormatLabels lists the advertised formats, video ones as "ext resolution"
// when the backend reports a resolution.
func (i *VideoInfo) FormatLabels() (video, audio []string) {
	for _, f := range i.VideoFormats {
		if f.Resolution != "" {
			video = append(video, f.Ext+" "+f.Resolution)
			continue
		}
		video = append(video, f.Ext)
	}
	for _, f := range i.AudioFormats {
		audio = append(audio, f.Ext)
	}
	return video, audio
}

type PlaylistEntry struct {
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration,omitempty"`
}

type PlaylistInfo struct {
	Title      string          `json:"title"`
	VideoCount int             `json:"video_count"`
	Videos     []PlaylistEntry `json:"videos,omitempty"`
}

type DownloadRequest struct {
	URL     string    `json:"url"`
	Type    MediaType `json:"type"`
	Format  string    `json:"format"`
	Quality string    `json:"quality"`
	// DownloadID lets the backend publish progress under /api/progress/<id>.
	DownloadID string `json:"download_id,omitempty"`
}

type DownloadResult struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	// Path is the absolute path on the backend host, absent on some backends.
	Path string `json:"path,omitempty"`
}

type PlaylistDownloadResult struct {
	VideoCount       int    `json:"video_count"`
	PlaylistTitle    string `json:"playlist_title"`
	DownloadPathName string `json:"download_path_name"`
	SuccessfulCount  int    `json:"successful_count"`
	FailedCount      int    `json:"failed_count"`
}

type ProgressReport struct {
	Status   string  `json:"status"`
	Percent  float64 `json:"percent"`
	Speed    string  `json:"speed,omitempty"`
	ETA      string  `json:"eta,omitempty"`
	Filename string  `json:"filename,omitempty"`
}

// FileLink is what the save capability needs to fetch a finished file.
type FileLink struct {
	URL      string
	Filename string
}

type ErrorResponse struct {
	Error string `json:"error"`
}
