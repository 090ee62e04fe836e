package backend

import (
	"context"
	"net/http"

	"github.com/imbecility/savetube/pkg/models"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Backend is the media-download service as seen by the controller.
type Backend interface {
	VideoInfo(ctx context.Context, url string) (*models.VideoInfo, error)
	PlaylistInfo(ctx context.Context, url string) (*models.PlaylistInfo, error)
	Download(ctx context.Context, req models.DownloadRequest) (*models.DownloadResult, error)
	DownloadPlaylist(ctx context.Context, req models.DownloadRequest) (*models.PlaylistDownloadResult, error)
	Progress(ctx context.Context, downloadID string) (*models.ProgressReport, error)
	FileLink(res *models.DownloadResult) models.FileLink
}
