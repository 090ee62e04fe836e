package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/imbecility/savetube/pkg/models"
)

const DefaultBaseURL = "http://localhost:5000"

const (
	pathVideoInfo        = "/api/video-info"
	pathPlaylistInfo     = "/api/playlist-info"
	pathDownload         = "/api/download"
	pathDownloadPlaylist = "/api/download-playlist"
	pathDownloadFile     = "/api/download-file"
	pathProgress         = "/api/progress/"
)

// Messages used when a failed response carries no "error" field.
const (
	DefaultVideoInfoError        = "Failed to fetch video info"
	DefaultPlaylistInfoError     = "Failed to fetch playlist info"
	DefaultDownloadError         = "Download failed"
	DefaultPlaylistDownloadError = "Playlist download failed"
	DefaultProgressError         = "Failed to fetch progress"
)

// maxErrorBody bounds how much of a failed response is read looking for the message.
const maxErrorBody = 64 * 1024

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

type API struct {
	BaseURL string
	Client  HTTPClient
}

var _ Backend = (*API)(nil)

func New(baseURL string, client HTTPClient) *API {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
	}
}

func (a *API) VideoInfo(ctx context.Context, videoURL string) (*models.VideoInfo, error) {
	var info models.VideoInfo
	if err := a.postJSON(ctx, pathVideoInfo, map[string]string{"url": videoURL}, &info, DefaultVideoInfoError); err != nil {
		return nil, err
	}
	return &info, nil
}

func (a *API) PlaylistInfo(ctx context.Context, playlistURL string) (*models.PlaylistInfo, error) {
	var info models.PlaylistInfo
	if err := a.postJSON(ctx, pathPlaylistInfo, map[string]string{"url": playlistURL}, &info, DefaultPlaylistInfoError); err != nil {
		return nil, err
	}
	return &info, nil
}

func (a *API) Download(ctx context.Context, req models.DownloadRequest) (*models.DownloadResult, error) {
	var res models.DownloadResult
	if err := a.postJSON(ctx, pathDownload, req, &res, DefaultDownloadError); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) DownloadPlaylist(ctx context.Context, req models.DownloadRequest) (*models.PlaylistDownloadResult, error) {
	// the playlist endpoint has no progress channel
	req.DownloadID = ""
	var res models.PlaylistDownloadResult
	if err := a.postJSON(ctx, pathDownloadPlaylist, req, &res, DefaultPlaylistDownloadError); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) Progress(ctx context.Context, downloadID string) (*models.ProgressReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+pathProgress+url.PathEscape(downloadID), nil)
	if err != nil {
		return nil, fmt.Errorf("build progress request: %w", err)
	}
	var report models.ProgressReport
	if err := a.do(req, &report, DefaultProgressError); err != nil {
		return nil, err
	}
	return &report, nil
}

// FileLink builds the download-file URL for a finished single download.
// The URL is empty when the backend did not report a path.
func (a *API) FileLink(res *models.DownloadResult) models.FileLink {
	if res == nil || res.Path == "" {
		return models.FileLink{}
	}
	name := res.Filename
	if name == "" {
		name = path.Base(strings.ReplaceAll(res.Path, `\`, "/"))
	}
	return models.FileLink{
		URL:      a.BaseURL + pathDownloadFile + "?filepath=" + url.QueryEscape(res.Path),
		Filename: name,
	}
}

func (a *API) postJSON(ctx context.Context, endpoint string, payload any, out any, fallback string) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	slog.Debug("Backend request", "endpoint", endpoint)
	return a.do(req, out, fallback)
}

func (a *API) do(req *http.Request, out any, fallback string) error {
	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func(Body io.ReadCloser) {
		cerr := Body.Close()
		if cerr != nil {
			slog.Warn("Failed to close response body", "err", cerr)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: fallback}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var body models.ErrorResponse
		if jerr := json.Unmarshal(raw, &body); jerr == nil && strings.TrimSpace(body.Error) != "" {
			apiErr.Message = body.Error
		}
		slog.Debug("Backend error response", "path", req.URL.Path, "status", resp.StatusCode, "msg", apiErr.Message)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
