package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/imbecility/savetube/pkg/backend/fakebackend"
	"github.com/imbecility/savetube/pkg/models"
)

const videoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func newTestAPI(t *testing.T) (*API, *fakebackend.Server) {
	t.Helper()
	fake := fakebackend.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client()), fake
}

func TestNewDefaults(t *testing.T) {
	api := New("", http.DefaultClient)
	if api.BaseURL != DefaultBaseURL {
		t.Errorf("Expected base URL %s, got %s", DefaultBaseURL, api.BaseURL)
	}

	api = New("http://example.test:5000/", http.DefaultClient)
	if api.BaseURL != "http://example.test:5000" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", api.BaseURL)
	}
}

func TestVideoInfo(t *testing.T) {
	api, fake := newTestAPI(t)
	fake.Videos[videoURL] = &models.VideoInfo{
		Title:     "Never Gonna Give You Up",
		Uploader:  "Rick Astley",
		Duration:  212,
		ViewCount: 1_500_000_000,
	}

	info, err := api.VideoInfo(context.Background(), videoURL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info.Title != "Never Gonna Give You Up" || info.Uploader != "Rick Astley" {
		t.Errorf("Unexpected info: %+v", info)
	}
	if info.IsPlaylist {
		t.Error("Expected a single video")
	}
	if fake.Calls("/api/video-info") != 1 {
		t.Errorf("Expected 1 call, got %d", fake.Calls("/api/video-info"))
	}
}

func TestVideoInfoErrorMessage(t *testing.T) {
	api, fake := newTestAPI(t)
	fake.Failures["/api/video-info"] = fakebackend.Failure{Status: http.StatusInternalServerError, Message: "Sign in to confirm your age"}

	_, err := api.VideoInfo(context.Background(), videoURL)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", apiErr.StatusCode)
	}
	if apiErr.Error() != "Sign in to confirm your age" {
		t.Errorf("Expected backend message, got %q", apiErr.Error())
	}
}

func TestErrorFallbackMessages(t *testing.T) {
	tests := []struct {
		endpoint string
		call     func(api *API) error
		expected string
	}{
		{"/api/video-info", func(api *API) error {
			_, err := api.VideoInfo(context.Background(), videoURL)
			return err
		}, DefaultVideoInfoError},
		{"/api/playlist-info", func(api *API) error {
			_, err := api.PlaylistInfo(context.Background(), videoURL)
			return err
		}, DefaultPlaylistInfoError},
		{"/api/download", func(api *API) error {
			_, err := api.Download(context.Background(), models.DownloadRequest{URL: videoURL, Type: models.MediaVideo, Format: "mp4", Quality: "best"})
			return err
		}, DefaultDownloadError},
		{"/api/download-playlist", func(api *API) error {
			_, err := api.DownloadPlaylist(context.Background(), models.DownloadRequest{URL: videoURL, Type: models.MediaAudio, Format: "mp3", Quality: "best"})
			return err
		}, DefaultPlaylistDownloadError},
	}

	for _, test := range tests {
		api, fake := newTestAPI(t)
		fake.Failures[test.endpoint] = fakebackend.Failure{Status: http.StatusBadGateway}

		err := test.call(api)
		if err == nil {
			t.Errorf("%s: expected error, got nil", test.endpoint)
			continue
		}
		if err.Error() != test.expected {
			t.Errorf("%s: expected %q, got %q", test.endpoint, test.expected, err.Error())
		}
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>boom</html>", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).VideoInfo(context.Background(), videoURL)
	if err == nil || err.Error() != DefaultVideoInfoError {
		t.Errorf("Expected fallback message, got %v", err)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base, http.DefaultClient).PlaylistInfo(context.Background(), videoURL)
	if err == nil {
		t.Fatal("Expected transport error, got nil")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("Transport error should not be an APIError: %v", err)
	}
}

func TestDownloadSendsRequestBody(t *testing.T) {
	api, fake := newTestAPI(t)
	fake.Videos[videoURL] = &models.VideoInfo{Title: "Clip"}
	fake.Files["/srv/media/Clip.webm"] = []byte("data")

	req := models.DownloadRequest{URL: videoURL, Type: models.MediaVideo, Format: "webm", Quality: "720", DownloadID: "abc"}
	res, err := api.Download(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Path != "/srv/media/Clip.webm" || res.Filename != "Clip.webm" {
		t.Errorf("Unexpected result: %+v", res)
	}

	got := fake.DownloadRequests()
	if len(got) != 1 || got[0] != req {
		t.Errorf("Expected backend to receive %+v, got %+v", req, got)
	}
}

func TestDownloadPlaylistDropsDownloadID(t *testing.T) {
	api, fake := newTestAPI(t)
	fake.Playlists[videoURL] = &models.PlaylistInfo{Title: "Mix", VideoCount: 3}

	res, err := api.DownloadPlaylist(context.Background(), models.DownloadRequest{
		URL: videoURL, Type: models.MediaAudio, Format: "mp3", Quality: "best", DownloadID: "abc",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.SuccessfulCount != 3 || res.PlaylistTitle != "Mix" {
		t.Errorf("Unexpected result: %+v", res)
	}
	if got := fake.DownloadRequests(); len(got) != 1 || got[0].DownloadID != "" {
		t.Errorf("Expected no download id in playlist request, got %+v", got)
	}
}

func TestProgress(t *testing.T) {
	api, fake := newTestAPI(t)
	fake.SetProgress("id-1", models.ProgressReport{Status: "downloading", Percent: 42.5})

	report, err := api.Progress(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Status != "downloading" || report.Percent != 42.5 {
		t.Errorf("Unexpected report: %+v", report)
	}

	report, err = api.Progress(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Status != "starting" {
		t.Errorf("Expected starting status, got %+v", report)
	}
}

func TestFileLink(t *testing.T) {
	api := New("http://localhost:5000", http.DefaultClient)

	link := api.FileLink(&models.DownloadResult{Filename: "a b.mp4", Path: `C:\Users\me\Videos\a b.mp4`})
	if !strings.HasPrefix(link.URL, "http://localhost:5000/api/download-file?filepath=") {
		t.Errorf("Unexpected link: %s", link.URL)
	}
	if strings.Contains(link.URL, " ") || strings.Contains(link.URL, `\`) {
		t.Errorf("Expected path to be escaped, got %s", link.URL)
	}
	if link.Filename != "a b.mp4" {
		t.Errorf("Expected filename 'a b.mp4', got %q", link.Filename)
	}

	link = api.FileLink(&models.DownloadResult{Path: "/srv/media/x.mp3"})
	if link.Filename != "x.mp3" {
		t.Errorf("Expected filename derived from path, got %q", link.Filename)
	}

	if link := api.FileLink(&models.DownloadResult{Filename: "x.mp3"}); link.URL != "" {
		t.Errorf("Expected empty link without path, got %s", link.URL)
	}
}
