package console

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/imbecility/savetube/pkg/backend"
	"github.com/imbecility/savetube/pkg/backend/fakebackend"
	"github.com/imbecility/savetube/pkg/config"
	"github.com/imbecility/savetube/pkg/controller"
	"github.com/imbecility/savetube/pkg/models"
	"github.com/imbecility/savetube/pkg/saver"
)

const videoURL = "https://youtu.be/dQw4w9WgXcQ"

func setup(t *testing.T) (*controller.Controller, *bytes.Buffer, *fakebackend.Server, string) {
	t.Helper()
	fake := fakebackend.New()
	fake.Videos[videoURL] = &models.VideoInfo{
		Title:        "Clip",
		Uploader:     "Someone",
		Duration:     95,
		ViewCount:    1200,
		VideoFormats: []models.VideoFormat{{Ext: "mp4"}},
	}
	fake.Files["/srv/Clip.webm"] = []byte("webm-bytes")
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	out := &bytes.Buffer{}
	dir := t.TempDir()
	opts := controller.DefaultOptions()
	opts.Tick = time.Millisecond
	opts.HideDelay = time.Hour
	ctrl := controller.NewController(
		backend.New(srv.URL, srv.Client()),
		New(out),
		&saver.FileSaver{Client: srv.Client(), OutputDir: dir},
		nil,
		opts,
	)
	return ctrl, out, fake, dir
}

func TestRunInfo(t *testing.T) {
	ctrl, out, _, _ := setup(t)

	cfg := config.Default()
	cfg.URL = videoURL
	if err := Run(context.Background(), ctrl, cfg); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, want := range []string{"Clip", "Someone", "1:35", "1.2K views", "Video info loaded successfully!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestRunVideoSavesFile(t *testing.T) {
	ctrl, out, fake, dir := setup(t)

	cfg := config.Default()
	cfg.URL = videoURL
	cfg.Action = config.ActionVideo
	cfg.Format = "webm"
	if err := Run(context.Background(), ctrl, cfg); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if got := fake.DownloadRequests()[0].Format; got != "webm" {
		t.Errorf("Expected webm request, got %s", got)
	}
	data, err := os.ReadFile(filepath.Join(dir, "Clip.webm"))
	if err != nil {
		t.Fatalf("Expected saved file: %v", err)
	}
	if string(data) != "webm-bytes" {
		t.Errorf("Unexpected file content %q", data)
	}
	if !strings.Contains(out.String(), "Video downloaded successfully!") {
		t.Errorf("Expected success line, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "1 ok") {
		t.Errorf("Expected stats line, got:\n%s", out.String())
	}
}

func TestRunPlaylistWithoutPlaylist(t *testing.T) {
	ctrl, out, _, _ := setup(t)

	cfg := config.Default()
	cfg.URL = videoURL
	cfg.Action = config.ActionPlaylist
	err := Run(context.Background(), ctrl, cfg)
	if err == nil {
		t.Fatal("Expected error for a non-playlist URL")
	}
	if !strings.Contains(out.String(), "Not a playlist URL") {
		t.Errorf("Expected backend message in output, got:\n%s", out.String())
	}
}

func TestRunInvalidURL(t *testing.T) {
	ctrl, out, fake, _ := setup(t)

	cfg := config.Default()
	cfg.URL = "https://example.com"
	err := Run(context.Background(), ctrl, cfg)
	if !errors.Is(err, controller.ErrInvalidURL) {
		t.Errorf("Expected ErrInvalidURL, got %v", err)
	}
	if fake.TotalCalls() != 0 {
		t.Errorf("Expected no requests, got %d", fake.TotalCalls())
	}
	if !strings.Contains(out.String(), "Please enter a valid YouTube URL") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}

func TestRunUnknownAction(t *testing.T) {
	ctrl, _, _, _ := setup(t)

	cfg := config.Default()
	cfg.URL = videoURL
	cfg.Action = "stream"
	if err := Run(context.Background(), ctrl, cfg); err == nil {
		t.Error("Expected error for unknown action")
	}
}

func TestNotifyLevels(t *testing.T) {
	out := &bytes.Buffer{}
	v := New(out)
	v.Notify(controller.LevelError, "broken")
	v.Notify(controller.LevelWarning, "careful")

	got := out.String()
	if !strings.Contains(got, colorRed+"✘ broken") {
		t.Errorf("Expected red error line, got %q", got)
	}
	if !strings.Contains(got, colorYellow+"! careful") {
		t.Errorf("Expected yellow warning line, got %q", got)
	}
}

func TestProgressLifecycle(t *testing.T) {
	out := &bytes.Buffer{}
	v := New(out)

	v.UpdateProgress(50, "ignored")
	if out.Len() != 0 {
		t.Errorf("Expected no output without a bar, got %q", out.String())
	}

	v.ShowProgress("Downloading video...", "Preparing")
	v.UpdateProgress(40, "")
	v.UpdateProgress(100, "Download complete!")
	v.HideProgress()
	v.HideProgress()

	if !strings.Contains(out.String(), "Downloading video...") {
		t.Errorf("Expected title, got %q", out.String())
	}
	if v.bar != nil {
		t.Error("Expected bar to be released")
	}
}
