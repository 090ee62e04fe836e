// Package fakebackend serves the media-download backend protocol from memory.
// It backs the client, controller and UI tests.
package fakebackend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/imbecility/savetube/pkg/models"
)

// Failure forces an endpoint to answer with an error status.
// An empty Message sends a body without an "error" field.
type Failure struct {
	Status  int
	Message string
}

type Server struct {
	Videos    map[string]*models.VideoInfo
	Playlists map[string]*models.PlaylistInfo
	// Files maps a backend path to its content; downloads return the first
	// path whose base name starts with the sanitized video title.
	Files    map[string][]byte
	Progress map[string]*models.ProgressReport
	Failures map[string]Failure
	// PlaylistResults overrides the aggregate answer of /api/download-playlist.
	PlaylistResults map[string]*models.PlaylistDownloadResult
	// Delay is applied before answering the two download endpoints.
	Delay time.Duration

	mu       sync.Mutex
	calls    map[string]int
	requests []models.DownloadRequest
}

func New() *Server {
	return &Server{
		Videos:          map[string]*models.VideoInfo{},
		Playlists:       map[string]*models.PlaylistInfo{},
		Files:           map[string][]byte{},
		Progress:        map[string]*models.ProgressReport{},
		Failures:        map[string]Failure{},
		PlaylistResults: map[string]*models.PlaylistDownloadResult{},
		calls:           map[string]int{},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/video-info", s.handleVideoInfo)
	mux.HandleFunc("/api/playlist-info", s.handlePlaylistInfo)
	mux.HandleFunc("/api/download", s.handleDownload)
	mux.HandleFunc("/api/download-playlist", s.handleDownloadPlaylist)
	mux.HandleFunc("/api/download-file", s.handleFileDownload)
	mux.HandleFunc("/api/progress/", s.handleProgress)
	return mux
}

// Calls returns how many requests reached the endpoint path.
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// DownloadRequests returns the bodies received by both download endpoints.
func (s *Server) DownloadRequests() []models.DownloadRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DownloadRequest(nil), s.requests...)
}

func (s *Server) track(r *http.Request) (Failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[r.URL.Path]++
	key := r.URL.Path
	if strings.HasPrefix(key, "/api/progress/") {
		key = "/api/progress/"
	}
	f, failing := s.Failures[key]
	return f, failing
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	url, ok := s.decodeURL(w, r)
	if !ok {
		return
	}
	if info, found := s.Playlists[url]; found {
		if v, exists := s.Videos[url]; exists {
			s.respondJSON(w, http.StatusOK, v)
			return
		}
		s.respondJSON(w, http.StatusOK, models.VideoInfo{Title: info.Title, IsPlaylist: true, VideoCount: info.VideoCount})
		return
	}
	info, found := s.Videos[url]
	if !found {
		s.respondError(w, http.StatusInternalServerError, "Video unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handlePlaylistInfo(w http.ResponseWriter, r *http.Request) {
	url, ok := s.decodeURL(w, r)
	if !ok {
		return
	}
	info, found := s.Playlists[url]
	if !found {
		s.respondError(w, http.StatusBadRequest, "Not a playlist URL")
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeDownload(w, r)
	if !ok {
		return
	}
	info, found := s.Videos[req.URL]
	if !found {
		s.respondError(w, http.StatusInternalServerError, "Video unavailable")
		return
	}

	for p := range s.Files {
		if strings.HasPrefix(path.Base(p), info.Title) {
			s.respondJSON(w, http.StatusOK, models.DownloadResult{
				Title:    info.Title,
				Filename: path.Base(p),
				Path:     p,
			})
			return
		}
	}
	s.respondJSON(w, http.StatusOK, models.DownloadResult{
		Title:    info.Title,
		Filename: fmt.Sprintf("%s.%s", info.Title, req.Format),
	})
}

func (s *Server) handleDownloadPlaylist(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeDownload(w, r)
	if !ok {
		return
	}
	if res, found := s.PlaylistResults[req.URL]; found {
		s.respondJSON(w, http.StatusOK, res)
		return
	}
	info, found := s.Playlists[req.URL]
	if !found {
		s.respondError(w, http.StatusBadRequest, "Not a playlist URL")
		return
	}
	s.respondJSON(w, http.StatusOK, models.PlaylistDownloadResult{
		VideoCount:       info.VideoCount,
		PlaylistTitle:    info.Title,
		DownloadPathName: fmt.Sprintf("downloads/playlist_%s/", info.Title),
		SuccessfulCount:  info.VideoCount,
	})
}

func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	if f, failing := s.track(r); failing {
		s.respondError(w, f.Status, f.Message)
		return
	}
	filepath := r.URL.Query().Get("filepath")
	if filepath == "" {
		s.respondError(w, http.StatusBadRequest, "Filepath is required")
		return
	}
	content, found := s.Files[filepath]
	if !found {
		s.respondError(w, http.StatusNotFound, "File not found or expired")
		return
	}

	filename := path.Base(filepath)
	slog.Debug("Serving file", "file", filename, "remote", r.RemoteAddr)

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	http.ServeContent(w, r, filename, time.Now(), bytes.NewReader(content))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if f, failing := s.track(r); failing {
		s.respondError(w, f.Status, f.Message)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/progress/")
	s.mu.Lock()
	report, found := s.Progress[id]
	s.mu.Unlock()
	if !found {
		s.respondJSON(w, http.StatusOK, models.ProgressReport{Status: "starting"})
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

// SetProgress publishes a progress report for a download id.
func (s *Server) SetProgress(id string, report models.ProgressReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Progress[id] = &report
}

func (s *Server) decodeURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}
	if f, failing := s.track(r); failing {
		s.respondError(w, f.Status, f.Message)
		return "", false
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	if req.URL == "" {
		s.respondError(w, http.StatusBadRequest, "URL is required")
		return "", false
	}
	return req.URL, true
}

func (s *Server) decodeDownload(w http.ResponseWriter, r *http.Request) (models.DownloadRequest, bool) {
	var req models.DownloadRequest
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.track(r)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return req, false
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	if f, failing := s.track(r); failing {
		s.respondError(w, f.Status, f.Message)
		return req, false
	}
	if req.URL == "" {
		s.respondError(w, http.StatusBadRequest, "URL is required")
		return req, false
	}
	return req, true
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("{}"))
		return
	}
	s.respondJSON(w, status, models.ErrorResponse{Error: msg})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	jerr := json.NewEncoder(w).Encode(data)
	if jerr != nil {
		slog.Error("JSON encoding failed", "error", jerr)
	}
}
