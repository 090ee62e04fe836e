package controller

import (
	"sync"

	"github.com/imbecility/savetube/pkg/models"
)

// State is the client-side session: the last fetched video and playlist, the
// download counters and the busy controls. It lives as long as the process.
type State struct {
	mu       sync.Mutex
	video    *models.VideoInfo
	playlist *models.PlaylistInfo
	// playlistURL is the trimmed URL the playlist was fetched for.
	playlistURL string
	success  int
	fail     int
	busy     map[Action]bool
	// progressGen changes every time a progress bar is shown so a delayed hide
	// cannot close a newer one.
	progressGen uint64
}

func NewState() *State {
	return &State{busy: make(map[Action]bool)}
}

func (s *State) Video() *models.VideoInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.video
}

func (s *State) Playlist() *models.PlaylistInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playlist
}

// Counters returns the success and fail totals.
func (s *State) Counters() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.success, s.fail
}

func (s *State) setVideo(info *models.VideoInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video = info
}

// PlaylistFor returns the current playlist only when it was fetched for url.
func (s *State) PlaylistFor(url string) *models.PlaylistInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playlist == nil || s.playlistURL != url {
		return nil
	}
	return s.playlist
}

func (s *State) setPlaylist(url string, info *models.PlaylistInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlist = info
	s.playlistURL = url
	if info == nil {
		s.playlistURL = ""
	}
}

func (s *State) addSuccess(n int) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.success += n
	}
	return s.success, s.fail
}

func (s *State) addFail(n int) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.fail += n
	}
	return s.success, s.fail
}

// begin marks action busy; false means it already was.
func (s *State) begin(action Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[action] {
		return false
	}
	s.busy[action] = true
	return true
}

func (s *State) end(action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, action)
}

func (s *State) nextProgress() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressGen++
	return s.progressGen
}

func (s *State) currentProgress() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressGen
}
