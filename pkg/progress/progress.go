// Package progress produces the percentages shown while a backend download is
// pending. The backend answers a download request only once the whole transfer
// is done, so the default source is a timer-driven estimate.
package progress

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/imbecility/savetube/pkg/models"
)

// DefaultCeiling is the highest value a source reports before the request settles.
const DefaultCeiling = 90.0

// DefaultInterval is used when a Simulated has no positive Interval.
const DefaultInterval = 500 * time.Millisecond

// Source reports non-decreasing percentages until ctx is done.
type Source interface {
	Run(ctx context.Context, report func(percent float64))
}

// Start runs src on its own goroutine. The returned stop cancels it and waits
// for it to exit, so report is never called after stop returns.
func Start(ctx context.Context, src Source, report func(percent float64)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		src.Run(ctx, report)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// Simulated is a placeholder estimate: every Interval it adds a random step in
// (0, MaxStep] and holds at Ceiling.
type Simulated struct {
	Interval time.Duration
	MaxStep  float64
	Ceiling  float64
	// Rand returns a value in [0, 1); nil uses math/rand.
	Rand func() float64

	current float64
}

func NewSimulated(interval time.Duration, maxStep float64) *Simulated {
	return &Simulated{Interval: interval, MaxStep: maxStep, Ceiling: DefaultCeiling}
}

func (s *Simulated) Run(ctx context.Context, report func(percent float64)) {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a tick racing with cancellation must not report
			if ctx.Err() != nil {
				return
			}
			report(s.step())
		}
	}
}

func (s *Simulated) step() float64 {
	r := rand.Float64
	if s.Rand != nil {
		r = s.Rand
	}
	s.current += r() * s.MaxStep
	if s.current > s.ceiling() {
		s.current = s.ceiling()
	}
	return s.current
}

func (s *Simulated) advanceTo(p float64) float64 {
	if p > s.ceiling() {
		p = s.ceiling()
	}
	if p > s.current {
		s.current = p
	}
	return s.current
}

func (s *Simulated) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

func (s *Simulated) ceiling() float64 {
	if s.Ceiling <= 0 {
		return DefaultCeiling
	}
	return s.Ceiling
}

// Poller fetches the backend's view of a download.
type Poller interface {
	Progress(ctx context.Context, downloadID string) (*models.ProgressReport, error)
}

// Polled asks the backend for real progress on every tick and falls back to the
// simulated estimate whenever the backend has nothing to say.
type Polled struct {
	Poller     Poller
	DownloadID string
	Fallback   *Simulated
}

func (p *Polled) Run(ctx context.Context, report func(percent float64)) {
	if p.Fallback == nil {
		p.Fallback = NewSimulated(DefaultInterval, 15)
	}
	ticker := time.NewTicker(p.Fallback.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			percent := p.poll(ctx)
			if ctx.Err() != nil {
				return
			}
			report(percent)
		}
	}
}

func (p *Polled) poll(ctx context.Context) float64 {
	r, err := p.Poller.Progress(ctx, p.DownloadID)
	if err != nil {
		if ctx.Err() == nil {
			slog.Debug("Progress poll failed", "id", p.DownloadID, "err", err)
		}
		return p.Fallback.step()
	}
	if r.Status == "downloading" && r.Percent > 0 {
		return p.Fallback.advanceTo(r.Percent)
	}
	if r.Status == "finished" {
		return p.Fallback.advanceTo(p.Fallback.ceiling())
	}
	return p.Fallback.step()
}
