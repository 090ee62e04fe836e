package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/imbecility/savetube/pkg/models"
)

type recorder struct {
	mu     sync.Mutex
	values []float64
}

func (r *recorder) report(p float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, p)
}

func (r *recorder) snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.values...)
}

func waitForReports(t *testing.T, r *recorder, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(r.snapshot()) >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Expected at least %d reports, got %d", n, len(r.snapshot()))
}

func TestSimulatedCapsAndNeverDecreases(t *testing.T) {
	sim := NewSimulated(time.Millisecond, 15)
	sim.Rand = func() float64 { return 0.99 }

	rec := &recorder{}
	stop := Start(context.Background(), sim, rec.report)
	waitForReports(t, rec, 20)
	stop()

	values := rec.snapshot()
	prev := 0.0
	for i, v := range values {
		if v > DefaultCeiling {
			t.Errorf("Report %d exceeds ceiling: %v", i, v)
		}
		if v < prev {
			t.Errorf("Report %d decreased: %v < %v", i, v, prev)
		}
		prev = v
	}
	if values[len(values)-1] != DefaultCeiling {
		t.Errorf("Expected estimate to settle at %v, got %v", DefaultCeiling, values[len(values)-1])
	}
}

func TestStopHaltsReports(t *testing.T) {
	sim := NewSimulated(time.Millisecond, 1)
	rec := &recorder{}
	stop := Start(context.Background(), sim, rec.report)
	waitForReports(t, rec, 3)

	stop()
	count := len(rec.snapshot())
	time.Sleep(20 * time.Millisecond)
	if got := len(rec.snapshot()); got != count {
		t.Errorf("Expected no reports after stop, got %d more", got-count)
	}

	// calling stop twice is harmless
	stop()
}

func TestSimulatedStepSize(t *testing.T) {
	sim := NewSimulated(time.Second, 5)
	sim.Rand = func() float64 { return 0.5 }

	if got := sim.step(); got != 2.5 {
		t.Errorf("Expected first step 2.5, got %v", got)
	}
	if got := sim.step(); got != 5 {
		t.Errorf("Expected second step 5, got %v", got)
	}
}

type fakePoller struct {
	mu      sync.Mutex
	reports []*models.ProgressReport
	err     error
	calls   int
}

func (f *fakePoller) Progress(ctx context.Context, id string) (*models.ProgressReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.reports) == 0 {
		return &models.ProgressReport{Status: "starting"}, nil
	}
	r := f.reports[0]
	if len(f.reports) > 1 {
		f.reports = f.reports[1:]
	}
	return r, nil
}

func TestPolledUsesBackendPercent(t *testing.T) {
	poller := &fakePoller{reports: []*models.ProgressReport{
		{Status: "downloading", Percent: 30},
		{Status: "downloading", Percent: 20},
		{Status: "downloading", Percent: 97},
	}}
	fallback := NewSimulated(time.Second, 15)
	fallback.Rand = func() float64 { return 0 }
	src := &Polled{Poller: poller, DownloadID: "id", Fallback: fallback}

	ctx := context.Background()
	expected := []float64{30, 30, DefaultCeiling}
	for i, want := range expected {
		if got := src.poll(ctx); got != want {
			t.Errorf("Poll %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestPolledFallsBackOnError(t *testing.T) {
	poller := &fakePoller{err: errors.New("connection refused")}
	fallback := NewSimulated(time.Millisecond, 10)
	fallback.Rand = func() float64 { return 0.5 }
	src := &Polled{Poller: poller, DownloadID: "id", Fallback: fallback}

	rec := &recorder{}
	stop := Start(context.Background(), src, rec.report)
	waitForReports(t, rec, 2)
	stop()

	values := rec.snapshot()
	if values[0] != 5 || values[1] != 10 {
		t.Errorf("Expected simulated values 5, 10, got %v", values[:2])
	}
}

func TestZeroIntervalUsesDefault(t *testing.T) {
	sim := &Simulated{MaxStep: 10, Rand: func() float64 { return 0.5 }}
	if got := sim.interval(); got != DefaultInterval {
		t.Errorf("Expected %v, got %v", DefaultInterval, got)
	}

	rec := &recorder{}
	stop := Start(context.Background(), sim, rec.report)
	waitForReports(t, rec, 1)
	stop()

	if v := rec.snapshot()[0]; v != 5 {
		t.Errorf("Expected first step 5, got %v", v)
	}
}

func TestPolledWithoutFallback(t *testing.T) {
	src := &Polled{Poller: &fakePoller{}, DownloadID: "id"}

	rec := &recorder{}
	stop := Start(context.Background(), src, rec.report)
	waitForReports(t, rec, 1)
	stop()

	if src.Fallback == nil || src.Fallback.Interval != DefaultInterval {
		t.Errorf("Expected default fallback, got %+v", src.Fallback)
	}
}
