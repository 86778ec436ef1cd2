package stream

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rendiffdev/frameguard/internal/detect"
	"github.com/rendiffdev/frameguard/internal/frame"
	"github.com/rendiffdev/frameguard/internal/pipeline"
	"github.com/rendiffdev/frameguard/internal/video"
)

// fakeSource produces solid mid-gray frames at a fixed rate and never
// fails to open; used for lifecycle tests that don't exercise backoff.
type fakeSource struct {
	mu     sync.Mutex
	opened int
	n      int
}

func (s *fakeSource) Open(ctx context.Context) error {
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return nil
}

func (s *fakeSource) Next(ctx context.Context) (*frame.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, 32*32*3)
	for i := range buf {
		buf[i] = 120
	}
	ts := time.Duration(s.n) * time.Second
	s.n++
	return frame.New(32, 32, 3, buf, ts), nil
}

func (s *fakeSource) Close() error { return nil }

// failingSource always fails to open, driving the reconnect/backoff path.
type failingSource struct{}

func (failingSource) Open(ctx context.Context) error { return errors.New("connection refused") }
func (failingSource) Next(ctx context.Context) (*frame.Frame, error) {
	return nil, errors.New("not connected")
}
func (failingSource) Close() error { return nil }

func testPipelines() (*pipeline.Pipeline, *video.Pipeline) {
	img := pipeline.New(detect.NewDefaultRegistry(), 2*time.Second, 500*time.Millisecond)
	return img, video.New(img, 2)
}

func TestWorker_ConnectsSamplesAndDetects(t *testing.T) {
	img, vids := testPipelines()
	src := &fakeSource{}
	cfg := DefaultConfig(Config{
		SampleInterval:    10 * time.Millisecond,
		DetectionInterval: 30 * time.Millisecond,
		SnapshotFrames:    1,
	})
	w := NewWorker("rtsp://example/test", KindRTSP, src, img, vids, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	time.Sleep(150 * time.Millisecond)
	status := w.Status()
	if status.Status != StatusRunning {
		t.Fatalf("status = %v; want running", status.Status)
	}
	if status.Counters.FramesReceived == 0 {
		t.Fatal("expected at least one frame received")
	}

	results := w.Results(0, time.Time{})
	if len(results) == 0 {
		t.Fatal("expected at least one detection result")
	}
	if results[0].Image == nil {
		t.Fatal("expected an image verdict for SnapshotFrames=1")
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if got := w.Status().Status; got != StatusStopped {
		t.Fatalf("status after Stop = %v; want stopped", got)
	}
}

func TestWorker_DoubleStopReturnsConflict(t *testing.T) {
	img, vids := testPipelines()
	src := &fakeSource{}
	w := NewWorker("rtsp://example/test", KindRTSP, src, img, vids, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	time.Sleep(20 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop() error: %v", err)
	}
	if err := w.Stop(); err == nil {
		t.Fatal("expected second Stop() to report a conflict")
	}
}

func TestWorker_ReconnectBacksOffAndCountsErrors(t *testing.T) {
	img, vids := testPipelines()
	cfg := DefaultConfig(Config{
		ReconnectBackoffBase: 5 * time.Millisecond,
		ReconnectBackoffCap:  20 * time.Millisecond,
		MaxConsecutiveErrors: 3,
	})
	w := NewWorker("rtsp://example/bad", KindRTSP, failingSource{}, img, vids, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.Status().Status == StatusError {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	status := w.Status()
	if status.Status != StatusError {
		t.Fatalf("status = %v; want error after exceeding max_consecutive_errors", status.Status)
	}
	if status.Counters.ReconnectCount == 0 {
		t.Fatal("expected reconnect_count to increment")
	}
}

func TestRing_OverwritesOldestOnOverflow(t *testing.T) {
	r := newRing[int](3)
	r.push(1)
	r.push(2)
	r.push(3)
	r.push(4)
	got := r.snapshot()
	want := []int{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("snapshot = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot = %v; want %v", got, want)
		}
	}
}

func TestRing_LastReturnsMostRecentN(t *testing.T) {
	r := newRing[int](5)
	for i := 1; i <= 5; i++ {
		r.push(i)
	}
	got := r.last(2)
	if len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("last(2) = %v; want [4 5]", got)
	}
}

func TestBackoffDelay_GrowsAndCaps(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := 10 * time.Millisecond
	capDur := 100 * time.Millisecond

	d0 := backoffDelay(0, base, capDur, rng)
	if d0 <= 0 {
		t.Fatal("expected a positive delay at attempt 0")
	}

	d5 := backoffDelay(5, base, capDur, rng)
	if d5 > capDur+capDur/4+time.Millisecond {
		t.Fatalf("backoffDelay(5) = %v; want <= cap plus jitter (%v)", d5, capDur)
	}
}
