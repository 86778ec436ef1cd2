package stream

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rendiffdev/frameguard/internal/circuitbreaker"
	"github.com/rendiffdev/frameguard/internal/frame"
	"github.com/rendiffdev/frameguard/internal/metrics"
	"github.com/rendiffdev/frameguard/internal/pipeline"
	"github.com/rendiffdev/frameguard/internal/video"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// Source is a live frame provider a Worker connects to: Open dials the
// stream, Next reads the next decoded frame from an already-open
// connection. Close releases it. Implementations are not required to be
// safe for concurrent use; the worker calls them from one goroutine.
type Source interface {
	Open(ctx context.Context) error
	Next(ctx context.Context) (*frame.Frame, error)
	Close() error
}

// Worker runs one live stream's connect/sample/detect/report/stop loop.
// All exported methods are safe for concurrent callers; the internal loop
// is single-threaded with one cooperating reader, per the concurrency
// model's suspension-point rules.
type Worker struct {
	id     string
	url    string
	kind   Kind
	cfg    Config
	source Source
	image  *pipeline.Pipeline
	vids   *video.Pipeline
	cb     *circuitbreaker.Breaker

	mu          sync.RWMutex
	status      Status
	counters    Counters
	consecutive int
	fps         float64
	lastDet     time.Time
	lastErr     string

	frames  *ring[frameSample]
	results *ring[Result]

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

type frameSample struct {
	frame *frame.Frame
	ts    time.Duration
}

// NewWorker builds a Worker for url/kind, bound to source and the shared
// image/video pipelines. Call Start to begin its connect loop.
func NewWorker(url string, kind Kind, source Source, image *pipeline.Pipeline, vids *video.Pipeline, cfg Config) *Worker {
	cfg = DefaultConfig(cfg)
	w := &Worker{
		id:     newStreamID(),
		url:    url,
		kind:   kind,
		cfg:    cfg,
		source: source,
		image:  image,
		vids:   vids,
		status: StatusStarting,
		frames: newRing[frameSample](cfg.FrameRingSize),
		results: newRing[Result](cfg.ResultRingSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	w.cb = circuitbreaker.New(circuitbreaker.Settings{
		Name:     w.id,
		Timeout:  cfg.ReconnectBackoffCap,
		Interval: time.Minute,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(cfg.MaxConsecutiveErrors)
		},
	})
	return w
}

// ID returns the stream's assigned identifier.
func (w *Worker) ID() string { return w.id }

// Start launches the worker's loop in a new goroutine and returns
// immediately; the loop runs until Stop is called or a terminal error is
// reached.
func (w *Worker) Start(ctx context.Context) {
	metrics.StreamsActive.Inc()
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)
	defer metrics.StreamsActive.Dec()
	defer w.source.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	attempt := 0
	detectTicker := time.NewTicker(w.cfg.DetectionInterval)
	defer detectTicker.Stop()

	frameCount := 0
	fpsWindowStart := time.Now()

	for {
		select {
		case <-w.stopCh:
			w.setStatus(StatusStopping)
			w.drain()
			w.setStatus(StatusStopped)
			return
		case <-ctx.Done():
			w.setStatus(StatusStopped)
			return
		default:
		}

		err := w.cb.Execute(func() error { return w.source.Open(ctx) })
		if err != nil {
			w.recordConnError(err)
			delay := backoffDelay(attempt, w.cfg.ReconnectBackoffBase, w.cfg.ReconnectBackoffCap, rng)
			attempt++
			if w.consecutiveFailures() >= w.cfg.MaxConsecutiveErrors {
				w.setStatus(StatusError)
				return
			}
			w.setStatus(StatusDegraded)
			if !w.sleep(ctx, delay) {
				return
			}
			continue
		}
		attempt = 0
		w.resetConsecutiveFailures()
		w.setStatus(StatusRunning)

		sampleTicker := time.NewTicker(w.cfg.SampleInterval)
	readLoop:
		for {
			select {
			case <-w.stopCh:
				sampleTicker.Stop()
				w.setStatus(StatusStopping)
				w.drain()
				w.setStatus(StatusStopped)
				return
			case <-ctx.Done():
				sampleTicker.Stop()
				w.setStatus(StatusStopped)
				return
			case <-sampleTicker.C:
				f, ferr := w.source.Next(ctx)
				if ferr != nil {
					w.recordConnError(ferr)
					break readLoop
				}
				w.mu.Lock()
				w.counters.FramesReceived++
				w.mu.Unlock()
				w.frames.push(frameSample{frame: f, ts: f.Timestamp})
				frameCount++
				if elapsed := time.Since(fpsWindowStart).Seconds(); elapsed >= 1 {
					w.updateFPS(float64(frameCount) / elapsed)
					frameCount = 0
					fpsWindowStart = time.Now()
				}
			case <-detectTicker.C:
				w.runDetection(ctx)
			}
		}
		sampleTicker.Stop()
	}
}

// updateFPS folds sample into an exponential moving average, alpha=0.3
// weighting recent samples without letting a single slow tick dominate.
func (w *Worker) updateFPS(sample float64) {
	const alpha = 0.3
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fps == 0 {
		w.fps = sample
		return
	}
	w.fps = alpha*sample + (1-alpha)*w.fps
}

func (w *Worker) recordConnError(err error) {
	w.mu.Lock()
	w.counters.ConnectionErrors++
	w.counters.ReconnectCount++
	w.consecutive++
	w.lastErr = err.Error()
	w.mu.Unlock()
	metrics.StreamReconnectsTotal.WithLabelValues(w.id).Inc()
}

// consecutiveFailures is tracked on the Worker directly rather than read
// off the circuit breaker's Counts, since a trip to Open resets the
// breaker's own generation (and its counts with it) the moment
// max_consecutive_errors is reached, not after.
func (w *Worker) consecutiveFailures() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.consecutive
}

func (w *Worker) resetConsecutiveFailures() {
	w.mu.Lock()
	w.consecutive = 0
	w.mu.Unlock()
}

func (w *Worker) setStatus(s Status) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

// sleep waits for d or returns false early if stop/ctx fires.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-w.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// runDetection snapshots the K most recent frames and runs the image or
// video pipeline on them, appending the outcome to the results ring.
func (w *Worker) runDetection(ctx context.Context) {
	samples := w.frames.last(w.cfg.SnapshotFrames)
	if len(samples) == 0 {
		return
	}

	result := Result{Timestamp: time.Now(), FrameTS: samples[len(samples)-1].ts}

	if w.cfg.SnapshotFrames <= 1 || w.vids == nil {
		verdict, err := w.image.Run(ctx, samples[len(samples)-1].frame, w.cfg.DetectConfig, w.cfg.Allowlist)
		if err != nil {
			w.mu.Lock()
			w.lastErr = err.Error()
			w.mu.Unlock()
			return
		}
		result.Image = verdict
	} else {
		videoSamples := make([]video.FrameSample, len(samples))
		for i, s := range samples {
			videoSamples[i] = video.FrameSample{Frame: s.frame, Timestamp: s.ts}
		}
		verdict, err := w.vids.RunSnapshot(ctx, videoSamples, w.cfg.DetectConfig, w.cfg.Allowlist)
		if err != nil {
			w.mu.Lock()
			w.lastErr = err.Error()
			w.mu.Unlock()
			return
		}
		result.Video = verdict
	}

	w.results.push(result)
	w.mu.Lock()
	w.counters.FramesDetected += int64(len(samples))
	w.lastDet = result.Timestamp
	w.mu.Unlock()
	metrics.StreamFramesTotal.WithLabelValues(w.id).Add(float64(len(samples)))
}

// drain runs one final detection over whatever frames remain, honoring
// grace_seconds before the loop forcibly returns.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(w.cfg.GraceSeconds*float64(time.Second)))
	defer cancel()
	w.runDetection(ctx)
}

// Status returns a point-in-time snapshot of the worker's identity,
// lifecycle state, and counters.
func (w *Worker) Status() Descriptor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Descriptor{
		StreamID:          w.id,
		URL:               w.url,
		Kind:              w.kind,
		SampleInterval:    w.cfg.SampleInterval.Seconds(),
		DetectionInterval: w.cfg.DetectionInterval.Seconds(),
		Status:            w.status,
		Counters:          w.counters,
		FPS:               w.fps,
		LastDetectionTime: w.lastDet,
		LastError:         w.lastErr,
	}
}

// Results returns up to limit results newer than sinceTS (zero time means
// no lower bound), oldest first within the returned window.
func (w *Worker) Results(limit int, sinceTS time.Time) []Result {
	all := w.results.snapshot()
	var filtered []Result
	for _, r := range all {
		if !sinceTS.IsZero() && !r.Timestamp.After(sinceTS) {
			continue
		}
		filtered = append(filtered, r)
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered
}

// Stop requests the worker transition stopping -> stopped, draining for up
// to grace_seconds. It blocks until the worker's loop has exited.
func (w *Worker) Stop() error {
	w.mu.RLock()
	alreadyStopped := w.status == StatusStopped || w.status == StatusStopping
	w.mu.RUnlock()
	if alreadyStopped {
		return xerrors.Conflict("stream.Stop", "stream is already stopping or stopped")
	}

	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
	return nil
}
