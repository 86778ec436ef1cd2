package stream

import (
	"context"
	"sync"
	"time"

	"github.com/rendiffdev/frameguard/internal/pipeline"
	"github.com/rendiffdev/frameguard/internal/video"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// Manager owns every live stream worker, keyed by stream_id. It is the
// in-process equivalent of the startStream/stopStream/getStreamStatus/
// getStreamResults operations the external interface exposes.
type Manager struct {
	image *pipeline.Pipeline
	vids  *video.Pipeline

	mu      sync.RWMutex
	workers map[string]*Worker
}

// NewManager builds a Manager sharing the given image/video pipelines
// across every stream it starts.
func NewManager(image *pipeline.Pipeline, vids *video.Pipeline) *Manager {
	return &Manager{image: image, vids: vids, workers: make(map[string]*Worker)}
}

// Start opens a new stream worker over source and begins its loop,
// returning its assigned descriptor.
func (m *Manager) Start(ctx context.Context, url string, kind Kind, source Source, cfg Config) Descriptor {
	w := NewWorker(url, kind, source, m.image, m.vids, cfg)
	m.mu.Lock()
	m.workers[w.ID()] = w
	m.mu.Unlock()
	w.Start(ctx)
	return w.Status()
}

func (m *Manager) get(streamID string) (*Worker, error) {
	m.mu.RLock()
	w, ok := m.workers[streamID]
	m.mu.RUnlock()
	if !ok {
		return nil, xerrors.NotFound("stream.Manager", "unknown stream_id "+streamID)
	}
	return w, nil
}

// Status returns a live stream's current descriptor.
func (m *Manager) Status(streamID string) (Descriptor, error) {
	w, err := m.get(streamID)
	if err != nil {
		return Descriptor{}, err
	}
	return w.Status(), nil
}

// Results returns up to limit results for streamID newer than sinceTS.
func (m *Manager) Results(streamID string, limit int, sinceTS time.Time) ([]Result, error) {
	w, err := m.get(streamID)
	if err != nil {
		return nil, err
	}
	return w.Results(limit, sinceTS), nil
}

// Stop gracefully stops streamID and removes it from the manager.
func (m *Manager) Stop(streamID string) error {
	w, err := m.get(streamID)
	if err != nil {
		return err
	}
	if err := w.Stop(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.workers, streamID)
	m.mu.Unlock()
	return nil
}

// List returns every currently tracked stream's descriptor.
func (m *Manager) List() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Descriptor, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, w.Status())
	}
	return out
}
