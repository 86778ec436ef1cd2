package video

import (
	"testing"
	"time"

	"github.com/rendiffdev/frameguard/internal/frame"
)

func solidFrame(w, h int, b, g, r byte, ts time.Duration) *frame.Frame {
	pixels := make([]byte, w*h*3)
	for i := 0; i < len(pixels); i += 3 {
		pixels[i] = b
		pixels[i+1] = g
		pixels[i+2] = r
	}
	return frame.New(w, h, 3, pixels, ts)
}

func TestSampler_IntervalRespectsMaxFrames(t *testing.T) {
	s := NewSampler(StrategyInterval, 1.0, 2, 0)
	sampled := 0
	for i := 0; i < 10; i++ {
		ts := time.Duration(i) * time.Second
		if s.Decide(solidFrame(8, 8, 100, 100, 100, ts), false) {
			sampled++
		}
	}
	if sampled != 2 {
		t.Errorf("sampled %d frames; want 2 (max_frames cap)", sampled)
	}
}

func TestSampler_AlwaysSamplesFirstFrame(t *testing.T) {
	s := NewSampler(StrategyInterval, 100.0, 10, 0)
	if !s.Decide(solidFrame(8, 8, 0, 0, 0, 0), false) {
		t.Error("expected the first frame to always be sampled")
	}
}

func TestSampler_SceneStrategyForcesSampleOnCut(t *testing.T) {
	s := NewSampler(StrategyScene, 1000.0, 10, 0.1)
	// First frame: black, always sampled.
	if !s.Decide(solidFrame(16, 16, 0, 0, 0, 0), false) {
		t.Fatal("expected first frame sampled")
	}
	// A drastically different frame shortly after should be forced as a cut
	// even though the interval (1000s) has not elapsed.
	cut := s.Decide(solidFrame(16, 16, 255, 255, 255, 10*time.Millisecond), false)
	if !cut {
		t.Error("expected a scene-change cut to force a sample despite the long interval")
	}
}

func TestSampler_IntervalStrategyIgnoresCuts(t *testing.T) {
	s := NewSampler(StrategyInterval, 1000.0, 10, 0.1)
	s.Decide(solidFrame(16, 16, 0, 0, 0, 0), false)
	if s.Decide(solidFrame(16, 16, 255, 255, 255, 10*time.Millisecond), false) {
		t.Error("pure interval strategy should not react to scene cuts")
	}
}
