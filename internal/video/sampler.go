package video

import (
	"time"

	"github.com/rendiffdev/frameguard/internal/frame"
)

// Strategy selects which decoded frames become sampled frames.
type Strategy string

const (
	StrategyInterval Strategy = "interval"
	StrategyScene    Strategy = "scene"
	StrategyHybrid   Strategy = "hybrid"
)

const histBins = 4 // 4x4x4 coarse HSV histogram for cut detection

// Sampler decides, frame by frame, whether a decoded frame should be kept
// for detection. It is deterministic given the same input stream and
// parameters: the same (timestamp, pixels) sequence always yields the same
// sampled set.
type Sampler struct {
	strategy    Strategy
	intervalS   float64
	maxFrames   int
	sceneThresh float64

	sampledCount int
	haveSampled  bool
	lastSampleTS time.Duration
	prevHist     [histBins * histBins * histBins]float64
}

// NewSampler builds a Sampler. sceneThreshold gates the coarse
// histogram-distance used to force a sample at a detected cut; 0 uses a
// sane default.
func NewSampler(strategy Strategy, intervalSeconds float64, maxFrames int, sceneThreshold float64) *Sampler {
	if sceneThreshold <= 0 {
		sceneThreshold = 0.35
	}
	return &Sampler{strategy: strategy, intervalS: intervalSeconds, maxFrames: maxFrames, sceneThresh: sceneThreshold}
}

// Full reports whether the sampler has already reached max_frames.
func (s *Sampler) Full() bool {
	return s.maxFrames > 0 && s.sampledCount >= s.maxFrames
}

// Decide reports whether f should be sampled, and updates internal state if
// so. force samples f regardless of the strategy's own gating. The first
// frame is always sampled because nothing has been sampled yet; the video
// pipeline passes force=false and appends the last frame itself.
func (s *Sampler) Decide(f *frame.Frame, force bool) bool {
	if s.Full() {
		return false
	}

	intervalDue := !s.haveSampled || f.Timestamp-s.lastSampleTS >= durationFromSeconds(s.intervalS)
	sceneCut := false
	if s.strategy == StrategyScene || s.strategy == StrategyHybrid {
		sceneCut = s.isSceneCut(f)
	}

	sample := force || intervalDue
	if s.strategy == StrategyScene || s.strategy == StrategyHybrid {
		sample = sample || sceneCut
	}
	if !sample {
		return false
	}

	s.sampledCount++
	s.haveSampled = true
	s.lastSampleTS = f.Timestamp
	s.updateHist(f)
	return true
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// isSceneCut computes a coarse HSV histogram for f (on a decimated preview)
// and compares it against the previously sampled frame's histogram via L1
// distance, normalized to [0,1].
func (s *Sampler) isSceneCut(f *frame.Frame) bool {
	hist := coarseHSVHistogram(f)
	if !s.haveSampled {
		return false
	}
	var dist float64
	for i := range hist {
		d := hist[i] - s.prevHist[i]
		if d < 0 {
			d = -d
		}
		dist += d
	}
	return dist/2 > s.sceneThresh // L1 distance between two normalized histograms is in [0,2]
}

func (s *Sampler) updateHist(f *frame.Frame) {
	s.prevHist = coarseHSVHistogram(f)
}

// coarseHSVHistogram builds a normalized histBins^3 histogram over a
// decimated preview (every 4th pixel in each axis) to keep the per-frame
// cost of cut detection small.
func coarseHSVHistogram(f *frame.Frame) [histBins * histBins * histBins]float64 {
	var hist [histBins * histBins * histBins]float64
	if f.Channels < 3 {
		return hist
	}

	const stride = 4
	var count float64
	for y := 0; y < f.Height; y += stride {
		for x := 0; x < f.Width; x += stride {
			h, sVal, v := f.HSV(x, y)
			hb := int(h / 360 * float64(histBins))
			if hb >= histBins {
				hb = histBins - 1
			}
			sb := int(sVal * float64(histBins))
			if sb >= histBins {
				sb = histBins - 1
			}
			if sb == 0 {
				hb = 0 // hue is meaningless for unsaturated (near-gray) pixels
			}
			vb := int(v * float64(histBins))
			if vb >= histBins {
				vb = histBins - 1
			}
			hist[hb*histBins*histBins+sb*histBins+vb]++
			count++
		}
	}
	if count == 0 {
		return hist
	}
	for i := range hist {
		hist[i] /= count
	}
	return hist
}
