package video

import (
	"math"

	"github.com/rendiffdev/frameguard/internal/detect"
	"github.com/rendiffdev/frameguard/internal/frame"
)

// ShakeParams bounds the shake detector's decision.
type ShakeParams struct {
	MagnitudeThreshold float64 // per-pair flow magnitude considered "moving"
	Window             int     // W: sliding window length in sampled pairs
	MinFlagged         int     // K: frames within the window that must exceed the threshold
}

// DefaultShakeParams returns the spec's default thresholds.
func DefaultShakeParams() ShakeParams {
	return ShakeParams{MagnitudeThreshold: 6.0, Window: 5, MinFlagged: 3}
}

// detectShake approximates optical-flow magnitude between adjacent samples
// via projection-profile cross-correlation (the best horizontal/vertical
// shift that maximizes alignment of row-sum/column-sum intensity profiles),
// a cheap stand-in for full optical flow with no matrix/vision library in
// the pack to compute it properly. A sliding window of Window pairs flags
// shake when at least MinFlagged of them exceed MagnitudeThreshold.
func detectShake(frames []sampledFrame, params ShakeParams) VideoFinding {
	if len(frames) < 2 {
		return VideoFinding{IssueType: "shake", Severity: detect.SeverityNormal, Explanation: "not enough samples to estimate motion"}
	}

	magnitudes := make([]float64, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		magnitudes[i-1] = flowMagnitude(frames[i-1].frame.Gray(), frames[i].frame.Gray())
	}

	flagged := make([]bool, len(magnitudes))
	for start := 0; start+params.Window <= len(magnitudes); start++ {
		count := 0
		for i := start; i < start+params.Window; i++ {
			if magnitudes[i] > params.MagnitudeThreshold {
				count++
			}
		}
		if count >= params.MinFlagged {
			for i := start; i < start+params.Window; i++ {
				flagged[i] = true
			}
		}
	}

	var segments []Segment
	segActive := false
	var segStart int
	for i, isShaky := range flagged {
		// magnitudes[i] describes the pair (frames[i], frames[i+1]), so a run
		// that stops before pair i ends with pair i-1, at frames[i].
		if isShaky && !segActive {
			segActive = true
			segStart = i
		} else if !isShaky && segActive {
			segments = append(segments, Segment{
				StartTime:  frames[segStart].timestamp,
				EndTime:    frames[i].timestamp,
				StartFrame: frames[segStart].index,
				EndFrame:   frames[i].index,
			})
			segActive = false
		}
	}
	if segActive {
		last := len(flagged)
		segments = append(segments, Segment{
			StartTime:  frames[segStart].timestamp,
			EndTime:    frames[last].timestamp,
			StartFrame: frames[segStart].index,
			EndFrame:   frames[last].index,
		})
	}

	severity := detect.SeverityNormal
	explanation := "no sustained shake detected"
	if len(segments) > 0 {
		severity = detect.SeverityWarning
		explanation = "sustained frame-to-frame motion consistent with camera shake"
	}

	return VideoFinding{
		IssueType:   "shake",
		Severity:    severity,
		Segments:    segments,
		Explanation: explanation,
		Summary:     map[string]interface{}{"segment_count": len(segments)},
	}
}

// flowMagnitude estimates global translational motion between two
// grayscale frames by finding the (dx, dy) shift within a small search
// window that minimizes the sum of absolute differences between their
// row-sum and column-sum intensity projections.
func flowMagnitude(a, b *frame.Frame) float64 {
	const searchRange = 12
	rowA, colA := projections(a)
	rowB, colB := projections(b)

	bestDX, bestDY := 0, 0
	bestCost := math.Inf(1)
	for dy := -searchRange; dy <= searchRange; dy++ {
		cost := shiftedSAD(rowA, rowB, dy)
		if cost < bestCost {
			bestCost, bestDY = cost, dy
		}
	}
	bestCost = math.Inf(1)
	for dx := -searchRange; dx <= searchRange; dx++ {
		cost := shiftedSAD(colA, colB, dx)
		if cost < bestCost {
			bestCost, bestDX = cost, dx
		}
	}
	return math.Hypot(float64(bestDX), float64(bestDY))
}

// projections returns the row-sum and column-sum intensity profiles of a
// grayscale frame.
func projections(f *frame.Frame) (rows []float64, cols []float64) {
	rows = make([]float64, f.Height)
	cols = make([]float64, f.Width)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			v := float64(f.At(x, y)[0])
			rows[y] += v
			cols[x] += v
		}
	}
	return rows, cols
}

// shiftedSAD sums |a[i] - b[i+shift]| over the overlapping range.
func shiftedSAD(a, b []float64, shift int) float64 {
	var sum float64
	var count int
	for i := range a {
		j := i + shift
		if j < 0 || j >= len(b) {
			continue
		}
		d := a[i] - b[j]
		if d < 0 {
			d = -d
		}
		sum += d
		count++
	}
	if count == 0 {
		return math.Inf(1)
	}
	return sum / float64(count)
}
