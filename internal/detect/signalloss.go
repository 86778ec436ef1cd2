package detect

import "github.com/rendiffdev/frameguard/internal/frame"

// SignalLossDescriptor describes the signal-loss detector.
var SignalLossDescriptor = DetectorDescriptor{
	Name:        "signal_loss",
	DisplayName: "Signal loss",
	IssueType:   "signal_loss",
	Levels:      []Level{LevelFast, LevelStandard, LevelDeep},
	Priority:    1, // highest priority: a blank/solid frame dominates any other finding
	Suppresses:  []string{"blur", "brightness", "contrast", "color", "noise", "stripe", "occlusion"},
}

// whiteScreenMean is the overall mean that a uniform frame must exceed to
// count as a "blown out white" signal loss: a solid frame brighter than this
// is indistinguishable from a saturated sensor rather than a merely overexposed scene, which brightness
// already classifies as over_bright.
const whiteScreenMean = 253.0

type signalLossDetector struct {
	uniformityThreshold float64
}

// NewSignalLossDetector builds a signal-loss detector bound to cfg.
// Uniformity = 1 - normalized color variance across the frame. A frame is
// reported as signal loss only when its uniformity exceeds the threshold
// and its overall mean is below 20 (black_screen) or above whiteScreenMean
// (white_screen). A uniform frame of any other color is not reported by
// this detector; one that is merely bright (short of whiteScreenMean) is
// left to the brightness detector.
func NewSignalLossDetector(cfg Config) (Detector, error) {
	return &signalLossDetector{
		uniformityThreshold: cfg.Threshold("signal_loss", "uniformity_threshold", 0.98),
	}, nil
}

func (d *signalLossDetector) Descriptor() DetectorDescriptor { return SignalLossDescriptor }

func (d *signalLossDetector) Detect(f *frame.Frame) (Finding, error) {
	channels := f.Channels
	if channels < 1 {
		channels = 1
	}

	sums := make([]float64, channels)
	n := f.Width * f.Height
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			px := f.At(x, y)
			for c := 0; c < channels; c++ {
				sums[c] += float64(px[c])
			}
		}
	}
	means := make([]float64, channels)
	for c := range sums {
		means[c] = sums[c] / float64(n)
	}

	var varSum float64
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			px := f.At(x, y)
			for c := 0; c < channels; c++ {
				d := float64(px[c]) - means[c]
				varSum += d * d
			}
		}
	}
	variance := varSum / float64(n*channels)
	normalizedVariance := variance / (127.5 * 127.5) // normalize against the max possible variance for [0,255]
	if normalizedVariance > 1 {
		normalizedVariance = 1
	}
	uniformity := 1 - normalizedVariance

	overallMean := 0.0
	for _, m := range means {
		overallMean += m
	}
	overallMean /= float64(channels)

	// A uniform frame that is merely overexposed (bright but short of
	// flat white) is brightness's issue, not signal loss: only a
	// degenerate black or fully blown-out white frame indicates the
	// signal itself is gone rather than just poorly exposed.
	isAbnormal := uniformity > d.uniformityThreshold && (overallMean < 20 || overallMean > whiteScreenMean)

	finding := Finding{
		Detector:   SignalLossDescriptor.Name,
		IssueType:  SignalLossDescriptor.IssueType,
		IsAbnormal: isAbnormal,
		Score:      uniformity,
		Threshold:  d.uniformityThreshold,
		Confidence: logistic(uniformity-d.uniformityThreshold, 0.02),
		Evidence: map[string]interface{}{
			"uniformity":   uniformity,
			"channel_mean": means,
		},
	}

	switch {
	case isAbnormal && overallMean < 20:
		finding.IssueType = "black_screen"
		finding.Severity = SeverityError
		finding.Explanation = "solid black frame detected; signal appears lost"
		finding.Causes = []string{"camera disconnected", "signal interruption", "lens cap covering sensor"}
		finding.Suggestions = []string{"verify camera connection and power", "check cabling"}
	case isAbnormal && overallMean > whiteScreenMean:
		finding.IssueType = "white_screen"
		finding.Severity = SeverityError
		finding.Explanation = "solid white frame detected; possible sensor failure or severe glare"
		finding.Causes = []string{"sensor saturation", "extreme glare", "hardware failure"}
		finding.Suggestions = []string{"check for direct light source on sensor", "inspect hardware"}
	case isAbnormal:
		finding.IssueType = "solid_color"
		finding.Severity = SeverityError
		finding.Explanation = "solid color frame detected; signal appears lost or replaced with a test pattern"
		finding.Causes = []string{"upstream signal failure", "test pattern injection"}
		finding.Suggestions = []string{"verify upstream source is live"}
	default:
		finding.Severity = SeverityNormal
		finding.Explanation = "no signal loss detected"
	}
	return finding, nil
}
