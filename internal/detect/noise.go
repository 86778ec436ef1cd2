package detect

import "github.com/rendiffdev/frameguard/internal/frame"

// NoiseDescriptor describes the noise detector.
var NoiseDescriptor = DetectorDescriptor{
	Name:        "noise",
	DisplayName: "Noise",
	IssueType:   "noise",
	Levels:      []Level{LevelStandard, LevelDeep},
	Priority:    50,
	Suppresses:  nil,
}

type noiseDetector struct {
	cfg       Config
	threshold float64
}

// NewNoiseDetector builds a noise detector bound to cfg. Score is the mean
// absolute residual between the image and its 3x3 median-filtered version;
// at the deep level it is blended with a Laplacian-based noise estimate
// that catches high-frequency noise the median residual alone understates.
func NewNoiseDetector(cfg Config) (Detector, error) {
	return &noiseDetector{
		cfg:       cfg,
		threshold: cfg.Threshold("noise", "threshold", 6.0),
	}, nil
}

func (d *noiseDetector) Descriptor() DetectorDescriptor { return NoiseDescriptor }

func (d *noiseDetector) Detect(f *frame.Frame) (Finding, error) {
	gray := f.Gray()
	filtered := medianFilter3x3(gray.Pixels, gray.Width, gray.Height)

	var sum float64
	for i := range gray.Pixels {
		diff := int(gray.Pixels[i]) - int(filtered[i])
		if diff < 0 {
			diff = -diff
		}
		sum += float64(diff)
	}
	residual := sum / float64(len(gray.Pixels))

	score := residual
	if d.cfg.Level == LevelDeep {
		lapVar := laplacianVariance(gray.Pixels, gray.Width, gray.Height)
		// A high-frequency noise estimate derived from the Laplacian
		// energy normalized to the same rough scale as the median
		// residual.
		laplacianNoise := lapVar / 40
		score = 0.7*residual + 0.3*laplacianNoise
	}

	isAbnormal := score > d.threshold

	finding := Finding{
		Detector:   NoiseDescriptor.Name,
		IssueType:  NoiseDescriptor.IssueType,
		IsAbnormal: isAbnormal,
		Score:      score,
		Threshold:  d.threshold,
		Confidence: logistic(score-d.threshold, d.threshold*0.5),
		Evidence: map[string]interface{}{
			"median_residual": residual,
		},
	}

	if isAbnormal {
		finding.Severity = SeverityWarning
		finding.Explanation = "elevated sensor noise detected"
		finding.Causes = []string{"high ISO/gain", "low-light sensor noise", "transmission/compression artifacts"}
		finding.Suggestions = []string{"lower gain or ISO", "improve lighting", "apply noise reduction"}
	} else {
		finding.Severity = SeverityNormal
		finding.Explanation = "noise level within expected range"
	}
	return finding, nil
}
