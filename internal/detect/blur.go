package detect

import "github.com/rendiffdev/frameguard/internal/frame"

// BlurDescriptor describes the blur detector.
var BlurDescriptor = DetectorDescriptor{
	Name:        "blur",
	DisplayName: "Blur",
	IssueType:   "blur",
	Levels:      []Level{LevelFast, LevelStandard, LevelDeep},
	Priority:    10,
	Suppresses:  []string{"noise"},
}

type blurDetector struct {
	cfg       Config
	threshold float64
}

// NewBlurDetector builds a blur detector bound to cfg. Score is normalized
// Laplacian variance; at the deep level it is blended with Sobel and
// Brenner gradient measures for robustness against motion blur that the
// Laplacian alone under-detects.
func NewBlurDetector(cfg Config) (Detector, error) {
	return &blurDetector{
		cfg:       cfg,
		threshold: cfg.Threshold("blur", "threshold", 100.0),
	}, nil
}

func (d *blurDetector) Descriptor() DetectorDescriptor { return BlurDescriptor }

func (d *blurDetector) Detect(f *frame.Frame) (Finding, error) {
	gray := f.Gray()
	if d.cfg.Level == LevelFast {
		gray = gray.Resize(480)
	}

	lapVar := laplacianVariance(gray.Pixels, gray.Width, gray.Height)
	score := lapVar
	if d.cfg.Level == LevelDeep {
		sobel := sobelMeanGradient(gray.Pixels, gray.Width, gray.Height)
		brenner := brennerGradient(gray.Pixels, gray.Width, gray.Height)
		// Blend three focus measures; weights favor the Laplacian, the
		// most standard of the three, while Sobel/Brenner correct cases
		// where it alone under- or over-estimates sharpness.
		score = 0.6*score + 0.25*sobel*sobel + 0.15*brenner
	}

	isAbnormal := score < d.threshold
	confidence := logistic(d.threshold-score, d.threshold*0.5)

	finding := Finding{
		Detector:   BlurDescriptor.Name,
		IssueType:  BlurDescriptor.IssueType,
		IsAbnormal: isAbnormal,
		Score:      score,
		Threshold:  d.threshold,
		Confidence: confidence,
		Evidence: map[string]interface{}{
			"laplacian_variance": lapVar,
		},
	}

	if isAbnormal {
		finding.Severity = SeverityWarning
		finding.Explanation = "image sharpness below threshold; focus is soft"
		finding.Causes = []string{"out-of-focus lens", "motion blur", "low-pass compression artifacts"}
		finding.Suggestions = []string{"refocus the camera", "check for camera or subject motion", "reduce compression"}
	} else {
		finding.Severity = SeverityNormal
		finding.Explanation = "sharpness within expected range"
	}
	return finding, nil
}
