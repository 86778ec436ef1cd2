package detect

import "github.com/rendiffdev/frameguard/internal/frame"

// ContrastDescriptor describes the contrast detector.
var ContrastDescriptor = DetectorDescriptor{
	Name:        "contrast",
	DisplayName: "Contrast",
	IssueType:   "contrast",
	Levels:      []Level{LevelStandard, LevelDeep},
	Priority:    30,
	Suppresses:  nil,
}

type contrastDetector struct {
	threshold float64
}

// NewContrastDetector builds a contrast detector bound to cfg. Score
// combines the standard deviation of luminance with the dynamic range
// (max-min); abnormal when score falls below threshold.
func NewContrastDetector(cfg Config) (Detector, error) {
	return &contrastDetector{
		threshold: cfg.Threshold("contrast", "threshold", 35.0),
	}, nil
}

func (d *contrastDetector) Descriptor() DetectorDescriptor { return ContrastDescriptor }

func (d *contrastDetector) Detect(f *frame.Frame) (Finding, error) {
	gray := f.Gray()
	m := mean(gray.Pixels)
	sd := stddev(gray.Pixels, m)

	var lo, hi byte = 255, 0
	for _, v := range gray.Pixels {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	dynamicRange := float64(hi) - float64(lo)

	// Weight stddev more heavily than raw dynamic range, which is easily
	// inflated by a handful of outlier pixels.
	score := 0.7*sd + 0.3*dynamicRange/2
	isAbnormal := score < d.threshold

	finding := Finding{
		Detector:   ContrastDescriptor.Name,
		IssueType:  ContrastDescriptor.IssueType,
		IsAbnormal: isAbnormal,
		Score:      score,
		Threshold:  d.threshold,
		Confidence: logistic(d.threshold-score, d.threshold*0.5),
		Evidence: map[string]interface{}{
			"stddev":        sd,
			"dynamic_range": dynamicRange,
		},
	}

	if isAbnormal {
		finding.Severity = SeverityWarning
		finding.Explanation = "low contrast; image appears flat"
		finding.Causes = []string{"fog or haze", "lens fogging", "poor lighting uniformity", "sensor gain too low"}
		finding.Suggestions = []string{"check lens for fogging or condensation", "adjust gain or apply contrast enhancement"}
	} else {
		finding.Severity = SeverityNormal
		finding.Explanation = "contrast within expected range"
	}
	return finding, nil
}
