package detect

import "github.com/rendiffdev/frameguard/internal/frame"

// BrightnessDescriptor describes the brightness detector.
var BrightnessDescriptor = DetectorDescriptor{
	Name:        "brightness",
	DisplayName: "Brightness",
	IssueType:   "brightness",
	Levels:      []Level{LevelFast, LevelStandard, LevelDeep},
	Priority:    20,
	Suppresses:  nil,
}

type brightnessDetector struct {
	min, max float64
}

// NewBrightnessDetector builds a brightness detector bound to cfg. Score is
// mean luminance in [0,255]; abnormal below min or above max.
func NewBrightnessDetector(cfg Config) (Detector, error) {
	return &brightnessDetector{
		min: cfg.Threshold("brightness", "min", 40.0),
		max: cfg.Threshold("brightness", "max", 220.0),
	}, nil
}

func (d *brightnessDetector) Descriptor() DetectorDescriptor { return BrightnessDescriptor }

func (d *brightnessDetector) Detect(f *frame.Frame) (Finding, error) {
	gray := f.Gray()
	score := mean(gray.Pixels)

	underBright := score < d.min
	overBright := score > d.max
	isAbnormal := underBright || overBright

	var distance, threshold float64
	switch {
	case underBright:
		distance, threshold = d.min-score, d.min
	case overBright:
		distance, threshold = score-d.max, d.max
	default:
		threshold = d.max
	}

	finding := Finding{
		Detector:   BrightnessDescriptor.Name,
		IssueType:  BrightnessDescriptor.IssueType,
		IsAbnormal: isAbnormal,
		Score:      score,
		Threshold:  threshold,
		Confidence: logistic(distance, 20),
		Evidence: map[string]interface{}{
			"mean_luminance": score,
			"min":            d.min,
			"max":            d.max,
		},
	}

	switch {
	case underBright:
		finding.IssueType = "under_bright"
		finding.Severity = SeverityWarning
		finding.Explanation = "image is too dark"
		finding.Causes = []string{"insufficient lighting", "underexposure", "lens cap or obstruction"}
		finding.Suggestions = []string{"increase scene lighting", "raise exposure or gain"}
	case overBright:
		finding.IssueType = "over_bright"
		finding.Severity = SeverityWarning
		finding.Explanation = "image is overexposed"
		finding.Causes = []string{"excessive lighting", "overexposure", "backlight or glare"}
		finding.Suggestions = []string{"reduce exposure or gain", "add neutral density filtering"}
	default:
		finding.Severity = SeverityNormal
		finding.Explanation = "brightness within expected range"
	}
	return finding, nil
}
