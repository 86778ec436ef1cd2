package detect

import "github.com/rendiffdev/frameguard/internal/frame"

// ColorDescriptor describes the color-cast detector.
var ColorDescriptor = DetectorDescriptor{
	Name:        "color",
	DisplayName: "Color cast",
	IssueType:   "color_cast",
	Levels:      []Level{LevelStandard, LevelDeep},
	Priority:    40,
	Suppresses:  nil,
}

type colorDetector struct {
	castThreshold     float64
	saturationThreshold float64
	dominanceThreshold  float64
}

// NewColorDetector builds a color-cast detector bound to cfg. Score is the
// ratio between the dominant and weakest BGR channel means; abnormal when
// that ratio, or blue/green channel dominance, exceeds threshold, or when
// HSV saturation falls below threshold (desaturated/washed-out image).
func NewColorDetector(cfg Config) (Detector, error) {
	return &colorDetector{
		castThreshold:       cfg.Threshold("color", "cast_ratio", 1.4),
		saturationThreshold: cfg.Threshold("color", "saturation_min", 0.15),
		dominanceThreshold:  cfg.Threshold("color", "dominance_ratio", 1.6),
	}, nil
}

func (d *colorDetector) Descriptor() DetectorDescriptor { return ColorDescriptor }

func (d *colorDetector) Detect(f *frame.Frame) (Finding, error) {
	if f.Channels < 3 {
		return Finding{
			Detector:    ColorDescriptor.Name,
			IssueType:   ColorDescriptor.IssueType,
			IsAbnormal:  false,
			Severity:    SeverityNormal,
			Explanation: "grayscale input; color cast not applicable",
		}, nil
	}

	var bSum, gSum, rSum float64
	var satSum float64
	n := f.Width * f.Height
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			px := f.At(x, y)
			bSum += float64(px[0])
			gSum += float64(px[1])
			rSum += float64(px[2])
			_, s, _ := f.HSV(x, y)
			satSum += s
		}
	}
	bMean, gMean, rMean := bSum/float64(n), gSum/float64(n), rSum/float64(n)
	satMean := satSum / float64(n)

	max := rMean
	if gMean > max {
		max = gMean
	}
	if bMean > max {
		max = bMean
	}
	min := rMean
	if gMean < min {
		min = gMean
	}
	if bMean < min {
		min = bMean
	}
	if min < 1 {
		min = 1
	}
	castRatio := max / min

	blueDominance := bMean / ((gMean + rMean) / 2)
	if (gMean+rMean)/2 < 1 {
		blueDominance = bMean
	}
	greenDominance := gMean / ((bMean + rMean) / 2)
	if (bMean+rMean)/2 < 1 {
		greenDominance = gMean
	}
	dominance := blueDominance
	if greenDominance > dominance {
		dominance = greenDominance
	}

	castAbnormal := castRatio > d.castThreshold
	desaturated := satMean < d.saturationThreshold
	dominanceAbnormal := dominance > d.dominanceThreshold
	isAbnormal := castAbnormal || desaturated || dominanceAbnormal

	finding := Finding{
		Detector:   ColorDescriptor.Name,
		IssueType:  ColorDescriptor.IssueType,
		IsAbnormal: isAbnormal,
		Score:      castRatio,
		Threshold:  d.castThreshold,
		Confidence: logistic(castRatio-d.castThreshold, 0.3),
		Evidence: map[string]interface{}{
			"b_mean":     bMean,
			"g_mean":     gMean,
			"r_mean":     rMean,
			"saturation": satMean,
			"cast_ratio": castRatio,
			"dominance":  dominance,
		},
	}

	switch {
	case dominanceAbnormal && blueDominance >= greenDominance:
		finding.IssueType = "blue_cast"
		finding.Severity = SeverityWarning
		finding.Explanation = "strong blue color cast detected"
		finding.Causes = []string{"incorrect white balance", "underwater or night-vision optics", "color temperature mismatch"}
		finding.Suggestions = []string{"recalibrate white balance"}
	case dominanceAbnormal:
		finding.IssueType = "green_cast"
		finding.Severity = SeverityWarning
		finding.Explanation = "strong green color cast detected"
		finding.Causes = []string{"fluorescent lighting mismatch", "incorrect white balance"}
		finding.Suggestions = []string{"recalibrate white balance"}
	case desaturated:
		finding.IssueType = "desaturated"
		finding.Severity = SeverityInfo
		finding.Explanation = "image appears washed out or desaturated"
		finding.Causes = []string{"sensor degradation", "excessive ambient light", "incorrect gain settings"}
		finding.Suggestions = []string{"check sensor health", "adjust saturation/gain"}
	case castAbnormal:
		finding.IssueType = "color_cast"
		finding.Severity = SeverityInfo
		finding.Explanation = "color cast detected"
		finding.Causes = []string{"incorrect white balance", "colored light source"}
		finding.Suggestions = []string{"recalibrate white balance"}
	default:
		finding.Severity = SeverityNormal
		finding.Explanation = "color balance within expected range"
	}
	return finding, nil
}
