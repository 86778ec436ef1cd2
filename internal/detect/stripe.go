package detect

import "github.com/rendiffdev/frameguard/internal/frame"

// StripeDescriptor describes the stripe/banding detector.
var StripeDescriptor = DetectorDescriptor{
	Name:        "stripe",
	DisplayName: "Stripe/banding",
	IssueType:   "stripe",
	Levels:      []Level{LevelStandard, LevelDeep},
	Priority:    60,
	Suppresses:  nil,
}

type stripeDetector struct {
	cfg       Config
	threshold float64
}

// NewStripeDetector builds a stripe detector bound to cfg. Score is the
// peak-to-mean ratio of the 1-D FFT magnitude spectrum of the row-sum and
// column-sum projections; a strong periodic component in either axis
// indicates banding or scan-line artifacts.
func NewStripeDetector(cfg Config) (Detector, error) {
	return &stripeDetector{
		cfg:       cfg,
		threshold: cfg.Threshold("stripe", "threshold", 6.0),
	}, nil
}

func (d *stripeDetector) Descriptor() DetectorDescriptor { return StripeDescriptor }

func (d *stripeDetector) Detect(f *frame.Frame) (Finding, error) {
	gray := f.Gray()
	if d.cfg.Level == LevelDeep {
		// The deep level applies no finer partitioning: the projections
		// below run over the same native-resolution frame as at standard.
	}

	rowProjection := make([]float64, gray.Height)
	for y := 0; y < gray.Height; y++ {
		var sum float64
		for x := 0; x < gray.Width; x++ {
			sum += float64(gray.Pixels[y*gray.Width+x])
		}
		rowProjection[y] = sum
	}

	colProjection := make([]float64, gray.Width)
	for x := 0; x < gray.Width; x++ {
		var sum float64
		for y := 0; y < gray.Height; y++ {
			sum += float64(gray.Pixels[y*gray.Width+x])
		}
		colProjection[x] = sum
	}

	rowPeak := spectrumPeakRatio(rowProjection)
	colPeak := spectrumPeakRatio(colProjection)
	score := rowPeak
	axis := "horizontal"
	if colPeak > rowPeak {
		score = colPeak
		axis = "vertical"
	}

	isAbnormal := score > d.threshold

	finding := Finding{
		Detector:   StripeDescriptor.Name,
		IssueType:  StripeDescriptor.IssueType,
		IsAbnormal: isAbnormal,
		Score:      score,
		Threshold:  d.threshold,
		Confidence: logistic(score-d.threshold, d.threshold*0.4),
		Evidence: map[string]interface{}{
			"row_peak_ratio": rowPeak,
			"col_peak_ratio": colPeak,
			"axis":           axis,
		},
	}

	if isAbnormal {
		finding.Severity = SeverityWarning
		finding.Explanation = "periodic stripe or banding pattern detected (" + axis + ")"
		finding.Causes = []string{"sensor readout defect", "interference", "rolling-shutter artifact", "transmission banding"}
		finding.Suggestions = []string{"inspect sensor for readout defects", "check for electrical interference"}
	} else {
		finding.Severity = SeverityNormal
		finding.Explanation = "no periodic stripe pattern detected"
	}
	return finding, nil
}
