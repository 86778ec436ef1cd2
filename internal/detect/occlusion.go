package detect

import "github.com/rendiffdev/frameguard/internal/frame"

// OcclusionDescriptor describes the occlusion detector.
var OcclusionDescriptor = DetectorDescriptor{
	Name:        "occlusion",
	DisplayName: "Occlusion",
	IssueType:   "occlusion",
	Levels:      []Level{LevelStandard, LevelDeep},
	Priority:    15,
	Suppresses:  []string{"blur", "noise"},
}

type occlusionDetector struct {
	cfg                Config
	textureThreshold   float64
	fractionThreshold  float64
}

// NewOcclusionDetector builds an occlusion detector bound to cfg. The frame
// is partitioned into a grid of tiles whose dimensions scale with frame
// size (finer at the deep level); a tile is "low-texture" when its local
// luminance variance falls below textureThreshold. Abnormal when the
// fraction of low-texture tiles exceeds fractionThreshold.
func NewOcclusionDetector(cfg Config) (Detector, error) {
	return &occlusionDetector{
		cfg:               cfg,
		textureThreshold:  cfg.Threshold("occlusion", "texture_threshold", 15.0),
		fractionThreshold: cfg.Threshold("occlusion", "fraction_threshold", 0.35),
	}, nil
}

func (d *occlusionDetector) Descriptor() DetectorDescriptor { return OcclusionDescriptor }

func (d *occlusionDetector) Detect(f *frame.Frame) (Finding, error) {
	gray := f.Gray()

	tilesPerSide := 8
	if d.cfg.Level == LevelDeep {
		tilesPerSide = 16
	}
	tileW := gray.Width / tilesPerSide
	tileH := gray.Height / tilesPerSide
	if tileW < 1 {
		tileW = 1
	}
	if tileH < 1 {
		tileH = 1
	}

	var total, lowTexture int
	for ty := 0; ty*tileH < gray.Height; ty++ {
		for tx := 0; tx*tileW < gray.Width; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := x0+tileW, y0+tileH
			if x1 > gray.Width {
				x1 = gray.Width
			}
			if y1 > gray.Height {
				y1 = gray.Height
			}

			values := make([]byte, 0, (x1-x0)*(y1-y0))
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					values = append(values, gray.Pixels[y*gray.Width+x])
				}
			}
			if len(values) == 0 {
				continue
			}
			m := mean(values)
			v := stddev(values, m)
			v = v * v
			total++
			if v < d.textureThreshold {
				lowTexture++
			}
		}
	}

	var fraction float64
	if total > 0 {
		fraction = float64(lowTexture) / float64(total)
	}
	isAbnormal := fraction > d.fractionThreshold

	finding := Finding{
		Detector:   OcclusionDescriptor.Name,
		IssueType:  OcclusionDescriptor.IssueType,
		IsAbnormal: isAbnormal,
		Score:      fraction,
		Threshold:  d.fractionThreshold,
		Confidence: logistic(fraction-d.fractionThreshold, 0.2),
		Evidence: map[string]interface{}{
			"low_texture_tiles": lowTexture,
			"total_tiles":       total,
			"tile_grid":         tilesPerSide,
		},
	}

	if isAbnormal {
		finding.Severity = SeverityError
		finding.Explanation = "large low-texture region suggests camera obstruction"
		finding.Causes = []string{"physical obstruction (debris, cover)", "lens cap partially closed", "condensation"}
		finding.Suggestions = []string{"inspect camera for physical obstruction", "clean the lens"}
	} else {
		finding.Severity = SeverityNormal
		finding.Explanation = "no significant occlusion detected"
	}
	return finding, nil
}
