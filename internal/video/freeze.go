package video

import "github.com/rendiffdev/frameguard/internal/detect"

// FreezeParams bounds the freeze detector's decision.
type FreezeParams struct {
	SSIMThreshold    float64 // S_freeze; pair is frozen when SSIM exceeds this
	MADThreshold     float64 // M_freeze; pair is frozen when MAD is below this
	MinFreezeSeconds float64 // consecutive frozen pairs must span at least this long
}

// DefaultFreezeParams returns the spec's default thresholds.
func DefaultFreezeParams() FreezeParams {
	return FreezeParams{SSIMThreshold: 0.995, MADThreshold: 2.0, MinFreezeSeconds: 1.0}
}

// detectFreeze compares each adjacent sampled pair and merges consecutive
// frozen pairs into segments spanning at least MinFreezeSeconds.
func detectFreeze(frames []sampledFrame, params FreezeParams) VideoFinding {
	var segments []Segment
	var segStart *sampledFrame
	var segEnd sampledFrame

	flush := func() {
		if segStart == nil {
			return
		}
		duration := segEnd.timestamp - segStart.timestamp
		if duration.Seconds() >= params.MinFreezeSeconds {
			segments = append(segments, Segment{
				StartTime:  segStart.timestamp,
				EndTime:    segEnd.timestamp,
				StartFrame: segStart.index,
				EndFrame:   segEnd.index,
			})
		}
		segStart = nil
	}

	for i := 1; i < len(frames); i++ {
		a, b := frames[i-1], frames[i]
		grayA, grayB := a.frame.Gray(), b.frame.Gray()
		ssim := globalSSIM(grayA, grayB)
		mad := meanAbsoluteDifference(grayA, grayB)
		frozen := ssim > params.SSIMThreshold && mad < params.MADThreshold

		if frozen {
			if segStart == nil {
				start := a
				segStart = &start
			}
			segEnd = b
		} else {
			flush()
		}
	}
	flush()

	var abnormalDuration float64
	for _, s := range segments {
		abnormalDuration += (s.EndTime - s.StartTime).Seconds()
	}

	severity := detect.SeverityNormal
	explanation := "no sustained frozen segments detected"
	if len(segments) > 0 {
		severity = detect.SeverityError
		explanation = "one or more segments show identical consecutive frames (frozen video)"
	}

	return VideoFinding{
		IssueType:   "freeze",
		Severity:    severity,
		Segments:    segments,
		Explanation: explanation,
		Summary:     map[string]interface{}{"segment_count": len(segments)},
	}
}
