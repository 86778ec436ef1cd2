package video

import (
	"time"

	"github.com/rendiffdev/frameguard/internal/detect"
)

// SceneChangeParams bounds the scene-change detector's decision.
type SceneChangeParams struct {
	Threshold float64       // combined histogram + edge-density jump that signals a cut
	MinGap    time.Duration // events closer together than this are merged
}

// DefaultSceneChangeParams returns the spec's default thresholds.
func DefaultSceneChangeParams() SceneChangeParams {
	return SceneChangeParams{Threshold: 0.5, MinGap: 500 * time.Millisecond}
}

// detectSceneChange compares HSV histograms and edge density between
// adjacent samples; a jump above Threshold is an event at the later
// timestamp. Events closer than MinGap are merged into one.
func detectSceneChange(frames []sampledFrame, params SceneChangeParams) VideoFinding {
	type event struct {
		timestamp time.Duration
		index     int
	}
	var events []event

	var prevHist [histBins * histBins * histBins]float64
	var prevEdge float64
	haveFeatures := false

	for _, sf := range frames {
		hist := coarseHSVHistogram(sf.frame)
		gray := sf.frame.Gray()
		edge := edgeDensity(gray)

		if haveFeatures {
			var histDist float64
			for i := range hist {
				d := hist[i] - prevHist[i]
				if d < 0 {
					d = -d
				}
				histDist += d
			}
			histDist /= 2 // normalize L1 distance of two histograms to [0,1]
			edgeDelta := edge - prevEdge
			if edgeDelta < 0 {
				edgeDelta = -edgeDelta
			}
			combined := 0.7*histDist + 0.3*edgeDelta
			if combined > params.Threshold {
				events = append(events, event{timestamp: sf.timestamp, index: sf.index})
			}
		}

		prevHist = hist
		prevEdge = edge
		haveFeatures = true
	}

	merged := make([]event, 0, len(events))
	for _, e := range events {
		if len(merged) > 0 && e.timestamp-merged[len(merged)-1].timestamp < params.MinGap {
			continue
		}
		merged = append(merged, e)
	}

	segments := make([]Segment, 0, len(merged))
	for _, e := range merged {
		segments = append(segments, Segment{StartTime: e.timestamp, EndTime: e.timestamp, StartFrame: e.index, EndFrame: e.index})
	}

	severity := detect.SeverityNormal
	explanation := "no scene cuts detected"
	if len(segments) > 0 {
		severity = detect.SeverityInfo
		explanation = "one or more scene cuts detected"
	}

	return VideoFinding{
		IssueType:   "scene_change",
		Severity:    severity,
		Segments:    segments,
		Explanation: explanation,
		Summary:     map[string]interface{}{"event_count": len(segments)},
	}
}
