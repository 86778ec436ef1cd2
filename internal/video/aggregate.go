package video

import (
	"sort"

	"github.com/rendiffdev/frameguard/internal/detect"
)

// aggregateImageFindings temporal-merges each sampled frame's image-pipeline
// findings into per-issue-type segments: adjacent sampled frames with the
// same issue abnormal become one segment; isolated hits shorter than
// minEventSeconds are dropped as noise.
func aggregateImageFindings(frames []sampledFrame, minEventSeconds float64) []IssueSummary {
	issueTypes := make(map[string]bool)
	for _, sf := range frames {
		if sf.verdict == nil {
			continue
		}
		for _, f := range sf.verdict.Findings {
			if f.IsAbnormal {
				issueTypes[f.IssueType] = true
			}
		}
	}

	names := make([]string, 0, len(issueTypes))
	for name := range issueTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]IssueSummary, 0, len(names))
	for _, issueType := range names {
		summaries = append(summaries, buildIssueSummary(frames, issueType, minEventSeconds))
	}
	return summaries
}

func buildIssueSummary(frames []sampledFrame, issueType string, minEventSeconds float64) IssueSummary {
	var segments []Segment
	var segStart *sampledFrame
	var segEnd sampledFrame
	severity := detect.SeverityNormal

	flush := func() {
		if segStart == nil {
			return
		}
		duration := (segEnd.timestamp - segStart.timestamp).Seconds()
		if duration >= minEventSeconds {
			segments = append(segments, Segment{
				StartTime:  segStart.timestamp,
				EndTime:    segEnd.timestamp,
				StartFrame: segStart.index,
				EndFrame:   segEnd.index,
			})
		}
		segStart = nil
	}

	for i := range frames {
		sf := frames[i]
		abnormal := false
		if sf.verdict != nil {
			for _, f := range sf.verdict.Findings {
				if f.IssueType == issueType && f.IsAbnormal {
					abnormal = true
					severity = detect.MaxSeverity(severity, f.Severity)
				}
			}
		}
		if abnormal {
			if segStart == nil {
				start := sf
				segStart = &start
			}
			segEnd = sf
		} else {
			flush()
		}
	}
	flush()

	var abnormalDuration float64
	for _, s := range segments {
		abnormalDuration += (s.EndTime - s.StartTime).Seconds()
	}

	explanation := issueType + " detected in one or more segments"
	if len(segments) == 0 {
		explanation = issueType + " observed only as isolated, noise-length hits; dropped"
		severity = detect.SeverityNormal
	}

	return IssueSummary{
		IssueType:        issueType,
		Segments:         segments,
		AbnormalDuration: durationFromSeconds(abnormalDuration),
		Severity:         severity,
		Explanation:      explanation,
	}
}
