// Package video samples frames from a decoded source, reuses the image
// pipeline per sampled frame, and runs temporal detectors (freeze,
// scene-change, shake) across the sampled stream to produce a VideoVerdict.
package video

import (
	"context"
	"time"

	"github.com/rendiffdev/frameguard/internal/detect"
	"github.com/rendiffdev/frameguard/internal/frame"
	"github.com/rendiffdev/frameguard/internal/pipeline"
)

// Metadata describes a video source's known geometry and timing. FPS,
// Duration, and TotalFrames may be zero when the source cannot report them
// upfront (e.g. a live pipe); the sampler falls back to time-based decisions.
type Metadata struct {
	Width       int
	Height      int
	FPS         float64
	Duration    time.Duration
	TotalFrames int
}

// Source is a decoded-frame provider. Concrete implementations (an
// ffmpeg-pipe decoder, a test fixture) produce frames in presentation order.
type Source interface {
	Metadata() Metadata
	// Next returns the next decoded frame, or an error satisfying
	// io.EOF when the source is exhausted.
	Next(ctx context.Context) (*frame.Frame, error)
}

// Segment is one contiguous span during which an issue was abnormal.
type Segment struct {
	StartTime  time.Duration `json:"start_time"`
	EndTime    time.Duration `json:"end_time"`
	StartFrame int           `json:"start_frame"`
	EndFrame   int           `json:"end_frame"`
}

// IssueSummary aggregates one issue type's occurrences across the sampled
// stream.
type IssueSummary struct {
	IssueType        string          `json:"issue_type"`
	Segments         []Segment       `json:"segments"`
	AbnormalDuration time.Duration   `json:"abnormal_duration"`
	Severity         detect.Severity `json:"severity"`
	Explanation      string          `json:"explanation"`
}

// VideoVerdict is the rollup for one sampled source.
type VideoVerdict struct {
	Issues            []IssueSummary `json:"issues"`
	Width             int            `json:"width"`
	Height            int            `json:"height"`
	FPS               float64        `json:"fps"`
	Duration          time.Duration  `json:"duration"`
	TotalFrames       int            `json:"total_frames"`
	SampledFrameCount int            `json:"sampled_frame_count"`
	OverallScore      float64        `json:"overall_score"`
	PartialReason     string         `json:"partial_reason,omitempty"`
}

// VideoFinding is the output of one video-level (temporal) detector across
// a window of sampled frames.
type VideoFinding struct {
	IssueType   string                 `json:"issue_type"`
	Severity    detect.Severity        `json:"severity"`
	Segments    []Segment              `json:"segments"`
	Explanation string                 `json:"explanation"`
	Summary     map[string]interface{} `json:"summary,omitempty"`
}

// sampledFrame pairs a decoded frame with its position in the sampled
// sequence (not the source's raw frame index, which the sampler does not
// always know for a streaming decoder).
type sampledFrame struct {
	index     int
	frame     *frame.Frame
	timestamp time.Duration
	verdict   *pipeline.ImageVerdict
}
