package video

import (
	"testing"
	"time"
)

func TestDetectFreeze_IdenticalFramesMergeIntoOneSegment(t *testing.T) {
	frames := []sampledFrame{
		{index: 0, frame: solidFrame(64, 64, 10, 10, 10, 0), timestamp: 0},
		{index: 1, frame: solidFrame(64, 64, 10, 10, 10, 0), timestamp: 2 * time.Second},
		{index: 2, frame: solidFrame(64, 64, 10, 10, 10, 0), timestamp: 5 * time.Second},
		{index: 3, frame: solidFrame(64, 64, 200, 40, 90, 0), timestamp: 6 * time.Second},
	}
	finding := detectFreeze(frames, DefaultFreezeParams())
	if len(finding.Segments) != 1 {
		t.Fatalf("expected 1 freeze segment, got %d: %+v", len(finding.Segments), finding.Segments)
	}
	seg := finding.Segments[0]
	if seg.StartTime != 0 || seg.EndTime != 5*time.Second {
		t.Errorf("segment = %+v; want start=0 end=5s", seg)
	}
}

func TestDetectFreeze_ShortFreezeBelowMinDurationDropped(t *testing.T) {
	params := DefaultFreezeParams()
	params.MinFreezeSeconds = 10.0
	frames := []sampledFrame{
		{index: 0, frame: solidFrame(64, 64, 10, 10, 10, 0), timestamp: 0},
		{index: 1, frame: solidFrame(64, 64, 10, 10, 10, 0), timestamp: 1 * time.Second},
	}
	finding := detectFreeze(frames, params)
	if len(finding.Segments) != 0 {
		t.Errorf("expected short freeze to be dropped, got %+v", finding.Segments)
	}
}

func TestDetectFreeze_VaryingFramesNoSegment(t *testing.T) {
	frames := []sampledFrame{
		{index: 0, frame: solidFrame(64, 64, 10, 10, 10, 0), timestamp: 0},
		{index: 1, frame: solidFrame(64, 64, 200, 200, 200, 0), timestamp: 1 * time.Second},
		{index: 2, frame: solidFrame(64, 64, 10, 10, 10, 0), timestamp: 2 * time.Second},
	}
	finding := detectFreeze(frames, DefaultFreezeParams())
	if len(finding.Segments) != 0 {
		t.Errorf("expected no freeze segments for varying frames, got %+v", finding.Segments)
	}
}
