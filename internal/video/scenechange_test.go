package video

import (
	"testing"
	"time"
)

func TestDetectSceneChange_FlagsAbruptColorShift(t *testing.T) {
	frames := []sampledFrame{
		{index: 0, frame: solidFrame(64, 64, 0, 0, 0, 0), timestamp: 0},
		{index: 1, frame: solidFrame(64, 64, 0, 0, 0, 1 * time.Second), timestamp: 1 * time.Second},
		{index: 2, frame: solidFrame(64, 64, 255, 255, 0, 2 * time.Second), timestamp: 2 * time.Second},
	}
	finding := detectSceneChange(frames, DefaultSceneChangeParams())
	if len(finding.Segments) == 0 {
		t.Error("expected a scene-change event for the abrupt color shift")
	}
}

func TestDetectSceneChange_StableColorNoEvents(t *testing.T) {
	frames := []sampledFrame{
		{index: 0, frame: solidFrame(64, 64, 10, 10, 10, 0), timestamp: 0},
		{index: 1, frame: solidFrame(64, 64, 12, 11, 10, 1 * time.Second), timestamp: 1 * time.Second},
		{index: 2, frame: solidFrame(64, 64, 11, 10, 12, 2 * time.Second), timestamp: 2 * time.Second},
	}
	finding := detectSceneChange(frames, DefaultSceneChangeParams())
	if len(finding.Segments) != 0 {
		t.Errorf("expected no scene-change events for near-identical frames, got %+v", finding.Segments)
	}
}

func TestDetectSceneChange_MergesEventsWithinMinGap(t *testing.T) {
	params := DefaultSceneChangeParams()
	params.MinGap = 2 * time.Second
	frames := []sampledFrame{
		{index: 0, frame: solidFrame(64, 64, 0, 0, 0, 0), timestamp: 0},
		{index: 1, frame: solidFrame(64, 64, 255, 0, 0, 100 * time.Millisecond), timestamp: 100 * time.Millisecond},
		{index: 2, frame: solidFrame(64, 64, 0, 255, 0, 200 * time.Millisecond), timestamp: 200 * time.Millisecond},
	}
	finding := detectSceneChange(frames, params)
	if len(finding.Segments) > 1 {
		t.Errorf("expected close-together cuts to merge into at most 1 event, got %d", len(finding.Segments))
	}
}
