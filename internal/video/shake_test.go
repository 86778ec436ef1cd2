package video

import (
	"testing"
	"time"

	"github.com/rendiffdev/frameguard/internal/frame"
)

func shiftedFrame(w, h, dx, dy int, ts time.Duration) *frame.Frame {
	pixels := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(30)
			sx, sy := x-dx, y-dy
			if sx >= w/3 && sx < 2*w/3 && sy >= h/3 && sy < 2*h/3 {
				v = 220
			}
			idx := (y*w + x) * 3
			pixels[idx] = v
			pixels[idx+1] = v
			pixels[idx+2] = v
		}
	}
	return frame.New(w, h, 3, pixels, ts)
}

func TestDetectShake_SustainedMotionFlagsSegment(t *testing.T) {
	var frames []sampledFrame
	for i := 0; i < 8; i++ {
		ts := time.Duration(i) * time.Second
		frames = append(frames, sampledFrame{index: i, frame: shiftedFrame(80, 80, i*9, 0, ts), timestamp: ts})
	}
	finding := detectShake(frames, DefaultShakeParams())
	if len(finding.Segments) == 0 {
		t.Error("expected sustained large frame-to-frame shifts to register as shake")
	}
}

func TestDetectShake_StaticFramesNoShake(t *testing.T) {
	var frames []sampledFrame
	for i := 0; i < 8; i++ {
		ts := time.Duration(i) * time.Second
		frames = append(frames, sampledFrame{index: i, frame: shiftedFrame(80, 80, 0, 0, ts), timestamp: ts})
	}
	finding := detectShake(frames, DefaultShakeParams())
	if len(finding.Segments) != 0 {
		t.Errorf("expected no shake for a static scene, got %+v", finding.Segments)
	}
}
