package app

import (
	"testing"

	"github.com/rendiffdev/frameguard/internal/config"
)

func TestValidateMediaTools_MissingBinaryFails(t *testing.T) {
	cfg := &config.Config{FFmpegPath: "/no/such/ffmpeg-binary", FFprobePath: "/no/such/ffprobe-binary"}
	if err := validateMediaTools(cfg); err == nil {
		t.Error("expected an error when ffmpeg/ffprobe can't be resolved on PATH")
	}
}
