package decode

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rendiffdev/frameguard/internal/frame"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// DecodeImage probes path for its geometry and decodes a single BGR24 frame
// from it via an ffmpeg subprocess, the same exec.CommandContext pattern
// the teacher's analyzers use for every ffmpeg invocation.
func DecodeImage(ctx context.Context, ffmpegPath, ffprobePath, path string) (*frame.Frame, error) {
	meta, err := Probe(ctx, ffprobePath, path)
	if err != nil {
		return nil, err
	}
	if meta.Width == 0 || meta.Height == 0 {
		return nil, xerrors.New(xerrors.KindUnsupportedFormat, "decode.DecodeImage", "could not determine image dimensions")
	}

	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-i", path,
		"-vframes", "1",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-",
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, xerrors.Wrap(xerrors.KindSourceUnavailable, "decode.DecodeImage", "ffmpeg decode failed", err)
	}

	want := meta.Width * meta.Height * 3
	if stdout.Len() < want {
		return nil, xerrors.New(xerrors.KindInput, "decode.DecodeImage", "decoded output shorter than expected frame size")
	}
	return frame.New(meta.Width, meta.Height, 3, stdout.Bytes()[:want], 0), nil
}
