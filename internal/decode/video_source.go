package decode

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/rendiffdev/frameguard/internal/frame"
	"github.com/rendiffdev/frameguard/internal/video"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// VideoSource streams raw BGR24 frames from an ffmpeg subprocess pipe. It
// satisfies video.Source.
type VideoSource struct {
	ffmpegPath string
	path       string
	meta       video.Metadata
	frameSize  int

	cmd        *exec.Cmd
	stdout     io.ReadCloser
	reader     *bufio.Reader
	started    bool
	frameIndex int
}

// NewVideoSource builds a VideoSource for path using meta (typically the
// result of Probe) to size each raw frame read.
func NewVideoSource(ffmpegPath, path string, meta video.Metadata) *VideoSource {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &VideoSource{
		ffmpegPath: ffmpegPath,
		path:       path,
		meta:       meta,
		frameSize:  meta.Width * meta.Height * 3,
	}
}

// Metadata returns the source's known geometry/timing.
func (s *VideoSource) Metadata() video.Metadata { return s.meta }

func (s *VideoSource) start(ctx context.Context) error {
	if s.started {
		return nil
	}
	if s.frameSize <= 0 {
		return xerrors.New(xerrors.KindUnsupportedFormat, "decode.VideoSource", "unknown frame geometry; probe the source first")
	}

	s.cmd = exec.CommandContext(ctx, s.ffmpegPath,
		"-i", s.path,
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-",
	)
	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return xerrors.Wrap(xerrors.KindSourceUnavailable, "decode.VideoSource", "failed to open ffmpeg stdout pipe", err)
	}
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, s.frameSize*2)

	if err := s.cmd.Start(); err != nil {
		return xerrors.Wrap(xerrors.KindSourceUnavailable, "decode.VideoSource", "failed to start ffmpeg", err)
	}
	s.started = true
	return nil
}

// Next decodes and returns the next frame, or an error satisfying io.EOF
// once the stream is exhausted.
func (s *VideoSource) Next(ctx context.Context) (*frame.Frame, error) {
	if err := s.start(ctx); err != nil {
		return nil, err
	}

	buf := make([]byte, s.frameSize)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		s.cmd.Wait()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, xerrors.Wrap(xerrors.KindConnectionLost, "decode.VideoSource", "failed reading decoded frame", err)
	}

	ts := time.Duration(float64(s.frameIndex) / s.fps() * float64(time.Second))
	s.frameIndex++
	return frame.New(s.meta.Width, s.meta.Height, 3, buf, ts), nil
}

func (s *VideoSource) fps() float64 {
	if s.meta.FPS > 0 {
		return s.meta.FPS
	}
	return 25
}

// Close releases the underlying ffmpeg subprocess, if started.
func (s *VideoSource) Close() error {
	if s.stdout != nil {
		s.stdout.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		return s.cmd.Wait()
	}
	return nil
}
