// Package decode provides ffmpeg/ffprobe-backed implementations of the
// decoded-frame provider the video pipeline consumes: probing a source's
// geometry/timing, decoding a single image, and streaming raw frames from
// a video.
package decode

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rendiffdev/frameguard/internal/video"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

type ffprobeStream struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	NbFrames   string `json:"nb_frames"`
	Duration   string `json:"duration"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

// Probe runs ffprobe against path and returns the first video stream's
// geometry and timing, grounded on the teacher's FFprobe.Probe
// exec.CommandContext + JSON-decode pattern.
func Probe(ctx context.Context, ffprobePath, path string) (video.Metadata, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames,duration:format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return video.Metadata{}, xerrors.Wrap(xerrors.KindSourceUnavailable, "decode.Probe", "ffprobe failed", err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return video.Metadata{}, xerrors.Wrap(xerrors.KindSourceUnavailable, "decode.Probe", "failed to parse ffprobe output", err)
	}
	if len(parsed.Streams) == 0 {
		return video.Metadata{}, xerrors.New(xerrors.KindSourceUnavailable, "decode.Probe", "no video stream found")
	}

	stream := parsed.Streams[0]
	duration := parseSeconds(stream.Duration)
	if duration == 0 {
		duration = parseSeconds(parsed.Format.Duration)
	}
	totalFrames, _ := strconv.Atoi(stream.NbFrames)

	return video.Metadata{
		Width:       stream.Width,
		Height:      stream.Height,
		FPS:         parseRate(stream.RFrameRate),
		Duration:    time.Duration(duration * float64(time.Second)),
		TotalFrames: totalFrames,
	}, nil
}

func parseRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
