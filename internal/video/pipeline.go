package video

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rendiffdev/frameguard/internal/detect"
	"github.com/rendiffdev/frameguard/internal/frame"
	"github.com/rendiffdev/frameguard/internal/metrics"
	"github.com/rendiffdev/frameguard/internal/pipeline"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// Pipeline samples frames from a Source, reuses the image pipeline per
// sampled frame, and runs the temporal detectors over the sampled stream.
type Pipeline struct {
	Image           *pipeline.Pipeline
	Workers         int
	MinEventSeconds float64
	Freeze          FreezeParams
	Scene           SceneChangeParams
	Shake           ShakeParams
}

// New builds a video Pipeline with the spec's default temporal-detector
// parameters.
func New(image *pipeline.Pipeline, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		Image:           image,
		Workers:         workers,
		MinEventSeconds: 1.0,
		Freeze:          DefaultFreezeParams(),
		Scene:           DefaultSceneChangeParams(),
		Shake:           DefaultShakeParams(),
	}
}

// Run samples source according to strategy/sampleIntervalS/maxFrames, runs
// the image pipeline on each sampled frame, then runs the video detectors
// and temporal aggregation to produce a VideoVerdict.
func (p *Pipeline) Run(ctx context.Context, source Source, cfg detect.Config, strategy Strategy, sampleIntervalS float64, maxFrames int, allowlist []string) (*VideoVerdict, error) {
	start := time.Now()
	defer func() {
		metrics.VideoPipelineDuration.WithLabelValues(string(strategy)).Observe(time.Since(start).Seconds())
	}()

	meta := source.Metadata()
	sampler := NewSampler(strategy, sampleIntervalS, maxFrames, 0)
	buffer := NewFrameBuffer(BufferSize(p.Workers))

	var decodeErr error

	go func() {
		defer buffer.Close()
		index := 0
		var lastDecoded *sampledFrame
		lastWasPushed := false

	decodeLoop:
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			f, err := source.Next(ctx)
			if err == io.EOF {
				break decodeLoop
			}
			if err != nil {
				decodeErr = err
				break decodeLoop
			}
			sf := sampledFrame{index: index, frame: f, timestamp: f.Timestamp}
			if sampler.Decide(f, false) {
				buffer.Push(sf)
				index++
				lastWasPushed = true
			} else {
				lastWasPushed = false
			}
			lastDecoded = &sf
			if sampler.Full() {
				break decodeLoop
			}
		}

		// Guarantee the source's final decoded frame is sampled (the first
		// is already guaranteed by Sampler.Decide's !haveSampled branch),
		// so a source shorter than sample_interval still yields first+last.
		if lastDecoded != nil && !lastWasPushed && !sampler.Full() {
			lastDecoded.index = index
			buffer.Push(*lastDecoded)
		}
	}()

	results := make([]sampledFrame, 0, maxFrames)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < p.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sf := range buffer.Channel() {
				verdict, err := p.Image.Run(ctx, sf.frame, cfg, allowlist)
				if err == nil {
					sf.verdict = verdict
				}
				mu.Lock()
				results = append(results, sf)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	if len(results) == 0 {
		return nil, xerrors.Input("video.Run", "source produced zero sampled frames")
	}

	verdict := p.finalize(results, meta)
	if decodeErr != nil {
		verdict.PartialReason = string(xerrors.KindOf(decodeErr))
	}
	return verdict, nil
}

// FrameSample pairs a frame with its presentation timestamp for
// RunSnapshot, whose caller (a live stream's ring-buffer snapshot) already
// knows which frames to feed the video detectors without a Source or
// Sampler deciding for it.
type FrameSample struct {
	Frame     *frame.Frame
	Timestamp time.Duration
}

// RunSnapshot runs the image pipeline over an already-chosen ordered set of
// frames (e.g. the K most recent frames held by a live stream worker) and
// then the same video-detector and temporal-aggregation pass Run uses. It
// skips sampling and decoding entirely; callers that already have frames in
// hand (not a Source to iterate) use this instead of Run.
func (p *Pipeline) RunSnapshot(ctx context.Context, samples []FrameSample, cfg detect.Config, allowlist []string) (*VideoVerdict, error) {
	if len(samples) == 0 {
		return nil, xerrors.Input("video.RunSnapshot", "snapshot contains zero frames")
	}

	results := make([]sampledFrame, len(samples))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.Workers)
	for i, s := range samples {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, s FrameSample) {
			defer wg.Done()
			defer func() { <-sem }()
			verdict, err := p.Image.Run(ctx, s.Frame, cfg, allowlist)
			sf := sampledFrame{index: i, frame: s.Frame, timestamp: s.Timestamp}
			if err == nil {
				sf.verdict = verdict
			}
			mu.Lock()
			results[i] = sf
			mu.Unlock()
		}(i, s)
	}
	wg.Wait()

	meta := Metadata{
		Width:  samples[0].Frame.Width,
		Height: samples[0].Frame.Height,
	}
	return p.finalize(results, meta), nil
}

// finalize runs the three video detectors plus temporal aggregation over an
// ordered, already-image-diagnosed set of samples and assembles the
// VideoVerdict common to Run and RunSnapshot.
func (p *Pipeline) finalize(results []sampledFrame, meta Metadata) *VideoVerdict {
	imageIssues := aggregateImageFindings(results, p.MinEventSeconds)
	freeze := detectFreeze(results, p.Freeze)
	scene := detectSceneChange(results, p.Scene)
	shake := detectShake(results, p.Shake)

	issues := append(imageIssues, videoFindingToIssue(freeze), videoFindingToIssue(scene), videoFindingToIssue(shake))
	sort.Slice(issues, func(i, j int) bool { return issues[i].IssueType < issues[j].IssueType })

	duration := meta.Duration
	if duration == 0 && len(results) > 0 {
		duration = results[len(results)-1].timestamp
	}

	width, height := meta.Width, meta.Height
	if width == 0 || height == 0 {
		width, height = results[0].frame.Width, results[0].frame.Height
	}

	abnormalSeconds := unionDurationSeconds(issues)
	overallScore := 1.0
	if duration > 0 {
		overallScore = 1 - abnormalSeconds/duration.Seconds()
	}
	if overallScore < 0 {
		overallScore = 0
	}
	if overallScore > 1 {
		overallScore = 1
	}

	return &VideoVerdict{
		Issues:            issues,
		Width:             width,
		Height:            height,
		FPS:               meta.FPS,
		Duration:          duration,
		TotalFrames:       meta.TotalFrames,
		SampledFrameCount: len(results),
		OverallScore:      overallScore,
	}
}

func videoFindingToIssue(vf VideoFinding) IssueSummary {
	var abnormal time.Duration
	for _, s := range vf.Segments {
		abnormal += s.EndTime - s.StartTime
	}
	return IssueSummary{
		IssueType:        vf.IssueType,
		Segments:         vf.Segments,
		AbnormalDuration: abnormal,
		Severity:         vf.Severity,
		Explanation:      vf.Explanation,
	}
}

// unionDurationSeconds sums the total time covered by the union of every
// issue's segments, so overlapping issues (e.g. freeze during a scene cut)
// are not double-counted against overall_score.
func unionDurationSeconds(issues []IssueSummary) float64 {
	type interval struct{ start, end float64 }
	var intervals []interval
	for _, issue := range issues {
		for _, s := range issue.Segments {
			if s.EndTime <= s.StartTime {
				continue
			}
			intervals = append(intervals, interval{start: s.StartTime.Seconds(), end: s.EndTime.Seconds()})
		}
	}
	if len(intervals) == 0 {
		return 0
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start < intervals[j].start })

	total := 0.0
	curStart, curEnd := intervals[0].start, intervals[0].end
	for _, iv := range intervals[1:] {
		if iv.start > curEnd {
			total += curEnd - curStart
			curStart, curEnd = iv.start, iv.end
			continue
		}
		if iv.end > curEnd {
			curEnd = iv.end
		}
	}
	total += curEnd - curStart
	return total
}
