package scheduler

import (
	"context"
	"io/fs"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/rendiffdev/frameguard/internal/decode"
	"github.com/rendiffdev/frameguard/internal/detect"
	"github.com/rendiffdev/frameguard/internal/pipeline"
	"github.com/rendiffdev/frameguard/internal/profile"
	"github.com/rendiffdev/frameguard/internal/video"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// Executor runs one Task's body: enumerate inputs, diagnose each, tally
// counts. It holds the shared pipelines and media tool paths every
// execution needs; Store/cron concerns live in Scheduler.
type Executor struct {
	Image       *pipeline.Pipeline
	Video       *video.Pipeline
	Profiles    *profile.Store
	FFmpegPath  string
	FFprobePath string
}

// outcome is the tally produced by running one Task, independent of its
// TaskType.
type outcome struct {
	processed int
	normal    int
	abnormal  int
	errors    int
}

// Run executes task and returns the resulting tally, or an error if setup
// itself failed (e.g. a recursive task's input path cannot be walked, or
// the profile does not resolve) before any item could be processed. For a
// non-recursive task a missing input path yields no matches, not an error.
func (ex *Executor) Run(ctx context.Context, task Task) (outcome, error) {
	matches, err := enumerate(task.Config.InputPath, task.Config.Pattern, task.Config.Recursive)
	if err != nil {
		return outcome{}, err
	}
	if task.TaskType == TaskSampleImage {
		matches = sampleFraction(matches, task.Config.SampleRate)
	}

	cfg, err := ex.Profiles.Resolve(profile.Name(task.Config.Profile), detect.Level(task.Config.Level), nil)
	if err != nil {
		return outcome{}, err
	}

	var out outcome
	for _, path := range matches {
		select {
		case <-ctx.Done():
			return out, xerrors.Timeout("scheduler.Executor.Run", "execution deadline exceeded")
		default:
		}

		var abnormal bool
		var runErr error
		switch task.TaskType {
		case TaskVideo:
			abnormal, runErr = ex.runVideo(ctx, path, cfg)
		default:
			abnormal, runErr = ex.runImage(ctx, path, cfg)
		}

		out.processed++
		switch {
		case runErr != nil:
			out.errors++
		case abnormal:
			out.abnormal++
		default:
			out.normal++
		}
	}
	return out, nil
}

func (ex *Executor) runImage(ctx context.Context, path string, cfg detect.Config) (bool, error) {
	f, err := decode.DecodeImage(ctx, ex.FFmpegPath, ex.FFprobePath, path)
	if err != nil {
		return false, err
	}
	verdict, err := ex.Image.Run(ctx, f, cfg, nil)
	if err != nil {
		return false, err
	}
	return verdict.IsAbnormal, nil
}

func (ex *Executor) runVideo(ctx context.Context, path string, cfg detect.Config) (bool, error) {
	meta, err := decode.Probe(ctx, ex.FFprobePath, path)
	if err != nil {
		return false, err
	}
	source := decode.NewVideoSource(ex.FFmpegPath, path, meta)
	defer source.Close()

	verdict, err := ex.Video.Run(ctx, source, cfg, video.StrategyHybrid, 1.0, 0, nil)
	if err != nil {
		return false, err
	}
	return verdict.OverallScore < 1.0, nil
}

// enumerate lists the files under root matching pattern (a filepath.Match
// glob, applied to the base name), walking subdirectories when recursive.
func enumerate(root, pattern string, recursive bool) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !recursive {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindInput, "scheduler.enumerate", "invalid glob pattern", err)
		}
		return matches, nil
	}

	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindSourceUnavailable, "scheduler.enumerate", "failed to walk input_path", err)
	}
	return matches, nil
}

// sampleFraction selects a random subset of matches sized at rate*len
// (rounded up to at least one match when rate > 0 and matches is
// non-empty), satisfying sample_image's "select a random sample_rate
// fraction" semantics.
func sampleFraction(matches []string, rate float64) []string {
	if rate <= 0 || rate >= 1 || len(matches) == 0 {
		return matches
	}
	n := int(float64(len(matches))*rate + 0.999999)
	if n < 1 {
		n = 1
	}
	if n >= len(matches) {
		return matches
	}
	shuffled := append([]string(nil), matches...)
	rand.New(rand.NewSource(time.Now().UnixNano())).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
