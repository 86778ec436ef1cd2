// Package app wires the module's packages into one process-wide context,
// replacing the implicit global state a smaller program might reach for
// with an explicit, constructed-once object every caller threads through.
package app

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/rendiffdev/frameguard/internal/config"
	"github.com/rendiffdev/frameguard/internal/detect"
	"github.com/rendiffdev/frameguard/internal/mediasource"
	"github.com/rendiffdev/frameguard/internal/pipeline"
	"github.com/rendiffdev/frameguard/internal/profile"
	"github.com/rendiffdev/frameguard/internal/scheduler"
	"github.com/rendiffdev/frameguard/internal/stream"
	"github.com/rendiffdev/frameguard/internal/video"
	"github.com/rendiffdev/frameguard/internal/xerrors"
	"github.com/rendiffdev/frameguard/pkg/logger"
)

// Context holds every long-lived collaborator the module's operations run
// against. It is built once at process startup and never copied.
type Context struct {
	Config *config.Config
	Logger zerolog.Logger

	Registry    *detect.Registry
	Profiles    *profile.Store
	Image       *pipeline.Pipeline
	Video       *video.Pipeline
	MediaSource *mediasource.Resolver

	SchedulerStore *scheduler.Store
	Scheduler      *scheduler.Scheduler
	Streams        *stream.Manager
}

// New constructs a Context in dependency order: registry, then profiles,
// then the image/video pipelines built on top of them, then the scheduler
// and stream manager that drive those pipelines over time. Mirrors the
// teacher's config -> logger -> db -> ffprobe-validation -> router startup
// sequence, retargeted to this module's own layers.
func New(cfg *config.Config) (*Context, error) {
	log := logger.New(cfg.LogLevel)

	if err := validateMediaTools(cfg); err != nil {
		return nil, err
	}

	registry := detect.NewDefaultRegistry()

	profiles := profile.NewStore(cfg.ProfilesPath)
	if err := profiles.Load(); err != nil {
		return nil, err
	}

	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	imagePipeline := pipeline.New(registry,
		time.Duration(cfg.PipelineDeadlineMS)*time.Millisecond,
		time.Duration(cfg.DetectorDeadlineMS)*time.Millisecond,
	)
	videoPipeline := video.New(imagePipeline, workers)

	mediaSource, err := mediasource.NewResolver(mediasource.Config{
		Provider:  cfg.StorageProvider,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Endpoint:  cfg.StorageEndpoint,
		TempDir:   cfg.TempDir,
	})
	if err != nil {
		return nil, err
	}

	schedulerStore, err := scheduler.NewStore(cfg.StoreRoot)
	if err != nil {
		return nil, err
	}
	executor := &scheduler.Executor{
		Image:       imagePipeline,
		Video:       videoPipeline,
		Profiles:    profiles,
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
	}
	sched := scheduler.New(schedulerStore, executor, cfg.SchedulerWorkerCount)

	streams := stream.NewManager(imagePipeline, videoPipeline)

	return &Context{
		Config:         cfg,
		Logger:         log,
		Registry:       registry,
		Profiles:       profiles,
		Image:          imagePipeline,
		Video:          videoPipeline,
		MediaSource:    mediaSource,
		SchedulerStore: schedulerStore,
		Scheduler:      sched,
		Streams:        streams,
	}, nil
}

// Start begins the scheduler's tick loop. Call once after New succeeds.
func (c *Context) Start(ctx context.Context) {
	c.Scheduler.Start(ctx)
}

// Stop drains the scheduler's tick loop. In-flight task executions and
// stream workers are left to their own lifecycle (Streams.Stop per id).
func (c *Context) Stop() {
	c.Scheduler.Stop()
}

// validateMediaTools confirms ffmpeg/ffprobe are resolvable before any
// request can reach them, mirroring the teacher's startup-time
// ValidateBinaryAtStartup check (there backed by a real exec.CommandContext
// "-version" probe; here a PATH/absolute-path lookup suffices since this
// module's decode package validates actual invocation per call).
func validateMediaTools(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegPath); err != nil {
		return xerrors.Wrap(xerrors.KindConfig, "app.New", "ffmpeg binary not found: "+cfg.FFmpegPath, err)
	}
	if _, err := exec.LookPath(cfg.FFprobePath); err != nil {
		return xerrors.Wrap(xerrors.KindConfig, "app.New", "ffprobe binary not found: "+cfg.FFprobePath, err)
	}
	return nil
}
