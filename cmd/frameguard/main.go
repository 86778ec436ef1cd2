// Command frameguard wires up the detector pipeline, scheduler, and stream
// manager and runs until interrupted. There is no HTTP or CLI surface here
// by design: this binary exists to prove the wiring in internal/app runs,
// not to expose it.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rendiffdev/frameguard/internal/app"
	"github.com/rendiffdev/frameguard/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	ctx.Logger.Info().Msg("frameguard starting")

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx.Start(runCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx.Logger.Info().Msg("frameguard shutting down")
	cancel()
	ctx.Stop()
}
