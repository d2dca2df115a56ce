// Package main runs the duel simulator: it spawns the configured scenario and
// steps the combat world until signalled or the scenario duration elapses.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/config"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	seed := flag.Uint64("seed", 0, "override simulation.seed; 0 keeps the configured value")
	scripts := flag.String("scripts", "", "override content.scripts_dir")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *scripts != "" {
		cfg.Content.ScriptsDir = *scripts
	}

	ctx := context.Background()
	app, cleanup, err := InitializeApp(ctx, &cfg)
	if err != nil {
		log.Fatalf("initializing duel simulator: %v", err)
	}
	defer cleanup()

	if err := app.Populate(); err != nil {
		app.logger.Fatal("populating scenario", zap.Error(err))
	}
	app.logger.Info("duel simulator ready", zap.Duration("startup", time.Since(start)))

	if err := app.Run(ctx); err != nil {
		app.logger.Error("duel simulator exited with error", zap.Error(err))
	}
}
