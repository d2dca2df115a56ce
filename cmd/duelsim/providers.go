package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/config"
	"github.com/cory-johannsen/guardbreak/internal/game/combat"
	"github.com/cory-johannsen/guardbreak/internal/game/contact"
	"github.com/cory-johannsen/guardbreak/internal/game/dice"
	"github.com/cory-johannsen/guardbreak/internal/game/rig"
	"github.com/cory-johannsen/guardbreak/internal/observability"
	"github.com/cory-johannsen/guardbreak/internal/scripting"
	"github.com/cory-johannsen/guardbreak/internal/sim"
	"github.com/cory-johannsen/guardbreak/internal/storage/postgres"
	"github.com/cory-johannsen/guardbreak/internal/telemetry"
)

// ProviderSet builds an App from a loaded configuration.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideDiceSource,
	dice.NewLoggedRoller,
	ProvideSimConfig,
	observability.NewMetrics,
	wire.Bind(new(sim.Observer), new(*observability.Metrics)),
	ProvideTelemetry,
	ProvideRecorder,
	ProvideSimulation,
	ProvideScripting,
	NewApp,
)

// ProvideLogger builds the root logger. The cleanup flushes buffered entries.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideDiceSource returns a seeded source when simulation.seed is set and a
// crypto source otherwise.
func ProvideDiceSource(cfg *config.Config, logger *zap.Logger) dice.Source {
	if cfg.Simulation.Seed == 0 {
		logger.Info("dice source", zap.String("kind", "crypto"))
		return dice.NewCryptoSource()
	}
	logger.Info("dice source", zap.String("kind", "seeded"), zap.Uint64("seed", cfg.Simulation.Seed))
	return dice.NewSeededSource(cfg.Simulation.Seed)
}

// ProvideSimConfig maps the file configuration onto simulation tuning.
func ProvideSimConfig(cfg *config.Config) sim.Config {
	s, a := cfg.Simulation, cfg.Arbiter
	return sim.Config{
		TickRate: s.TickRate,
		Resolver: combat.ResolverConfig{
			Mode:                    combat.ParseGuardMode(s.GuardMode),
			AutoClearSwing:          s.AutoClearSwing,
			AutoClearAfter:          s.AutoClearAfter,
			BlendGuardThreshold:     s.BlendGuardThreshold,
			RequireStableBlend:      s.RequireStableBlend,
			BlendStabilityThreshold: s.BlendStabilityThreshold,
		},
		Rig: rig.Config{
			GuardLerpSpeed: s.GuardLerpSpeed,
			SwingActive:    s.SwingActive,
		},
		Hitbox: contact.HitboxConfig{
			Damage:                   a.Damage,
			HitCooldown:              a.HitCooldown,
			IgnoreBlockAfterBodyHit:  a.IgnoreBlockAfterBodyHit,
			IgnoreDamageAfterBlock:   a.IgnoreDamageAfterBlock,
			RequireDefendingForBlock: a.RequireDefendingForBlock,
			Guard: contact.DirectionalGuard{
				Enabled:           a.DirectionalGuard,
				Side:              contact.ParseSide(a.GuardSide),
				SideDotThreshold:  a.SideDotThreshold,
				RequireInFront:    a.RequireInFront,
				FrontDotThreshold: a.FrontDotThreshold,
			},
		},
		Arena:           sim.ArenaConfig(cfg.Arena),
		PlayerMaxHealth: s.PlayerMaxHealth,
		PlayerMoveSpeed: s.PlayerMoveSpeed,
	}
}

// Telemetry groups the contact persistence pipeline. A nil *Telemetry means
// persistence is disabled.
type Telemetry struct {
	RunID  uuid.UUID
	Pool   *postgres.Pool
	Repo   *postgres.ContactRepository
	Buffer *telemetry.Buffer
}

// ProvideTelemetry connects to PostgreSQL and builds the contact buffer when
// telemetry is enabled. The cleanup closes the pool.
func ProvideTelemetry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Telemetry, func(), error) {
	if !cfg.Telemetry.Enabled {
		return nil, func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	runID := uuid.New()
	repo := postgres.NewContactRepository(pool.DB())
	buf := telemetry.NewBuffer(telemetry.Config{
		BatchSize:     cfg.Telemetry.BatchSize,
		FlushInterval: cfg.Telemetry.FlushInterval,
	}, runID, repo, logger)
	logger.Info("contact telemetry enabled", zap.Stringer("run_id", runID))
	return &Telemetry{RunID: runID, Pool: pool, Repo: repo, Buffer: buf}, pool.Close, nil
}

// ProvideRecorder fans contacts out to metrics and, when enabled, telemetry.
func ProvideRecorder(m *observability.Metrics, t *Telemetry) contact.Recorder {
	rs := contact.Recorders{m}
	if t != nil {
		rs = append(rs, t.Buffer)
	}
	return rs
}

// ProvideSimulation builds the simulation with log feedback.
func ProvideSimulation(cfg sim.Config, src dice.Source, rec contact.Recorder, obs sim.Observer, logger *zap.Logger) *sim.Simulation {
	return sim.New(cfg, src, nil, rec, obs, logger)
}

// ProvideScripting loads the Lua director when content.scripts_dir is set and
// installs it on s. A nil manager means no director runs.
func ProvideScripting(cfg *config.Config, roller *dice.Roller, s *sim.Simulation, logger *zap.Logger) (*scripting.Manager, func(), error) {
	if cfg.Content.ScriptsDir == "" {
		return nil, func() {}, nil
	}
	mgr := scripting.NewManager(roller, logger, cfg.Simulation.InstructionLimit)
	if err := mgr.LoadDir(cfg.Content.ScriptsDir); err != nil {
		mgr.Close()
		return nil, nil, fmt.Errorf("loading scripts: %w", err)
	}
	if !mgr.HasHook(scripting.TickHook) {
		logger.Warn("scripts loaded without a tick hook", zap.String("dir", cfg.Content.ScriptsDir))
	}
	s.SetDirector(scripting.NewDirector(mgr, s))
	return mgr, mgr.Close, nil
}
