package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/config"
	"github.com/cory-johannsen/guardbreak/internal/game/enemy"
	"github.com/cory-johannsen/guardbreak/internal/game/geom"
	"github.com/cory-johannsen/guardbreak/internal/observability"
	"github.com/cory-johannsen/guardbreak/internal/scripting"
	"github.com/cory-johannsen/guardbreak/internal/server"
	"github.com/cory-johannsen/guardbreak/internal/sim"
)

// App owns a configured simulation and the services around it.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	sim       *sim.Simulation
	metrics   *observability.Metrics
	telemetry *Telemetry
	scripts   *scripting.Manager
	started   time.Time
}

// NewApp assembles an App. telemetry and scripts may be nil.
func NewApp(cfg *config.Config, logger *zap.Logger, s *sim.Simulation, m *observability.Metrics, t *Telemetry, scripts *scripting.Manager) *App {
	return &App{cfg: cfg, logger: logger, sim: s, metrics: m, telemetry: t, scripts: scripts}
}

func degrees(d float64) float64 { return d * math.Pi / 180 }

// Populate spawns the scenario's players and enemies.
//
// An enemy whose stats ID is unknown is still spawned, inert, and logged at
// error level.
func (a *App) Populate() error {
	stats, err := enemy.LoadStats(a.cfg.Content.EnemiesDir)
	if err != nil {
		return err
	}
	a.logger.Info("loaded enemy stats", zap.Int("count", len(stats)))

	for _, p := range a.cfg.Scenario.Players {
		if _, err := a.sim.SpawnPlayer(sim.PlayerSpec{
			Name:    p.Name,
			Pos:     geom.V(p.X, p.Y),
			Heading: degrees(p.Heading),
		}); err != nil {
			return fmt.Errorf("spawning player %q: %w", p.Name, err)
		}
	}

	for _, e := range a.cfg.Scenario.Enemies {
		var spec *enemy.Stats
		if st, ok := stats[e.Stats]; ok {
			cp := *st
			if e.Name != "" {
				cp.Name = e.Name
			}
			spec = &cp
		}
		id, err := a.sim.SpawnEnemy(spec, geom.V(e.X, e.Y), degrees(e.Heading))
		switch {
		case errors.Is(err, enemy.ErrStatsMissing):
			a.logger.Error("enemy has no stats and will stay idle",
				zap.String("id", id),
				zap.String("stats", e.Stats),
			)
		case err != nil:
			return fmt.Errorf("spawning enemy %q: %w", e.Stats, err)
		}
	}
	if a.scripts != nil {
		a.logger.Info("lua director attached", zap.String("dir", a.cfg.Content.ScriptsDir))
	}
	return nil
}

// Run starts every service and blocks until the simulation stops.
func (a *App) Run(ctx context.Context) error {
	lc := server.NewLifecycle(a.logger)
	if a.telemetry != nil {
		lc.Add("telemetry", server.NewContextService(a.telemetry.Buffer.Run))
	}
	if a.cfg.Metrics.Enabled {
		lc.Add("metrics", observability.NewMetricsServer(a.cfg.Metrics.Addr, a.metrics, a.logger))
	}
	if a.cfg.Scenario.StatusInterval > 0 {
		lc.Add("status", server.NewContextService(a.reportStatus))
	}
	lc.AddCritical("simulation", server.NewContextService(a.runSimulation))

	a.started = time.Now()
	err := lc.Run(ctx)
	a.summarize()
	return err
}

func (a *App) runSimulation(ctx context.Context) error {
	if d := a.cfg.Scenario.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return a.sim.Run(ctx)
}

// reportStatus logs a combatant summary every StatusInterval. The snapshot
// is taken on the simulation goroutine between ticks.
func (a *App) reportStatus(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Scenario.StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.sim.Enqueue(a.logSnapshot)
		}
	}
}

func (a *App) logSnapshot() {
	tick := a.sim.Clock().Tick()
	for _, st := range a.sim.Snapshot() {
		fields := []zap.Field{
			zap.Stringer("tick", tick),
			zap.String("name", st.Name),
			zap.Int("health", st.Health),
			zap.Stringer("guard", st.Guard),
			zap.Bool("defending", st.Defending),
			zap.Float64("x", st.Pos.X),
			zap.Float64("y", st.Pos.Y),
		}
		if st.Enemy {
			fields = append(fields, zap.Stringer("state", st.State))
		}
		a.logger.Info("combatant", fields...)
	}
}

// summarize logs per-swing block rates for this run's contacts.
func (a *App) summarize() {
	if a.telemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	written, dropped := a.telemetry.Buffer.Stats()
	stored, err := a.telemetry.Repo.CountRun(ctx, a.telemetry.RunID)
	if err != nil {
		a.logger.Warn("counting run contacts", zap.Error(err))
	}
	a.logger.Info("contact telemetry",
		zap.Stringer("run_id", a.telemetry.RunID),
		zap.Int64("stored", stored),
		zap.Int64("written", written),
		zap.Int64("dropped", dropped),
	)
	summary, err := a.telemetry.Repo.Summary(ctx, a.started)
	if err != nil {
		a.logger.Warn("summarizing contacts", zap.Error(err))
		return
	}
	for _, s := range summary {
		a.logger.Info("swing summary",
			zap.String("swing", s.Swing),
			zap.Int64("blocked", s.Blocked),
			zap.Int64("damaged", s.Damaged),
			zap.Float64("block_rate", s.BlockRate()),
		)
	}
}
