// Package config provides Viper-based configuration loading for the duel simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds tick and resolver tuning.
type SimulationConfig struct {
	TickRate int `mapstructure:"tick_rate"`
	// Seed makes a run replayable. 0 draws from crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// GuardMode is "direct" or "blend".
	GuardMode               string  `mapstructure:"guard_mode"`
	AutoClearSwing          bool    `mapstructure:"auto_clear_swing"`
	AutoClearAfter          float64 `mapstructure:"auto_clear_after"`
	BlendGuardThreshold     float64 `mapstructure:"blend_guard_threshold"`
	RequireStableBlend      bool    `mapstructure:"require_stable_blend"`
	BlendStabilityThreshold float64 `mapstructure:"blend_stability_threshold"`
	SwingActive             float64 `mapstructure:"swing_active"`
	GuardLerpSpeed          float64 `mapstructure:"guard_lerp_speed"`
	PlayerMaxHealth         int     `mapstructure:"player_max_health"`
	PlayerMoveSpeed         float64 `mapstructure:"player_move_speed"`
	// InstructionLimit bounds each director hook call. 0 uses the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// ArbiterConfig holds weapon hitbox tuning shared by every blade.
type ArbiterConfig struct {
	Damage                   int     `mapstructure:"damage"`
	HitCooldown              float64 `mapstructure:"hit_cooldown"`
	IgnoreBlockAfterBodyHit  float64 `mapstructure:"ignore_block_after_body_hit"`
	IgnoreDamageAfterBlock   float64 `mapstructure:"ignore_damage_after_block"`
	RequireDefendingForBlock bool    `mapstructure:"require_defending_for_block"`
	DirectionalGuard         bool    `mapstructure:"directional_guard"`
	GuardSide                string  `mapstructure:"guard_side"`
	SideDotThreshold         float64 `mapstructure:"side_dot_threshold"`
	RequireInFront           bool    `mapstructure:"require_in_front"`
	FrontDotThreshold        float64 `mapstructure:"front_dot_threshold"`
}

// ArenaConfig sizes the collision space.
type ArenaConfig struct {
	Width     float64 `mapstructure:"width"`
	Height    float64 `mapstructure:"height"`
	CellSize  int     `mapstructure:"cell_size"`
	BodySize  float64 `mapstructure:"body_size"`
	BladeSize float64 `mapstructure:"blade_size"`
	Reach     float64 `mapstructure:"reach"`
}

// ContentConfig locates enemy stat files and director scripts.
type ContentConfig struct {
	EnemiesDir string `mapstructure:"enemies_dir"`
	// ScriptsDir is optional; empty disables the Lua director.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// Placement positions one combatant at spawn.
type Placement struct {
	Name    string  `mapstructure:"name"`
	X       float64 `mapstructure:"x"`
	Y       float64 `mapstructure:"y"`
	Heading float64 `mapstructure:"heading"` // degrees
}

// EnemyPlacement spawns an enemy from a stats ID.
type EnemyPlacement struct {
	Placement `mapstructure:",squash"`
	Stats     string `mapstructure:"stats"`
}

// ScenarioConfig lists the combatants spawned at start.
type ScenarioConfig struct {
	Players []Placement      `mapstructure:"players"`
	Enemies []EnemyPlacement `mapstructure:"enemies"`
	// Duration stops the run after this long. 0 runs until signalled.
	Duration time.Duration `mapstructure:"duration"`
	// StatusInterval is how often a combatant summary is logged. 0 disables it.
	StatusInterval time.Duration `mapstructure:"status_interval"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelemetryConfig controls contact outcome persistence.
type TelemetryConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Arbiter    ArbiterConfig    `mapstructure:"arbiter"`
	Arena      ArenaConfig      `mapstructure:"arena"`
	Content    ContentConfig    `mapstructure:"content"`
	Scenario   ScenarioConfig   `mapstructure:"scenario"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// Validate checks all configuration invariants. The database section is only
// checked when telemetry is enabled.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateSimulation(c.Simulation),
		validateArbiter(c.Arbiter),
		validateArena(c.Arena),
		validateContent(c.Content),
		validateScenario(c.Scenario),
		validateTelemetry(c.Telemetry),
		validateMetrics(c.Metrics),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Telemetry.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickRate < 1 || s.TickRate > 1000 {
		errs = append(errs, fmt.Sprintf("simulation.tick_rate must be 1-1000, got %d", s.TickRate))
	}
	if s.GuardMode != "direct" && s.GuardMode != "blend" {
		errs = append(errs, fmt.Sprintf("simulation.guard_mode must be one of [direct, blend], got %q", s.GuardMode))
	}
	if s.AutoClearSwing && s.AutoClearAfter <= 0 {
		errs = append(errs, "simulation.auto_clear_after must be > 0 when auto_clear_swing is set")
	}
	if s.BlendGuardThreshold < 0 {
		errs = append(errs, "simulation.blend_guard_threshold must not be negative")
	}
	if s.SwingActive <= 0 {
		errs = append(errs, "simulation.swing_active must be > 0")
	}
	if s.GuardLerpSpeed < 0 {
		errs = append(errs, "simulation.guard_lerp_speed must not be negative")
	}
	if s.PlayerMaxHealth < 1 {
		errs = append(errs, fmt.Sprintf("simulation.player_max_health must be >= 1, got %d", s.PlayerMaxHealth))
	}
	if s.PlayerMoveSpeed < 0 {
		errs = append(errs, "simulation.player_move_speed must not be negative")
	}
	if s.InstructionLimit < 0 {
		errs = append(errs, "simulation.instruction_limit must not be negative")
	}
	return joined(errs)
}

func validateArbiter(a ArbiterConfig) error {
	var errs []string
	if a.Damage < 0 {
		errs = append(errs, "arbiter.damage must not be negative")
	}
	for name, v := range map[string]float64{
		"hit_cooldown":                a.HitCooldown,
		"ignore_block_after_body_hit": a.IgnoreBlockAfterBodyHit,
		"ignore_damage_after_block":   a.IgnoreDamageAfterBlock,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("arbiter.%s must not be negative", name))
		}
	}
	if a.GuardSide != "left" && a.GuardSide != "right" {
		errs = append(errs, fmt.Sprintf("arbiter.guard_side must be one of [left, right], got %q", a.GuardSide))
	}
	return joined(errs)
}

func validateArena(a ArenaConfig) error {
	var errs []string
	if a.Width <= 0 || a.Height <= 0 {
		errs = append(errs, "arena.width and arena.height must be > 0")
	}
	if a.CellSize < 1 {
		errs = append(errs, fmt.Sprintf("arena.cell_size must be >= 1, got %d", a.CellSize))
	}
	if a.BodySize <= 0 || a.BladeSize <= 0 {
		errs = append(errs, "arena.body_size and arena.blade_size must be > 0")
	}
	if a.Reach < 0 {
		errs = append(errs, "arena.reach must not be negative")
	}
	return joined(errs)
}

func validateContent(c ContentConfig) error {
	if c.EnemiesDir == "" {
		return fmt.Errorf("content.enemies_dir must not be empty")
	}
	return nil
}

func validateScenario(s ScenarioConfig) error {
	var errs []string
	names := make(map[string]bool)
	for i, p := range s.Players {
		if p.Name == "" {
			errs = append(errs, fmt.Sprintf("scenario.players[%d].name must not be empty", i))
		} else if names[p.Name] {
			errs = append(errs, fmt.Sprintf("scenario.players[%d].name %q is duplicated", i, p.Name))
		}
		names[p.Name] = true
	}
	for i, e := range s.Enemies {
		if e.Stats == "" {
			errs = append(errs, fmt.Sprintf("scenario.enemies[%d].stats must not be empty", i))
		}
	}
	if s.Duration < 0 {
		errs = append(errs, "scenario.duration must not be negative")
	}
	if s.StatusInterval < 0 {
		errs = append(errs, "scenario.status_interval must not be negative")
	}
	return joined(errs)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateTelemetry(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	var errs []string
	if t.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("telemetry.batch_size must be >= 1, got %d", t.BatchSize))
	}
	if t.FlushInterval <= 0 {
		errs = append(errs, "telemetry.flush_interval must be > 0")
	}
	return joined(errs)
}

func validateMetrics(m MetricsConfig) error {
	if m.Enabled && m.Addr == "" {
		return fmt.Errorf("metrics.addr must not be empty when metrics are enabled")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("GUARDBREAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.tick_rate", 50)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.guard_mode", "direct")
	v.SetDefault("simulation.auto_clear_swing", true)
	v.SetDefault("simulation.auto_clear_after", 0.35)
	v.SetDefault("simulation.blend_guard_threshold", 0.25)
	v.SetDefault("simulation.require_stable_blend", false)
	v.SetDefault("simulation.blend_stability_threshold", 0.1)
	v.SetDefault("simulation.swing_active", 0.3)
	v.SetDefault("simulation.guard_lerp_speed", 10)
	v.SetDefault("simulation.player_max_health", 100)
	v.SetDefault("simulation.player_move_speed", 6)
	v.SetDefault("simulation.instruction_limit", 0)

	v.SetDefault("arbiter.damage", 10)
	v.SetDefault("arbiter.hit_cooldown", 0.15)
	v.SetDefault("arbiter.ignore_block_after_body_hit", 0.5)
	v.SetDefault("arbiter.ignore_damage_after_block", 0.35)
	v.SetDefault("arbiter.require_defending_for_block", true)
	v.SetDefault("arbiter.directional_guard", false)
	v.SetDefault("arbiter.guard_side", "right")
	v.SetDefault("arbiter.side_dot_threshold", 0)
	v.SetDefault("arbiter.require_in_front", true)
	v.SetDefault("arbiter.front_dot_threshold", 0)

	v.SetDefault("arena.width", 200)
	v.SetDefault("arena.height", 200)
	v.SetDefault("arena.cell_size", 2)
	v.SetDefault("arena.body_size", 0.8)
	v.SetDefault("arena.blade_size", 0.6)
	v.SetDefault("arena.reach", 1.3)

	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.scripts_dir", "")

	v.SetDefault("scenario.duration", "0s")
	v.SetDefault("scenario.status_interval", "5s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "guardbreak")
	v.SetDefault("database.password", "guardbreak")
	v.SetDefault("database.name", "guardbreak")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.batch_size", 256)
	v.SetDefault("telemetry.flush_interval", "2s")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}
