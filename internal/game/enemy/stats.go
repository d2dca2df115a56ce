package enemy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/guardbreak/internal/game/stance"
)

// Stats is the immutable tuning of one enemy archetype, loaded from YAML.
type Stats struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	MaxHealth        int     `yaml:"max_health"`
	MoveSpeed        float64 `yaml:"move_speed"`
	RotationSpeed    float64 `yaml:"rotation_speed"` // degrees per second
	StoppingDistance float64 `yaml:"stopping_distance"`

	AcquireRadius   float64 `yaml:"acquire_radius"`
	GuardEnterRange float64 `yaml:"guard_enter_range"`
	AttackRange     float64 `yaml:"attack_range"`
	FaceTargetRange float64 `yaml:"face_target_range"`

	MinGuardHoldTime            float64 `yaml:"min_guard_hold_time"`
	MaxGuardHoldTime            float64 `yaml:"max_guard_hold_time"`
	AttackDelayAfterGuardSwitch float64 `yaml:"attack_delay_after_guard_switch"`

	MinAttackCooldown float64 `yaml:"min_attack_cooldown"`
	MaxAttackCooldown float64 `yaml:"max_attack_cooldown"`
	// AttackDuration is how long the Attacking state lasts before Recovering.
	AttackDuration float64 `yaml:"attack_duration"`

	ToggleDefending bool    `yaml:"toggle_defending"`
	DefendHoldTime  float64 `yaml:"defend_hold_time"`
	DefendDropTime  float64 `yaml:"defend_drop_time"`

	RandomizeGuards bool           `yaml:"randomize_guards"`
	GuardWeights    stance.Weights `yaml:"guard_weights"`

	// Debug raises state transition logs from debug to info.
	Debug bool `yaml:"debug"`
}

// DefaultStats returns the stock enemy tuning.
func DefaultStats() Stats {
	return Stats{
		ID:                          "default",
		Name:                        "Enemy",
		MaxHealth:                   100,
		MoveSpeed:                   3.5,
		RotationSpeed:               720,
		StoppingDistance:            1.8,
		AcquireRadius:               30,
		GuardEnterRange:             10,
		AttackRange:                 2.2,
		FaceTargetRange:             6,
		MinGuardHoldTime:            0.8,
		MaxGuardHoldTime:            1.5,
		AttackDelayAfterGuardSwitch: 0.3,
		MinAttackCooldown:           1.5,
		MaxAttackCooldown:           2.5,
		AttackDuration:              0.5,
		ToggleDefending:             true,
		DefendHoldTime:              2,
		DefendDropTime:              0.5,
		RandomizeGuards:             true,
		GuardWeights:                stance.EvenWeights(),
	}
}

// Validate checks every invariant and reports all violations together.
//
// Postcondition: Returns nil iff the stats are usable by a Controller.
func (s *Stats) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}
	if s.ID == "" {
		add("id must not be empty")
	}
	if s.MaxHealth < 1 {
		add("max_health must be >= 1")
	}
	if s.MoveSpeed < 0 || s.RotationSpeed < 0 || s.StoppingDistance < 0 {
		add("movement values must be >= 0")
	}
	if s.GuardEnterRange < 0 || s.AttackRange < 0 || s.FaceTargetRange < 0 {
		add("ranges must be >= 0")
	}
	if s.MinGuardHoldTime < 0 || s.MaxGuardHoldTime < s.MinGuardHoldTime {
		add("guard hold range [%g, %g] is invalid", s.MinGuardHoldTime, s.MaxGuardHoldTime)
	}
	if s.MinAttackCooldown < 0 || s.MaxAttackCooldown < s.MinAttackCooldown {
		add("attack cooldown range [%g, %g] is invalid", s.MinAttackCooldown, s.MaxAttackCooldown)
	}
	if s.AttackDuration <= 0 {
		add("attack_duration must be > 0")
	}
	if s.AttackDelayAfterGuardSwitch < 0 || s.DefendHoldTime < 0 || s.DefendDropTime < 0 {
		add("durations must be >= 0")
	}
	if s.RandomizeGuards {
		if err := s.GuardWeights.Validate(); err != nil {
			add("guard_weights: %v", err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	label := s.ID
	if label == "" {
		label = "?"
	}
	return fmt.Errorf("enemy stats %q: %w", label, errors.New(strings.Join(errs, "; ")))
}

// LoadStatsFromBytes parses one Stats document. Fields absent from the
// document keep their DefaultStats values.
//
// Postcondition: Returns validated stats or an error.
func LoadStatsFromBytes(data []byte) (*Stats, error) {
	s := DefaultStats()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing stats YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadStats reads every *.yaml file in dir, keyed by stats ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all stats or an error on the first failure or duplicate ID.
func LoadStats(dir string) (map[string]*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir %q: %w", dir, err)
	}

	out := make(map[string]*Stats)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		s, err := LoadStatsFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := out[s.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate enemy id %q", path, s.ID)
		}
		out[s.ID] = s
	}
	return out, nil
}
