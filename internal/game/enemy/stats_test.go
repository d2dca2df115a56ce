package enemy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/guardbreak/internal/game/enemy"
)

const bruteYAML = `
id: brute
name: Brute
max_health: 180
attack_range: 2.6
randomize_guards: false
guard_weights:
  left: 2
  high: 1
  right: 0
`

func TestLoadStatsFromBytes_FillsDefaults(t *testing.T) {
	s, err := enemy.LoadStatsFromBytes([]byte(bruteYAML))
	require.NoError(t, err)
	assert.Equal(t, "brute", s.ID)
	assert.Equal(t, 180, s.MaxHealth)
	assert.Equal(t, 2.6, s.AttackRange)
	assert.Equal(t, 30.0, s.AcquireRadius)
	assert.Equal(t, 0.5, s.AttackDuration)
	assert.False(t, s.RandomizeGuards)
	assert.Equal(t, 2.0, s.GuardWeights.Left)
}

func TestStats_Validate_CollectsAllErrors(t *testing.T) {
	s := enemy.DefaultStats()
	s.MaxHealth = 0
	s.MinAttackCooldown = 3
	s.MaxAttackCooldown = 1
	s.AttackDuration = 0
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_health")
	assert.Contains(t, err.Error(), "attack cooldown")
	assert.Contains(t, err.Error(), "attack_duration")
}

func TestStats_Validate_ZeroWeightsOnlyMatterWhenRandomized(t *testing.T) {
	s := enemy.DefaultStats()
	s.GuardWeights.Left, s.GuardWeights.High, s.GuardWeights.Right = 0, 0, 0
	assert.Error(t, s.Validate())
	s.RandomizeGuards = false
	assert.NoError(t, s.Validate())
}

func TestLoadStats_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brute.yaml"), []byte(bruteYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	all, err := enemy.LoadStats(dir)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Brute", all["brute"].Name)
}

func TestLoadStats_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(bruteYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(bruteYAML), 0o644))
	_, err := enemy.LoadStats(dir)
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadStats_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: bad\nmax_health: -1\n"), 0o644))
	_, err := enemy.LoadStats(dir)
	assert.Error(t, err)
}

func TestLoadStats_MissingDir(t *testing.T) {
	_, err := enemy.LoadStats(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
