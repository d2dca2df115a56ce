package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/guardbreak/internal/storage/postgres"
	"github.com/cory-johannsen/guardbreak/internal/testutil"
)

func setupContactRepo(t *testing.T) *postgres.ContactRepository {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewContactRepository(pc.RawPool)
}

func record(run uuid.UUID, kind, swing string, damage int, at time.Time) postgres.ContactRecord {
	return postgres.ContactRecord{
		RunID:        run,
		SimTime:      1.5,
		RecordedAt:   at,
		Kind:         kind,
		Path:         "resolver",
		Hitbox:       "hero/blade",
		AttackerID:   "a",
		AttackerName: "hero",
		DefenderID:   "d",
		DefenderName: "brute",
		Swing:        swing,
		Guard:        "high",
		Damage:       damage,
	}
}

func TestContactRepository_InsertBatchAndSummary(t *testing.T) {
	repo := setupContactRepo(t)
	ctx := context.Background()
	run := uuid.New()
	now := time.Now().UTC()

	n, err := repo.InsertBatch(ctx, []postgres.ContactRecord{
		record(run, "blocked", "slot", 0, now),
		record(run, "damaged", "slot", 10, now),
		record(run, "damaged", "slot", 10, now),
		record(run, "blocked", "swing_lr", 0, now),
		record(run, "damaged", "swing_rl", 10, now.Add(-time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	count, err := repo.CountRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	summary, err := repo.Summary(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, postgres.SwingSummary{Swing: "slot", Blocked: 1, Damaged: 2, Damage: 20}, summary[0])
	assert.Equal(t, postgres.SwingSummary{Swing: "swing_lr", Blocked: 1}, summary[1])
	assert.InDelta(t, 1.0/3.0, summary[0].BlockRate(), 1e-9)
}

func TestContactRepository_InsertEmptyBatch(t *testing.T) {
	repo := setupContactRepo(t)
	n, err := repo.InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestContactRepository_RejectsUnknownKind(t *testing.T) {
	repo := setupContactRepo(t)
	_, err := repo.InsertBatch(context.Background(), []postgres.ContactRecord{
		record(uuid.New(), "ignored", "slot", 0, time.Now()),
	})
	assert.Error(t, err)
}

func TestSwingSummary_BlockRate(t *testing.T) {
	assert.Zero(t, postgres.SwingSummary{}.BlockRate())
	assert.Equal(t, 0.5, postgres.SwingSummary{Blocked: 2, Damaged: 2}.BlockRate())
}
