package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContactRecord is one persisted contact outcome.
type ContactRecord struct {
	RunID        uuid.UUID
	SimTime      float64
	RecordedAt   time.Time
	Kind         string
	Path         string
	Hitbox       string
	AttackerID   string
	AttackerName string
	DefenderID   string
	DefenderName string
	Swing        string
	Guard        string
	Damage       int
}

// SwingSummary aggregates outcomes for one swing direction.
type SwingSummary struct {
	Swing   string
	Blocked int64
	Damaged int64
	Damage  int64
}

// BlockRate returns Blocked / (Blocked + Damaged), or 0 with no contacts.
func (s SwingSummary) BlockRate() float64 {
	total := s.Blocked + s.Damaged
	if total == 0 {
		return 0
	}
	return float64(s.Blocked) / float64(total)
}

var contactColumns = []string{
	"run_id", "sim_time", "recorded_at", "kind", "path", "hitbox",
	"attacker_id", "attacker_name", "defender_id", "defender_name",
	"swing", "guard", "damage",
}

// ContactRepository stores contact telemetry.
type ContactRepository struct {
	db *pgxpool.Pool
}

// NewContactRepository creates a ContactRepository backed by db.
//
// Precondition: db must be a valid, open connection pool.
func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

// InsertBatch copies records into contact_events in one round trip.
//
// Postcondition: returns the number of rows written. An empty batch is a no-op.
func (r *ContactRepository) InsertBatch(ctx context.Context, records []ContactRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"contact_events"},
		contactColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			c := records[i]
			return []any{
				c.RunID, c.SimTime, c.RecordedAt, c.Kind, c.Path, c.Hitbox,
				c.AttackerID, c.AttackerName, c.DefenderID, c.DefenderName,
				c.Swing, c.Guard, c.Damage,
			}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("copying contact events: %w", err)
	}
	return n, nil
}

// Summary aggregates contacts recorded at or after since, per swing,
// ordered by swing name.
func (r *ContactRepository) Summary(ctx context.Context, since time.Time) ([]SwingSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT swing,
		       COUNT(*) FILTER (WHERE kind = 'blocked'),
		       COUNT(*) FILTER (WHERE kind = 'damaged'),
		       COALESCE(SUM(damage), 0)
		FROM contact_events
		WHERE recorded_at >= $1
		GROUP BY swing
		ORDER BY swing`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing contacts: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SwingSummary, error) {
		var s SwingSummary
		err := row.Scan(&s.Swing, &s.Blocked, &s.Damaged, &s.Damage)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning contact summary: %w", err)
	}
	return out, nil
}

// CountRun returns the number of contacts recorded for runID.
func (r *ContactRepository) CountRun(ctx context.Context, runID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contact_events WHERE run_id = $1`, runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting contacts: %w", err)
	}
	return n, nil
}
