package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RunRecord is one finished autoplayer run.
type RunRecord struct {
	RunID    uuid.UUID
	Seed     int64
	ClassID  string
	Preset   string
	MaxDepth int
	Turns    int
	Gold     int
	Died     bool
	Won      bool
	KilledBy string
}

// RunsRepo persists run statistics.
type RunsRepo struct {
	db *DB
}

func NewRunsRepo(db *DB) *RunsRepo {
	return &RunsRepo{db: db}
}

// Insert records a finished run.
func (r *RunsRepo) Insert(ctx context.Context, rec RunRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO bot_runs (run_id, seed, class_id, preset, max_depth, turns, gold, died, won, killed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.RunID, rec.Seed, rec.ClassID, rec.Preset, rec.MaxDepth,
		rec.Turns, rec.Gold, rec.Died, rec.Won, rec.KilledBy,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// BestDepth returns the deepest run recorded for a class/preset pair.
func (r *RunsRepo) BestDepth(ctx context.Context, classID, preset string) (int, error) {
	var depth int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(max_depth), 0) FROM bot_runs
		WHERE class_id = $1 AND preset = $2`,
		classID, preset,
	).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("query best depth: %w", err)
	}
	return depth, nil
}
