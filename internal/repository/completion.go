package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/realtime"
)

// CompletionRepository is the append-only completion log keyed by (habit, day).
type CompletionRepository interface {
	// Add records a completion; adding an existing (habit, day) key is a no-op.
	Add(ctx context.Context, completion *model.Completion) error
	Remove(ctx context.Context, ownerID, habitID, day string) error
	// Completions returns the owner's completions on or after since (YYYY-MM-DD, "" = all), oldest first.
	Completions(ctx context.Context, ownerID, since string) ([]*model.Completion, error)
	DeleteForHabit(ctx context.Context, ownerID, habitID string) error
}

type completionRepository struct {
	db  *sqlx.DB
	hub *realtime.Hub
}

func NewCompletionRepository(db *sqlx.DB, hub *realtime.Hub) CompletionRepository {
	return &completionRepository{db: db, hub: hub}
}

func (r *completionRepository) Add(ctx context.Context, completion *model.Completion) error {
	query := `INSERT INTO completions (id, habit_id, owner_id, day, completed_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (habit_id, day) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		completion.ID,
		completion.HabitID,
		completion.OwnerID,
		completion.Day,
		completion.CompletedAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows > 0 {
		r.hub.Publish(completion.OwnerID)
	}
	return nil
}

func (r *completionRepository) Remove(ctx context.Context, ownerID, habitID, day string) error {
	query := `DELETE FROM completions WHERE owner_id = $1 AND habit_id = $2 AND day = $3`

	result, err := r.db.ExecContext(ctx, query, ownerID, habitID, day)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows > 0 {
		r.hub.Publish(ownerID)
	}
	return nil
}

func (r *completionRepository) Completions(ctx context.Context, ownerID, since string) ([]*model.Completion, error) {
	completions := []*model.Completion{}
	query := `SELECT id, habit_id, owner_id, day, completed_at FROM completions
	          WHERE owner_id = $1 AND day >= $2
	          ORDER BY day ASC, habit_id ASC`

	err := r.db.SelectContext(ctx, &completions, query, ownerID, since)
	if err != nil {
		return nil, err
	}

	return completions, nil
}

func (r *completionRepository) DeleteForHabit(ctx context.Context, ownerID, habitID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM completions WHERE owner_id = $1 AND habit_id = $2`, ownerID, habitID)
	return err
}
