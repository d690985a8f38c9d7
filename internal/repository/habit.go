package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/realtime"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
)

// HabitRepository is the owner-scoped habit record store.
// Every read and write filters by owner, so a caller can never reach another owner's records.
type HabitRepository interface {
	Create(ctx context.Context, habit *model.Habit) error
	ByID(ctx context.Context, ownerID, habitID string) (*model.Habit, error)
	Habits(ctx context.Context, ownerID string) ([]*model.Habit, error)
	Update(ctx context.Context, habit *model.Habit) error
	Delete(ctx context.Context, ownerID, habitID string) error
	DeleteAll(ctx context.Context, ownerID string) error
	// ClaimLegacy assigns ownerID to records that were written with only the
	// legacy owner email and returns how many were claimed.
	ClaimLegacy(ctx context.Context, ownerID, ownerEmail string) (int, error)
	// Watch delivers the owner's full habit list now and after every change until
	// ctx is done. It returns nil on cancellation and an error when the store fails.
	Watch(ctx context.Context, ownerID string, onData func([]*model.Habit)) error
}

const habitColumns = `id, owner_id, owner_email, name, description, category, frequency, icon, color, completed, created_at, updated_at`

type habitRepository struct {
	db  *sqlx.DB
	hub *realtime.Hub
}

func NewHabitRepository(db *sqlx.DB, hub *realtime.Hub) HabitRepository {
	return &habitRepository{db: db, hub: hub}
}

func (r *habitRepository) Create(ctx context.Context, habit *model.Habit) error {
	query := `INSERT INTO habits (` + habitColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		habit.ID,
		habit.OwnerID,
		strings.ToLower(habit.OwnerEmail),
		habit.Name,
		habit.Description,
		habit.Category,
		habit.Frequency,
		habit.Icon,
		habit.Color,
		habit.Completed,
		habit.CreatedAt,
		habit.UpdatedAt,
	)
	if err != nil {
		return err
	}

	r.hub.Publish(habit.OwnerID)
	return nil
}

func (r *habitRepository) ByID(ctx context.Context, ownerID, habitID string) (*model.Habit, error) {
	habit := &model.Habit{}
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1 AND owner_id = $2`

	err := r.db.GetContext(ctx, habit, query, habitID, ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, err
	}

	return habit, nil
}

func (r *habitRepository) Habits(ctx context.Context, ownerID string) ([]*model.Habit, error) {
	habits := []*model.Habit{}
	query := `SELECT ` + habitColumns + ` FROM habits WHERE owner_id = $1 ORDER BY created_at DESC, id ASC`

	err := r.db.SelectContext(ctx, &habits, query, ownerID)
	if err != nil {
		return nil, err
	}

	return habits, nil
}

func (r *habitRepository) Update(ctx context.Context, habit *model.Habit) error {
	if habit.UpdatedAt == nil {
		now := time.Now()
		habit.UpdatedAt = &now
	}

	query := `UPDATE habits
	          SET name = $1, description = $2, category = $3, frequency = $4, icon = $5, color = $6, completed = $7, updated_at = $8
	          WHERE id = $9 AND owner_id = $10`

	result, err := r.db.ExecContext(ctx, query,
		habit.Name,
		habit.Description,
		habit.Category,
		habit.Frequency,
		habit.Icon,
		habit.Color,
		habit.Completed,
		habit.UpdatedAt,
		habit.ID,
		habit.OwnerID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrHabitNotFound
	}

	r.hub.Publish(habit.OwnerID)
	return nil
}

func (r *habitRepository) Delete(ctx context.Context, ownerID, habitID string) error {
	query := `DELETE FROM habits WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, habitID, ownerID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrHabitNotFound
	}

	r.hub.Publish(ownerID)
	return nil
}

func (r *habitRepository) DeleteAll(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE owner_id = $1`, ownerID)
	if err != nil {
		return err
	}

	r.hub.Publish(ownerID)
	return nil
}

func (r *habitRepository) ClaimLegacy(ctx context.Context, ownerID, ownerEmail string) (int, error) {
	query := `UPDATE habits SET owner_id = $1 WHERE owner_id = '' AND owner_email = $2`

	result, err := r.db.ExecContext(ctx, query, ownerID, strings.ToLower(strings.TrimSpace(ownerEmail)))
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if rows > 0 {
		r.hub.Publish(ownerID)
	}
	return int(rows), nil
}

func (r *habitRepository) Watch(ctx context.Context, ownerID string, onData func([]*model.Habit)) error {
	// Register before the first read so no change between read and wait is lost
	notify, cancel := r.hub.Subscribe(ownerID)
	defer cancel()

	for {
		habits, err := r.Habits(ctx, ownerID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		onData(habits)

		select {
		case <-ctx.Done():
			return nil
		case <-notify:
		}
	}
}
