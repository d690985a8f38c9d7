package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/habitmate/habitmate/internal/model"
)

type ProfileRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	UpdateName(ctx context.Context, userID, name string) error
	UpdateDetails(ctx context.Context, profile *model.Profile) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, user_id, name, bio, phone_number, location, date_of_birth, created_at, updated_at`

func (r *profileRepository) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)

	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = profile.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, profile.ID, profile.UserID, profile.Name, profile.Bio, profile.PhoneNumber, profile.Location,
		profile.DateOfBirth, profile.CreatedAt, profile.UpdatedAt)

	return err
}

func (r *profileRepository) UpdateName(ctx context.Context, userID, name string) error {
	return r.exec(ctx, `
		UPDATE profiles
		SET name = $1, updated_at = $2
		WHERE user_id = $3
	`, name, time.Now(), userID)
}

func (r *profileRepository) UpdateDetails(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now()

	return r.exec(ctx, `
		UPDATE profiles
		SET name = $1, bio = $2, phone_number = $3, location = $4, date_of_birth = $5, updated_at = $6
		WHERE user_id = $7
	`, profile.Name, profile.Bio, profile.PhoneNumber, profile.Location, profile.DateOfBirth, profile.UpdatedAt, profile.UserID)
}

func (r *profileRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}

	return nil
}
