package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitmate/habitmate/internal/db/dbtest"
	"github.com/habitmate/habitmate/internal/model"
)

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(dbtest.New(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()}))

	err := repo.Create(ctx, &model.User{ID: "u2", Email: "a@example.com", PasswordHash: "y", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_LookupsAndPassword(t *testing.T) {
	repo := NewUserRepository(dbtest.New(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{ID: "u1", Email: "a@example.com", PasswordHash: "old", CreatedAt: time.Now()}))

	byEmail, err := repo.ByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	require.NoError(t, repo.UpdatePassword(ctx, "u1", "new"))
	byID, err := repo.ByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", byID.PasswordHash)

	_, err = repo.ByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "missing", "x"), ErrUserNotFound)
}

func TestUserRepository_DeleteCascadesProfileAndFiles(t *testing.T) {
	database := dbtest.New(t)
	users := NewUserRepository(database)
	profiles := NewProfileRepository(database)
	files := NewFileRepository(database)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &model.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()}))
	require.NoError(t, profiles.Create(ctx, &model.Profile{UserID: "u1", Name: "Alice"}))
	require.NoError(t, files.Create(ctx, &model.File{
		ID: "f1", UserID: "u1", OwnerType: model.FileOwnerUser, OwnerID: "u1", Type: model.FileTypeAvatar,
		Filename: "f1.png", OriginalName: "me.png", MimeType: "image/png", Size: 10, StoragePath: "avatars/u1/f1.png",
		Public: true, CreatedAt: time.Now(),
	}))

	require.NoError(t, users.Delete(ctx, "u1"))
	assert.ErrorIs(t, users.Delete(ctx, "u1"), ErrUserNotFound)

	_, err := profiles.ByUserID(ctx, "u1")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	all, err := files.AllUserFiles(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProfileRepository_UpdateDetails(t *testing.T) {
	database := dbtest.New(t)
	users := NewUserRepository(database)
	profiles := NewProfileRepository(database)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &model.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()}))
	require.NoError(t, profiles.Create(ctx, &model.Profile{UserID: "u1"}))

	require.NoError(t, profiles.UpdateName(ctx, "u1", "Alice"))
	require.NoError(t, profiles.UpdateDetails(ctx, &model.Profile{
		UserID: "u1", Name: "Alice B", Bio: "runner", PhoneNumber: "+1 555", Location: "Oslo", DateOfBirth: "1990-01-02",
	}))

	got, err := profiles.ByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", got.Name)
	assert.Equal(t, "runner", got.Bio)
	assert.Equal(t, "Oslo", got.Location)
	assert.Equal(t, "1990-01-02", got.DateOfBirth)

	assert.ErrorIs(t, profiles.UpdateName(ctx, "missing", "x"), ErrProfileNotFound)
}

func TestFileRepository_FileByTypeNewest(t *testing.T) {
	database := dbtest.New(t)
	users := NewUserRepository(database)
	files := NewFileRepository(database)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &model.User{ID: "u1", Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()}))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new"} {
		require.NoError(t, files.Create(ctx, &model.File{
			ID: id, UserID: "u1", OwnerType: model.FileOwnerUser, OwnerID: "u1", Type: model.FileTypeAvatar,
			Filename: id + ".png", OriginalName: id + ".png", MimeType: "image/png", Size: 1,
			StoragePath: "avatars/u1/" + id + ".png", Public: true, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	got, err := files.FileByType(ctx, model.FileOwnerUser, "u1", model.FileTypeAvatar)
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)

	require.NoError(t, files.Delete(ctx, "new"))
	got, err = files.FileByType(ctx, model.FileOwnerUser, "u1", model.FileTypeAvatar)
	require.NoError(t, err)
	assert.Equal(t, "old", got.ID)

	_, err = files.ByID(ctx, "new")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
