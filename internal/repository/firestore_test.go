package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitmate/habitmate/internal/model"
)

func TestSortHabits_NewestFirstThenID(t *testing.T) {
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	habits := []*model.Habit{
		{ID: "b", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(time.Hour)},
		{ID: "a", CreatedAt: base},
	}

	sortHabits(habits)

	assert.Equal(t, "c", habits[0].ID)
	assert.Equal(t, "a", habits[1].ID)
	assert.Equal(t, "b", habits[2].ID)
}

// newEmulatorRepos connects to the Firestore emulator and skips when it is not running.
func newEmulatorRepos(t *testing.T) (HabitRepository, CompletionRepository) {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := NewFirestoreClient(context.Background(), "habitmate-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewFirestoreHabitRepository(client), NewFirestoreCompletionRepository(client)
}

func TestFirestoreHabitRepository_CRUD(t *testing.T) {
	habits, _ := newEmulatorRepos(t)
	ctx := context.Background()
	owner := uuid.New().String()
	id := uuid.New().String()

	require.NoError(t, habits.Create(ctx, newHabit(id, owner, time.Now().UTC())))

	got, err := habits.ByID(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = habits.ByID(ctx, "someone-else", id)
	assert.ErrorIs(t, err, ErrHabitNotFound)

	got.Name = "Renamed"
	require.NoError(t, habits.Update(ctx, got))

	list, err := habits.Habits(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Name)
	assert.NotNil(t, list[0].UpdatedAt)

	assert.ErrorIs(t, habits.Delete(ctx, "someone-else", id), ErrHabitNotFound)
	require.NoError(t, habits.Delete(ctx, owner, id))

	list, err = habits.Habits(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFirestoreHabitRepository_ClaimLegacy(t *testing.T) {
	habits, _ := newEmulatorRepos(t)
	ctx := context.Background()
	owner := uuid.New().String()
	email := uuid.New().String() + "@example.com"

	legacy := newHabit(uuid.New().String(), "", time.Now().UTC())
	legacy.OwnerEmail = email
	require.NoError(t, habits.Create(ctx, legacy))

	n, err := habits.ClaimLegacy(ctx, owner, email)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := habits.Habits(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, legacy.ID, list[0].ID)
}

func TestFirestoreHabitRepository_Watch(t *testing.T) {
	habits, _ := newEmulatorRepos(t)
	owner := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	delivered := make(chan []*model.Habit, 8)
	go func() {
		_ = habits.Watch(ctx, owner, func(list []*model.Habit) { delivered <- list })
	}()

	select {
	case list := <-delivered:
		assert.Empty(t, list)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, habits.Create(context.Background(), newHabit(uuid.New().String(), owner, time.Now().UTC())))

	select {
	case list := <-delivered:
		assert.Len(t, list, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot after create")
	}
}

func TestFirestoreCompletionRepository_AddRemove(t *testing.T) {
	_, completions := newEmulatorRepos(t)
	ctx := context.Background()
	owner := uuid.New().String()
	habitID := uuid.New().String()

	c := &model.Completion{ID: uuid.New().String(), HabitID: habitID, OwnerID: owner, Day: "2024-03-10", CompletedAt: time.Now().UTC()}
	require.NoError(t, completions.Add(ctx, c))
	require.NoError(t, completions.Add(ctx, c))

	list, err := completions.Completions(ctx, owner, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, completions.Remove(ctx, owner, habitID, "2024-03-10"))

	list, err = completions.Completions(ctx, owner, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}
