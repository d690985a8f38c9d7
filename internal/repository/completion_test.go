package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitmate/habitmate/internal/db/dbtest"
	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/realtime"
)

func TestCompletionRepository_AddIsIdempotent(t *testing.T) {
	database := dbtest.New(t)
	hub := realtime.NewHub()
	habits := NewHabitRepository(database, hub)
	repo := NewCompletionRepository(database, hub)
	ctx := context.Background()

	require.NoError(t, habits.Create(ctx, newHabit("h1", "u1", time.Now())))

	c := &model.Completion{ID: "c1", HabitID: "h1", OwnerID: "u1", Day: "2024-03-10", CompletedAt: time.Now()}
	require.NoError(t, repo.Add(ctx, c))

	dup := &model.Completion{ID: "c2", HabitID: "h1", OwnerID: "u1", Day: "2024-03-10", CompletedAt: time.Now()}
	require.NoError(t, repo.Add(ctx, dup))

	got, err := repo.Completions(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}

func TestCompletionRepository_SinceAndOrder(t *testing.T) {
	database := dbtest.New(t)
	hub := realtime.NewHub()
	habits := NewHabitRepository(database, hub)
	repo := NewCompletionRepository(database, hub)
	ctx := context.Background()

	require.NoError(t, habits.Create(ctx, newHabit("h1", "u1", time.Now())))
	require.NoError(t, habits.Create(ctx, newHabit("h2", "u1", time.Now())))

	for i, day := range []string{"2024-03-12", "2024-03-01", "2024-03-10"} {
		require.NoError(t, repo.Add(ctx, &model.Completion{
			ID: "c" + day, HabitID: []string{"h1", "h2", "h1"}[i], OwnerID: "u1", Day: day, CompletedAt: time.Now(),
		}))
	}

	got, err := repo.Completions(ctx, "u1", "2024-03-05")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-10", got[0].Day)
	assert.Equal(t, "2024-03-12", got[1].Day)

	none, err := repo.Completions(ctx, "u2", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCompletionRepository_RemoveOnlyThatDay(t *testing.T) {
	database := dbtest.New(t)
	hub := realtime.NewHub()
	habits := NewHabitRepository(database, hub)
	repo := NewCompletionRepository(database, hub)
	ctx := context.Background()

	require.NoError(t, habits.Create(ctx, newHabit("h1", "u1", time.Now())))
	require.NoError(t, repo.Add(ctx, &model.Completion{ID: "a", HabitID: "h1", OwnerID: "u1", Day: "2024-03-09", CompletedAt: time.Now()}))
	require.NoError(t, repo.Add(ctx, &model.Completion{ID: "b", HabitID: "h1", OwnerID: "u1", Day: "2024-03-10", CompletedAt: time.Now()}))

	require.NoError(t, repo.Remove(ctx, "u1", "h1", "2024-03-10"))
	// removing an absent key is not an error
	require.NoError(t, repo.Remove(ctx, "u1", "h1", "2024-03-10"))

	got, err := repo.Completions(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-09", got[0].Day)
}

func TestCompletionRepository_CascadeOnHabitDelete(t *testing.T) {
	database := dbtest.New(t)
	hub := realtime.NewHub()
	habits := NewHabitRepository(database, hub)
	repo := NewCompletionRepository(database, hub)
	ctx := context.Background()

	require.NoError(t, habits.Create(ctx, newHabit("h1", "u1", time.Now())))
	require.NoError(t, repo.Add(ctx, &model.Completion{ID: "a", HabitID: "h1", OwnerID: "u1", Day: "2024-03-09", CompletedAt: time.Now()}))

	require.NoError(t, habits.Delete(ctx, "u1", "h1"))

	got, err := repo.Completions(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompletionRepository_AddPublishes(t *testing.T) {
	database := dbtest.New(t)
	hub := realtime.NewHub()
	habits := NewHabitRepository(database, hub)
	repo := NewCompletionRepository(database, hub)
	ctx := context.Background()

	require.NoError(t, habits.Create(ctx, newHabit("h1", "u1", time.Now())))

	notify, cancel := hub.Subscribe("u1")
	defer cancel()

	require.NoError(t, repo.Add(ctx, &model.Completion{ID: "a", HabitID: "h1", OwnerID: "u1", Day: "2024-03-09", CompletedAt: time.Now()}))

	select {
	case <-notify:
	case <-time.After(time.Second):
		t.Fatal("expected notification after add")
	}
}
