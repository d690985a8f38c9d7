package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitmate/habitmate/internal/cache"
	"github.com/habitmate/habitmate/internal/db/dbtest"
	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/realtime"
	"github.com/habitmate/habitmate/internal/repository"
	"github.com/habitmate/habitmate/internal/stats"
)

var testNow = time.Date(2024, 3, 11, 10, 30, 0, 0, time.UTC)

type habitFixture struct {
	database    *sqlx.DB
	service     *HabitService
	habits      repository.HabitRepository
	completions repository.CompletionRepository
	cache       *cache.Cache
	group       *SubscriptionGroup
}

func setupHabitService(t *testing.T) *habitFixture {
	t.Helper()

	hub := realtime.NewHub()
	database := dbtest.New(t)
	habits := repository.NewHabitRepository(database, hub)
	completions := repository.NewCompletionRepository(database, hub)

	c, err := cache.New(context.Background(), dbtest.New(t))
	require.NoError(t, err)

	group := NewSubscriptionGroup()
	t.Cleanup(group.CloseAll)

	svc := NewHabitService(habits, completions, c, group, time.UTC).
		WithClock(func() time.Time { return testNow })

	return &habitFixture{
		database:    database,
		service:     svc,
		habits:      habits,
		completions: completions,
		cache:       c,
		group:       group,
	}
}

func TestHabitService_CreateNormalizesAndResolvesAppearance(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	habit, err := f.service.Create(ctx, "u1", HabitInput{Name: "  Run  ", Category: "health "})
	require.NoError(t, err)

	assert.Equal(t, "Run", habit.Name)
	assert.Equal(t, "Health", habit.Category)
	assert.Equal(t, model.FrequencyDaily, habit.Frequency)
	assert.Equal(t, "fitness", habit.Icon)
	assert.Equal(t, "#10b981", habit.Color)
	assert.False(t, habit.Completed)
	assert.True(t, habit.CreatedAt.Equal(testNow))

	stored, err := f.habits.ByID(ctx, "u1", habit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Run", stored.Name)
}

func TestHabitService_CreateUnknownCategoryUsesOther(t *testing.T) {
	f := setupHabitService(t)

	habit, err := f.service.Create(context.Background(), "u1", HabitInput{Name: "Paint", Category: "art"})
	require.NoError(t, err)

	assert.Equal(t, "Art", habit.Category)
	assert.Equal(t, "apps", habit.Icon)
}

func TestHabitService_CreateValidation(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input HabitInput
	}{
		{"missing name", HabitInput{Name: "  ", Category: "Health"}},
		{"missing category", HabitInput{Name: "Run"}},
		{"bad frequency", HabitInput{Name: "Run", Category: "Health", Frequency: "hourly"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, "u1", tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Empty(t, f.service.List(ctx, "u1"))
}

func TestHabitService_ListMirrorsToCache(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)

	listed := f.service.List(ctx, "u1")
	require.Len(t, listed, 1)

	cached := f.service.CachedHabits(ctx, "u1")
	require.Len(t, cached, 1)
	assert.Equal(t, listed[0].ID, cached[0].ID)
}

func TestHabitService_ListStoreFailureIsEmpty(t *testing.T) {
	f := setupHabitService(t)
	svc := NewHabitService(&failingHabitRepo{err: errors.New("offline")}, f.completions, f.cache, nil, time.UTC)

	got := svc.List(context.Background(), "u1")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHabitService_ToggleTwiceRestoresRatio(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, "u1", HabitInput{Name: "Read", Category: "Learning"})
	require.NoError(t, err)

	ratio := func() int {
		return stats.Compute(stats.Input{Habits: f.service.List(ctx, "u1"), Now: testNow}).CompletionRatio
	}
	before := ratio()

	on, err := f.service.ToggleCompletion(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.True(t, on.Completed)
	assert.Equal(t, 50, ratio())

	log, err := f.completions.Completions(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "2024-03-11", log[0].Day)

	off, err := f.service.ToggleCompletion(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.False(t, off.Completed)
	assert.Equal(t, before, ratio())

	log, err = f.completions.Completions(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestHabitService_ToggleKeepsEarlierDays(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	habit, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)
	require.NoError(t, f.completions.Add(ctx, &model.Completion{
		ID: "c0", HabitID: habit.ID, OwnerID: "u1", Day: "2024-03-10", CompletedAt: testNow.AddDate(0, 0, -1),
	}))

	// yesterday's completion does not count as today
	listed := f.service.List(ctx, "u1")
	require.Len(t, listed, 1)
	assert.False(t, listed[0].Completed)

	_, err = f.service.ToggleCompletion(ctx, "u1", habit.ID)
	require.NoError(t, err)
	_, err = f.service.ToggleCompletion(ctx, "u1", habit.ID)
	require.NoError(t, err)

	log, err := f.completions.Completions(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "2024-03-10", log[0].Day)
}

func TestHabitService_UpdateMissingIsNotFound(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	existing, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)

	name := "Walk"
	_, err = f.service.Update(ctx, "u1", "missing", HabitPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	// another owner's id is just as absent
	_, err = f.service.Update(ctx, "u2", existing.ID, HabitPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := f.habits.ByID(ctx, "u1", existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Run", stored.Name)
}

func TestHabitService_UpdateCategoryRefreshesAppearance(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	habit, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health", Description: "5k"})
	require.NoError(t, err)

	category := "work"
	updated, err := f.service.Update(ctx, "u1", habit.ID, HabitPatch{Category: &category})
	require.NoError(t, err)

	assert.Equal(t, "Work", updated.Category)
	assert.Equal(t, "briefcase", updated.Icon)
	assert.Equal(t, "Run", updated.Name)
	assert.Equal(t, "5k", updated.Description)
	require.NotNil(t, updated.UpdatedAt)
}

func TestHabitService_UpdateValidation(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	habit, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)

	empty := ""
	_, err = f.service.Update(ctx, "u1", habit.ID, HabitPatch{Name: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.service.Update(ctx, "u1", habit.ID, HabitPatch{Category: &empty})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHabitService_Remove(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	habit, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)
	_, err = f.service.ToggleCompletion(ctx, "u1", habit.ID)
	require.NoError(t, err)

	require.NoError(t, f.service.Remove(ctx, "u1", habit.ID))
	assert.Empty(t, f.service.List(ctx, "u1"))

	log, err := f.completions.Completions(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, log)

	assert.ErrorIs(t, f.service.Remove(ctx, "u1", habit.ID), ErrNotFound)
}

func TestHabitService_ToggleMissingIsNotFound(t *testing.T) {
	f := setupHabitService(t)

	_, err := f.service.ToggleCompletion(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHabitService_WritesToVanishedHabitAreNotFound(t *testing.T) {
	tests := []struct {
		name      string
		afterRead bool
	}{
		{name: "deleted after read", afterRead: true},
		{name: "write finds no row", afterRead: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			name := "Walk"

			for _, op := range []func(*HabitService, string) error{
				func(svc *HabitService, id string) error {
					_, err := svc.ToggleCompletion(ctx, "u1", id)
					return err
				},
				func(svc *HabitService, id string) error {
					_, err := svc.Update(ctx, "u1", id, HabitPatch{Name: &name})
					return err
				},
				func(svc *HabitService, id string) error {
					return svc.Remove(ctx, "u1", id)
				},
			} {
				f := setupHabitService(t)
				habit, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
				require.NoError(t, err)

				repo := &vanishingHabitRepo{HabitRepository: f.habits, afterRead: tt.afterRead}
				svc := NewHabitService(repo, f.completions, f.cache, nil, time.UTC).
					WithClock(func() time.Time { return testNow })

				assert.ErrorIs(t, op(svc, habit.ID), ErrNotFound)

				log, err := f.completions.Completions(ctx, "u1", "")
				require.NoError(t, err)
				assert.Empty(t, log)
			}
		})
	}
}

func TestHabitService_SearchAndByCategory(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	for _, in := range []HabitInput{
		{Name: "Morning run", Category: "Health"},
		{Name: "Read", Description: "Twenty pages", Category: "Learning"},
		{Name: "Stretch", Category: "health"},
	} {
		_, err := f.service.Create(ctx, "u1", in)
		require.NoError(t, err)
	}

	assert.Len(t, f.service.Search(ctx, "u1", ""), 3)
	assert.Len(t, f.service.Search(ctx, "u1", "RUN"), 1)
	assert.Len(t, f.service.Search(ctx, "u1", "pages"), 1)
	assert.Len(t, f.service.Search(ctx, "u1", "health"), 2)
	assert.Empty(t, f.service.Search(ctx, "u1", "swim"))

	assert.Len(t, f.service.ByCategory(ctx, "u1", "HEALTH"), 2)
	assert.Len(t, f.service.ByCategory(ctx, "u1", "Learning"), 1)
	assert.Empty(t, f.service.ByCategory(ctx, "u1", "Work"))
}

func TestHabitService_SubscribeDeliversSnapshots(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	var mu sync.Mutex
	var snapshots [][]*model.Habit
	delivered := make(chan struct{}, 16)

	sub := f.service.Subscribe(ctx, "u1", func(habits []*model.Habit) {
		mu.Lock()
		snapshots = append(snapshots, habits)
		mu.Unlock()
		delivered <- struct{}{}
	}, func(err error) {
		t.Errorf("unexpected error: %v", err)
	})

	waitFor(t, delivered)
	_, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)
	waitFor(t, delivered)

	assert.Equal(t, 1, f.group.Len())
	sub.Close()
	sub.Close()

	mu.Lock()
	defer mu.Unlock()
	last := snapshots[len(snapshots)-1]
	require.Len(t, last, 1)
	assert.Equal(t, "Run", last[0].Name)
	assert.Len(t, f.service.CachedHabits(ctx, "u1"), 1)
}

func TestHabitService_SubscribeFallsBackToCache(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	cached := []*model.Habit{{ID: "h1", OwnerID: "u1", Name: "Run", Category: "Health", CreatedAt: testNow}}
	require.NoError(t, f.cache.SetHabits(ctx, "u1", cached))

	svc := NewHabitService(&failingHabitRepo{err: errors.New("listener dropped")}, f.completions, f.cache, f.group, time.UTC)

	var errs []error
	var got []*model.Habit
	sub := svc.Subscribe(ctx, "u1", func(habits []*model.Habit) {
		got = habits
	}, func(err error) {
		errs = append(errs, err)
	})

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not finish after listener failure")
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrTransport)
	require.Len(t, got, 1)
	assert.Equal(t, "h1", got[0].ID)
}

func TestHabitService_SubscribeEndsWithContext(t *testing.T) {
	f := setupHabitService(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub := f.service.Subscribe(ctx, "u1", func([]*model.Habit) {}, func(err error) {
		t.Errorf("unexpected error: %v", err)
	})
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription outlived its context")
	}
}

func TestProjectCompleted(t *testing.T) {
	habits := []*model.Habit{
		{ID: "tracked-today"},
		{ID: "tracked-yesterday", Completed: true},
		{ID: "untracked", Completed: true},
	}
	completions := []*model.Completion{
		{HabitID: "tracked-today", Day: "2024-03-11"},
		{HabitID: "tracked-yesterday", Day: "2024-03-10"},
	}

	projectCompleted(habits, completions, "2024-03-11")

	assert.True(t, habits[0].Completed)
	assert.False(t, habits[1].Completed)
	assert.True(t, habits[2].Completed)
}

// failingHabitRepo fails every read and the listener.
type failingHabitRepo struct {
	repository.HabitRepository
	err error
}

func (r *failingHabitRepo) Habits(context.Context, string) ([]*model.Habit, error) {
	return nil, r.err
}

func (r *failingHabitRepo) Watch(context.Context, string, func([]*model.Habit)) error {
	return r.err
}

// vanishingHabitRepo loses the habit between the service's read and its write.
// With afterRead the row is deleted right after the first ByID; otherwise
// Update and Delete report it missing while the row stays in place.
type vanishingHabitRepo struct {
	repository.HabitRepository
	afterRead bool
	once      sync.Once
}

func (r *vanishingHabitRepo) ByID(ctx context.Context, ownerID, habitID string) (*model.Habit, error) {
	habit, err := r.HabitRepository.ByID(ctx, ownerID, habitID)
	if r.afterRead {
		r.once.Do(func() { _ = r.HabitRepository.Delete(ctx, ownerID, habitID) })
	}
	return habit, err
}

func (r *vanishingHabitRepo) Update(ctx context.Context, habit *model.Habit) error {
	if !r.afterRead {
		return repository.ErrHabitNotFound
	}
	return r.HabitRepository.Update(ctx, habit)
}

func (r *vanishingHabitRepo) Delete(ctx context.Context, ownerID, habitID string) error {
	if !r.afterRead {
		return repository.ErrHabitNotFound
	}
	return r.HabitRepository.Delete(ctx, ownerID, habitID)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}
