package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/stats"
)

func TestProgressService_ReportUsesCompletionLog(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()
	progress := NewProgressService(f.service)

	run, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, "u1", HabitInput{Name: "Read", Category: "Learning"})
	require.NoError(t, err)

	for i, day := range []string{"2024-03-09", "2024-03-10"} {
		require.NoError(t, f.completions.Add(ctx, &model.Completion{
			ID:          "c" + day,
			HabitID:     run.ID,
			OwnerID:     "u1",
			Day:         day,
			CompletedAt: testNow.AddDate(0, 0, i-2),
		}))
	}
	_, err = f.service.ToggleCompletion(ctx, "u1", run.ID)
	require.NoError(t, err)

	report := progress.Report(ctx, "u1")
	assert.Equal(t, 2, report.TotalHabits)
	assert.Equal(t, 1, report.CompletedHabits)
	assert.Equal(t, 50, report.CompletionRatio)
	assert.Equal(t, 3, report.CurrentStreak)
	assert.Equal(t, 3, report.LongestStreak)
	assert.Equal(t, 3, report.TotalCompletions)
}

func TestProgressService_ReportOfEmptyOwner(t *testing.T) {
	f := setupHabitService(t)
	progress := NewProgressService(f.service)

	report := progress.Report(context.Background(), "nobody")
	assert.Equal(t, 0, report.TotalHabits)
	assert.Equal(t, 0, report.CompletionRatio)
	assert.Len(t, report.Week, 7)
}

func TestProgressService_StoreFailureIsEmptyReport(t *testing.T) {
	f := setupHabitService(t)
	svc := NewHabitService(&failingHabitRepo{err: errors.New("offline")}, f.completions, f.cache, nil, time.UTC).
		WithClock(func() time.Time { return testNow })

	report := NewProgressService(svc).Report(context.Background(), "u1")
	assert.Equal(t, 0, report.TotalHabits)
}

func TestProgressService_Summary(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	habit, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)
	_, err = f.service.ToggleCompletion(ctx, "u1", habit.ID)
	require.NoError(t, err)

	summary := NewProgressService(f.service).Summary(ctx, "u1")
	assert.Equal(t, 1, summary.TotalHabits)
	assert.Equal(t, 1, summary.BestStreak)
	assert.Len(t, summary.Badges, 4)
}

func TestProgressService_WatchRecomputes(t *testing.T) {
	f := setupHabitService(t)
	ctx := context.Background()

	reports := make(chan *stats.Report, 16)
	sub := NewProgressService(f.service).Watch(ctx, "u1", func(r *stats.Report) {
		reports <- r
	}, func(err error) {
		t.Errorf("unexpected error: %v", err)
	})
	defer sub.Close()

	first := nextReport(t, reports)
	assert.Equal(t, 0, first.TotalHabits)

	_, err := f.service.Create(ctx, "u1", HabitInput{Name: "Run", Category: "Health"})
	require.NoError(t, err)

	assert.Equal(t, 1, nextReport(t, reports).TotalHabits)
}

func nextReport(t *testing.T, reports <-chan *stats.Report) *stats.Report {
	t.Helper()
	select {
	case r := <-reports:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for report")
		return nil
	}
}
