package service

import (
	"context"
	"log/slog"

	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/stats"
)

// ProgressService feeds habit snapshots through the statistics engine.
// Every report is recomputed from scratch.
type ProgressService struct {
	habits *HabitService
}

func NewProgressService(habits *HabitService) *ProgressService {
	return &ProgressService{habits: habits}
}

// Report computes the progress report for the owner's current habits.
// A store failure yields the report of an empty list, like HabitService.List.
func (s *ProgressService) Report(ctx context.Context, ownerID string) *stats.Report {
	return stats.Compute(s.input(ctx, ownerID))
}

// Summary computes the lifetime profile statistics.
func (s *ProgressService) Summary(ctx context.Context, ownerID string) *stats.Summary {
	return stats.Summarize(s.input(ctx, ownerID))
}

// Watch recomputes the report on every habit snapshot.
func (s *ProgressService) Watch(ctx context.Context, ownerID string, onReport func(*stats.Report), onError func(error)) *Subscription {
	return s.habits.watch(ctx, ownerID, func(habits []*model.Habit, completions []*model.Completion) {
		onReport(stats.Compute(stats.Input{
			Habits:      habits,
			Completions: completions,
			Now:         s.habits.Now(),
		}))
	}, onError)
}

func (s *ProgressService) input(ctx context.Context, ownerID string) stats.Input {
	habits, completions, err := s.habits.load(ctx, ownerID)
	if err != nil {
		slog.Error("failed to load habits for progress", "owner_id", ownerID, "error", err)
		habits, completions = []*model.Habit{}, []*model.Completion{}
	}
	return stats.Input{
		Habits:      habits,
		Completions: completions,
		Now:         s.habits.Now(),
	}
}
