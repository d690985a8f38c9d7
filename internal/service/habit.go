package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/repository"
	"github.com/habitmate/habitmate/internal/validation"
)

// HabitCache is the last-known-list slot the façade mirrors every successful read into.
type HabitCache interface {
	Habits(ctx context.Context, ownerID string) []*model.Habit
	SetHabits(ctx context.Context, ownerID string, habits []*model.Habit) error
	Clear(ctx context.Context, ownerID string) error
}

// HabitInput is the payload for Create.
type HabitInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Frequency   string `json:"frequency"`
}

// HabitPatch carries the fields Update may change. Nil fields are left alone.
type HabitPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Frequency   *string `json:"frequency"`
}

// HabitService is the owner-scoped façade over the habit store and completion log.
// Every call takes the owner explicitly; nothing is read from ambient state.
type HabitService struct {
	habits        repository.HabitRepository
	completions   repository.CompletionRepository
	cache         HabitCache
	subscriptions *SubscriptionGroup
	loc           *time.Location
	now           func() time.Time
}

func NewHabitService(
	habits repository.HabitRepository,
	completions repository.CompletionRepository,
	cache HabitCache,
	subscriptions *SubscriptionGroup,
	loc *time.Location,
) *HabitService {
	if loc == nil {
		loc = time.Local
	}
	return &HabitService{
		habits:        habits,
		completions:   completions,
		cache:         cache,
		subscriptions: subscriptions,
		loc:           loc,
		now:           time.Now,
	}
}

// WithClock replaces the time source. Used by tests and the stats CLI.
func (s *HabitService) WithClock(now func() time.Time) *HabitService {
	s.now = now
	return s
}

// Now returns the current time in the configured zone.
func (s *HabitService) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *HabitService) today() string {
	return model.DayKey(s.now(), s.loc)
}

// List returns the owner's habits, newest first. It never fails: a store error is
// logged and yields an empty list, so callers can fall back to CachedHabits.
func (s *HabitService) List(ctx context.Context, ownerID string) []*model.Habit {
	habits, _, err := s.load(ctx, ownerID)
	if err != nil {
		slog.Error("failed to list habits", "owner_id", ownerID, "error", err)
		return []*model.Habit{}
	}
	return habits
}

// CachedHabits returns the last list mirrored for the owner.
func (s *HabitService) CachedHabits(ctx context.Context, ownerID string) []*model.Habit {
	return s.cache.Habits(ctx, ownerID)
}

// load reads habits and the full completion log, applies the completed-today
// projection and mirrors the result into the cache.
func (s *HabitService) load(ctx context.Context, ownerID string) ([]*model.Habit, []*model.Completion, error) {
	habits, err := s.habits.Habits(ctx, ownerID)
	if err != nil {
		return nil, nil, transportError("list habits", err)
	}

	completions := s.completionLog(ctx, ownerID)
	projectCompleted(habits, completions, s.today())
	s.mirror(ctx, ownerID, habits)

	return habits, completions, nil
}

// completionLog degrades to an empty log on failure; the stored flags still drive stats.
func (s *HabitService) completionLog(ctx context.Context, ownerID string) []*model.Completion {
	completions, err := s.completions.Completions(ctx, ownerID, "")
	if err != nil {
		slog.Warn("failed to load completions", "owner_id", ownerID, "error", err)
		return []*model.Completion{}
	}
	return completions
}

func (s *HabitService) mirror(ctx context.Context, ownerID string, habits []*model.Habit) {
	err := s.cache.SetHabits(ctx, ownerID, habits)
	if err != nil {
		slog.Warn("failed to mirror habits to cache", "owner_id", ownerID, "error", err)
	}
}

// projectCompleted sets Completed to "has a completion today" for every habit that
// has at least one completion. Habits without any keep their stored flag.
func projectCompleted(habits []*model.Habit, completions []*model.Completion, today string) {
	tracked := make(map[string]bool, len(completions))
	doneToday := make(map[string]bool)
	for _, c := range completions {
		tracked[c.HabitID] = true
		if c.Day == today {
			doneToday[c.HabitID] = true
		}
	}

	for _, h := range habits {
		if tracked[h.ID] {
			h.Completed = doneToday[h.ID]
		}
	}
}

func (s *HabitService) Create(ctx context.Context, ownerID string, input HabitInput) (*model.Habit, error) {
	name := strings.TrimSpace(input.Name)
	err := validation.ValidateHabitName(name)
	if err != nil {
		return nil, validationError(err)
	}

	err = validation.ValidateDescription(input.Description)
	if err != nil {
		return nil, validationError(err)
	}

	category, err := validation.NormalizeCategory(input.Category)
	if err != nil {
		return nil, validationError(err)
	}

	frequency, err := validation.NormalizeFrequency(input.Frequency)
	if err != nil {
		return nil, validationError(err)
	}

	appearance := model.CategoryAppearance(category)
	now := s.now()
	habit := &model.Habit{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    category,
		Frequency:   frequency,
		Icon:        appearance.Icon,
		Color:       appearance.Color,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   &now,
	}

	err = s.habits.Create(ctx, habit)
	if err != nil {
		return nil, transportError("create habit", err)
	}

	slog.Info("habit created", "owner_id", ownerID, "habit_id", habit.ID)
	return habit, nil
}

// Update applies patch to an existing habit. A changed category also refreshes
// the stored icon and colour.
func (s *HabitService) Update(ctx context.Context, ownerID, habitID string, patch HabitPatch) (*model.Habit, error) {
	habit, err := s.existing(ctx, ownerID, habitID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := validation.ValidateHabitName(name); err != nil {
			return nil, validationError(err)
		}
		habit.Name = name
	}

	if patch.Description != nil {
		if err := validation.ValidateDescription(*patch.Description); err != nil {
			return nil, validationError(err)
		}
		habit.Description = strings.TrimSpace(*patch.Description)
	}

	if patch.Category != nil {
		category, err := validation.NormalizeCategory(*patch.Category)
		if err != nil {
			return nil, validationError(err)
		}
		if category != habit.Category {
			appearance := model.CategoryAppearance(category)
			habit.Category = category
			habit.Icon = appearance.Icon
			habit.Color = appearance.Color
		}
	}

	if patch.Frequency != nil {
		frequency, err := validation.NormalizeFrequency(*patch.Frequency)
		if err != nil {
			return nil, validationError(err)
		}
		habit.Frequency = frequency
	}

	now := s.now()
	habit.UpdatedAt = &now

	err = s.habits.Update(ctx, habit)
	if err != nil {
		return nil, s.writeError("update habit", habitID, err)
	}

	s.projectOne(ctx, ownerID, habit)
	return habit, nil
}

// Remove deletes a habit together with its completion history.
func (s *HabitService) Remove(ctx context.Context, ownerID, habitID string) error {
	_, err := s.existing(ctx, ownerID, habitID)
	if err != nil {
		return err
	}

	err = s.completions.DeleteForHabit(ctx, ownerID, habitID)
	if err != nil {
		return transportError("delete completions", err)
	}

	err = s.habits.Delete(ctx, ownerID, habitID)
	if err != nil {
		return s.writeError("delete habit", habitID, err)
	}

	slog.Info("habit removed", "owner_id", ownerID, "habit_id", habitID)
	return nil
}

// ToggleCompletion flips today's completion for a habit. Turning it on records
// today in the completion log; turning it off removes only today's entry.
// The log is written before the habit so listeners of the habit see the new log.
func (s *HabitService) ToggleCompletion(ctx context.Context, ownerID, habitID string) (*model.Habit, error) {
	habit, err := s.existing(ctx, ownerID, habitID)
	if err != nil {
		return nil, err
	}
	s.projectOne(ctx, ownerID, habit)

	now := s.now()
	today := model.DayKey(now, s.loc)
	completed := !habit.Completed

	if completed {
		err = s.completions.Add(ctx, &model.Completion{
			ID:          uuid.New().String(),
			HabitID:     habitID,
			OwnerID:     ownerID,
			Day:         today,
			CompletedAt: now,
		})
	} else {
		err = s.completions.Remove(ctx, ownerID, habitID, today)
	}
	if err != nil {
		// A habit deleted since the read fails the completion's foreign key
		if _, lookupErr := s.habits.ByID(ctx, ownerID, habitID); errors.Is(lookupErr, repository.ErrHabitNotFound) {
			return nil, fmt.Errorf("habit %s: %w", habitID, ErrNotFound)
		}
		return nil, transportError("toggle completion", err)
	}

	habit.Completed = completed
	habit.UpdatedAt = &now

	err = s.habits.Update(ctx, habit)
	if err != nil {
		if completed && errors.Is(err, repository.ErrHabitNotFound) {
			if cleanupErr := s.completions.Remove(ctx, ownerID, habitID, today); cleanupErr != nil {
				slog.Warn("failed to remove completion of vanished habit", "habit_id", habitID, "error", cleanupErr)
			}
		}
		return nil, s.writeError("toggle habit", habitID, err)
	}

	slog.Debug("habit toggled", "owner_id", ownerID, "habit_id", habitID, "completed", completed)
	return habit, nil
}

// Search matches query case-insensitively against name, description and category.
// An empty query returns the full list.
func (s *HabitService) Search(ctx context.Context, ownerID, query string) []*model.Habit {
	habits := s.List(ctx, ownerID)

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return habits
	}

	matched := []*model.Habit{}
	for _, h := range habits {
		if strings.Contains(strings.ToLower(h.Name), query) ||
			strings.Contains(strings.ToLower(h.Description), query) ||
			strings.Contains(strings.ToLower(h.Category), query) {
			matched = append(matched, h)
		}
	}
	return matched
}

// ByCategory returns the habits whose category equals category, ignoring case.
func (s *HabitService) ByCategory(ctx context.Context, ownerID, category string) []*model.Habit {
	category = strings.TrimSpace(category)

	matched := []*model.Habit{}
	for _, h := range s.List(ctx, ownerID) {
		if strings.EqualFold(h.Category, category) {
			matched = append(matched, h)
		}
	}
	return matched
}

// Subscribe pushes every snapshot of the owner's habits to onData until the returned
// handle is closed or ctx is done. If the listener fails, onError is called once and
// onData then receives the cached list.
func (s *HabitService) Subscribe(ctx context.Context, ownerID string, onData func([]*model.Habit), onError func(error)) *Subscription {
	return s.watch(ctx, ownerID, func(habits []*model.Habit, _ []*model.Completion) {
		onData(habits)
	}, onError)
}

// watch is Subscribe with the completion log attached to every snapshot.
func (s *HabitService) watch(ctx context.Context, ownerID string, onSnapshot func([]*model.Habit, []*model.Completion), onError func(error)) *Subscription {
	sub, watchCtx := newSubscription(ctx)

	go func() {
		defer sub.finish()

		err := s.habits.Watch(watchCtx, ownerID, func(habits []*model.Habit) {
			completions := s.completionLog(watchCtx, ownerID)
			projectCompleted(habits, completions, s.today())
			s.mirror(watchCtx, ownerID, habits)
			onSnapshot(habits, completions)
		})
		if err == nil || watchCtx.Err() != nil {
			return
		}

		slog.Warn("habit listener failed, serving cache", "owner_id", ownerID, "error", err)
		onError(transportError("watch habits", err))
		onSnapshot(s.cache.Habits(watchCtx, ownerID), []*model.Completion{})
	}()

	if s.subscriptions != nil {
		s.subscriptions.Add(sub)
	}
	return sub
}

func (s *HabitService) existing(ctx context.Context, ownerID, habitID string) (*model.Habit, error) {
	habit, err := s.habits.ByID(ctx, ownerID, habitID)
	if errors.Is(err, repository.ErrHabitNotFound) {
		return nil, fmt.Errorf("habit %s: %w", habitID, ErrNotFound)
	}
	if err != nil {
		return nil, transportError("get habit", err)
	}
	return habit, nil
}

func (s *HabitService) projectOne(ctx context.Context, ownerID string, habit *model.Habit) {
	projectCompleted([]*model.Habit{habit}, s.completionLog(ctx, ownerID), s.today())
}

func (s *HabitService) writeError(op, habitID string, err error) error {
	if errors.Is(err, repository.ErrHabitNotFound) {
		return fmt.Errorf("habit %s: %w", habitID, ErrNotFound)
	}
	return transportError(op, err)
}
