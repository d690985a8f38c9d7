package stats

import (
	"sort"
	"time"

	"github.com/habitmate/habitmate/internal/model"
)

// Summary is the profile screen's lifetime view.
type Summary struct {
	TotalHabits        int     `json:"totalHabits"`
	CompletedThisMonth int     `json:"completedThisMonth"`
	BestStreak         int     `json:"bestStreak"`
	Achievements       int     `json:"achievements"`
	Badges             []Badge `json:"badges"`
}

type Badge struct {
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
	Unlocked bool   `json:"unlocked"`
}

// Summarize computes profile statistics. Unlike Compute, the best streak is not
// bounded to a trailing window.
func Summarize(in Input) *Summary {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := now.Location()

	s := &Summary{TotalHabits: len(in.Habits)}

	completed := 0
	year, month, _ := now.Date()
	for _, h := range in.Habits {
		if h == nil || !h.Completed {
			continue
		}
		completed++

		at := h.ActivityAt()
		if at.IsZero() {
			continue
		}
		y, m, _ := at.In(loc).Date()
		if y == year && m == month {
			s.CompletedThisMonth++
		}
	}

	s.BestStreak = bestStreak(activityDays(in, loc), loc)
	s.Achievements = completed / 5

	s.Badges = []Badge{
		{Name: "First Habit", Icon: "star", Color: "#fbbf24", Unlocked: s.TotalHabits >= 1},
		{Name: "Week Warrior", Icon: "flame", Color: "#f97316", Unlocked: s.BestStreak >= 7},
		{Name: "Consistency King", Icon: "ribbon", Color: "#ec4899", Unlocked: s.BestStreak >= 30},
		{Name: "All-Star", Icon: "sparkles", Color: "#06b6d4", Unlocked: s.Achievements >= 5},
	}

	return s
}

// bestStreak returns the longest run of consecutive days in the set.
func bestStreak(days map[string]bool, loc *time.Location) int {
	sorted := make([]time.Time, 0, len(days))
	for day := range days {
		t, err := time.ParseInLocation(model.DayLayout, day, loc)
		if err != nil {
			continue
		}
		sorted = append(sorted, t)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	best, run := 0, 0
	var prev time.Time
	for i, t := range sorted {
		if i > 0 && nextDay(prev).Equal(t) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
		prev = t
	}
	return best
}

func nextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
