// Package stats derives progress metrics from a snapshot of an owner's habits and
// completion log. Everything here is pure: no I/O, no clock, no errors.
package stats

import (
	"math"
	"time"

	"github.com/habitmate/habitmate/internal/model"
)

// streakWindow bounds the trailing scan used for streaks, in days.
const streakWindow = 365

const uncategorized = "Uncategorized"

// Input is one snapshot. Now fixes "today"; its location is the zone days are bucketed in.
type Input struct {
	Habits      []*model.Habit
	Completions []*model.Completion
	Now         time.Time
}

type Report struct {
	TotalHabits           int            `json:"totalHabits"`
	CompletedHabits       int            `json:"completedHabits"`
	CompletionRatio       int            `json:"completionRatio"`
	CurrentStreak         int            `json:"currentStreak"`
	LongestStreak         int            `json:"longestStreak"`
	WeeklyCompletionRate  int            `json:"weeklyCompletionRate"`
	MonthlyCompletionRate int            `json:"monthlyCompletionRate"`
	TotalCompletions      int            `json:"totalCompletions"`
	AverageCompletionRate int            `json:"averageCompletionRate"`
	CategoryBreakdown     []CategoryStat `json:"categoryBreakdown"`
	Week                  []DayStat      `json:"week"`
	Achievements          []Achievement  `json:"achievements"`
	Insight               string         `json:"insight"`
	Quote                 Quote          `json:"quote"`
}

type CategoryStat struct {
	Name       string `json:"name"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Color      string `json:"color"`
	Icon       string `json:"icon"`
}

// DayStat counts the habits created on one day of the trailing week.
type DayStat struct {
	Day       string `json:"day"`
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Compute builds the progress report for in.
func Compute(in Input) *Report {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := now.Location()

	r := &Report{
		TotalHabits: len(in.Habits),
	}

	for _, h := range in.Habits {
		if h != nil && h.Completed {
			r.CompletedHabits++
		}
	}
	r.CompletionRatio = percent(r.CompletedHabits, r.TotalHabits)

	days := activityDays(in, loc)
	r.CurrentStreak = currentStreak(days, now)
	r.LongestStreak = longestStreak(days, now)

	r.WeeklyCompletionRate = windowRate(in.Habits, now.AddDate(0, 0, -7))
	r.MonthlyCompletionRate = windowRate(in.Habits, now.AddDate(0, 0, -30))
	r.TotalCompletions = totalCompletions(in, loc)
	r.AverageCompletionRate = r.CompletionRatio

	r.CategoryBreakdown = categoryBreakdown(in.Habits)
	r.Week = week(in.Habits, now)

	r.Achievements = evaluateAchievements(r)
	r.Insight = insight(r)
	r.Quote = quoteFor(r.CurrentStreak)

	return r
}

// activityDays returns the set of qualifying calendar days (DayLayout keys in loc).
func activityDays(in Input, loc *time.Location) map[string]bool {
	days := make(map[string]bool)

	for _, h := range in.Habits {
		if h == nil || !h.Completed {
			continue
		}
		at := h.ActivityAt()
		if at.IsZero() {
			continue
		}
		days[model.DayKey(at, loc)] = true
	}

	for _, c := range in.Completions {
		if day, ok := validDay(c); ok {
			days[day] = true
		}
	}

	return days
}

func validDay(c *model.Completion) (string, bool) {
	if c == nil {
		return "", false
	}
	if _, err := time.Parse(model.DayLayout, c.Day); err != nil {
		return "", false
	}
	return c.Day, true
}

// dayAt returns the DayLayout key of the calendar day offset days before now.
func dayAt(now time.Time, offset int) string {
	y, m, d := now.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location()).Format(model.DayLayout)
}

// currentStreak walks back from today. Only today may be empty without ending the walk.
func currentStreak(days map[string]bool, now time.Time) int {
	streak := 0
	for offset := 0; offset < streakWindow; offset++ {
		if days[dayAt(now, offset)] {
			streak++
			continue
		}
		if offset == 0 {
			continue
		}
		break
	}
	return streak
}

// longestStreak scans the trailing window from oldest to newest.
func longestStreak(days map[string]bool, now time.Time) int {
	longest, run := 0, 0
	for offset := streakWindow - 1; offset >= 0; offset-- {
		if days[dayAt(now, offset)] {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}

func windowRate(habits []*model.Habit, since time.Time) int {
	completed, total := 0, 0
	for _, h := range habits {
		if h == nil || h.CreatedAt.IsZero() || h.CreatedAt.Before(since) {
			continue
		}
		total++
		if h.Completed {
			completed++
		}
	}
	return percent(completed, total)
}

// totalCompletions counts distinct (habit, day) keys across the log and the completed flags.
func totalCompletions(in Input, loc *time.Location) int {
	keys := make(map[string]struct{})

	for _, c := range in.Completions {
		if day, ok := validDay(c); ok {
			keys[c.HabitID+"|"+day] = struct{}{}
		}
	}

	for _, h := range in.Habits {
		if h == nil || !h.Completed {
			continue
		}
		day := "undated"
		if at := h.ActivityAt(); !at.IsZero() {
			day = model.DayKey(at, loc)
		}
		keys[h.ID+"|"+day] = struct{}{}
	}

	return len(keys)
}

func categoryBreakdown(habits []*model.Habit) []CategoryStat {
	groups := []CategoryStat{}
	index := make(map[string]int)

	for _, h := range habits {
		if h == nil {
			continue
		}
		name := h.Category
		if name == "" {
			name = uncategorized
		}

		i, ok := index[name]
		if !ok {
			display := model.CategoryDisplay(name)
			groups = append(groups, CategoryStat{Name: name, Color: display.Color, Icon: display.Icon})
			i = len(groups) - 1
			index[name] = i
		}

		groups[i].Total++
		if h.Completed {
			groups[i].Completed++
		}
	}

	for i := range groups {
		groups[i].Percentage = percent(groups[i].Completed, groups[i].Total)
	}
	return groups
}

// week buckets habits by creation day over the 7 days ending today, oldest first.
func week(habits []*model.Habit, now time.Time) []DayStat {
	loc := now.Location()
	out := make([]DayStat, 0, 7)

	for offset := 6; offset >= 0; offset-- {
		y, m, d := now.Date()
		date := time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		key := date.Format(model.DayLayout)

		stat := DayStat{Day: date.Weekday().String()[:3], Date: key}
		for _, h := range habits {
			if h == nil || h.CreatedAt.IsZero() || model.DayKey(h.CreatedAt, loc) != key {
				continue
			}
			stat.Total++
			if h.Completed {
				stat.Completed++
			}
		}
		out = append(out, stat)
	}

	return out
}

// percent returns part/whole rounded to the nearest integer percent, 0 when whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}
