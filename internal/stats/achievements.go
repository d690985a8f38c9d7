package stats

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Unlocked    bool   `json:"unlocked"`
}

type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

type achievementRule struct {
	Achievement
	unlocked func(r *Report) bool
}

// achievementRules is static and ordered as displayed.
var achievementRules = []achievementRule{
	{
		Achievement: Achievement{ID: "first_step", Title: "First Step", Description: "Complete your first habit", Icon: "footsteps", Color: "#10b981"},
		unlocked:    func(r *Report) bool { return r.TotalCompletions >= 1 },
	},
	{
		Achievement: Achievement{ID: "week_warrior", Title: "Week Warrior", Description: "Maintain a 7-day streak", Icon: "flame", Color: "#f59e0b"},
		unlocked:    func(r *Report) bool { return r.CurrentStreak >= 7 },
	},
	{
		Achievement: Achievement{ID: "perfect_day", Title: "Perfect Day", Description: "Complete all habits in a day", Icon: "star", Color: "#3b82f6"},
		unlocked:    func(r *Report) bool { return r.TotalHabits > 0 && r.CompletionRatio == 100 },
	},
	{
		Achievement: Achievement{ID: "consistency_king", Title: "Consistency King", Description: "Reach a 30-day streak", Icon: "trophy", Color: "#a855f7"},
		unlocked:    func(r *Report) bool { return r.CurrentStreak >= 30 },
	},
	{
		Achievement: Achievement{ID: "habit_master", Title: "Habit Master", Description: "Complete 100 total habits", Icon: "ribbon", Color: "#ec4899"},
		unlocked:    func(r *Report) bool { return r.TotalCompletions >= 100 },
	},
	{
		Achievement: Achievement{ID: "unstoppable", Title: "Unstoppable", Description: "Achieve 90% completion rate", Icon: "rocket", Color: "#14b8a6"},
		unlocked:    func(r *Report) bool { return r.AverageCompletionRate >= 90 },
	},
}

func evaluateAchievements(r *Report) []Achievement {
	out := make([]Achievement, 0, len(achievementRules))
	for _, rule := range achievementRules {
		a := rule.Achievement
		a.Unlocked = rule.unlocked(r)
		out = append(out, a)
	}
	return out
}

func insight(r *Report) string {
	switch {
	case r.CompletionRatio == 100 && r.CurrentStreak >= 7:
		return "Incredible! You're on fire with a perfect streak!"
	case r.CompletionRatio == 100:
		return "Perfect score today! You're crushing it!"
	case r.CompletionRatio >= 75:
		return "Almost there! Just a few more to go!"
	case r.CompletionRatio >= 50:
		return "Great progress! Keep the momentum going!"
	case r.CompletedHabits > 0:
		return "Good start! Every step counts!"
	default:
		return "Ready to build better habits? Start now!"
	}
}

var quotes = []Quote{
	{Text: "We are what we repeatedly do. Excellence, then, is not an act, but a habit.", Author: "Aristotle"},
	{Text: "Success is the sum of small efforts repeated day in and day out.", Author: "Robert Collier"},
	{Text: "You'll never change your life until you change something you do daily.", Author: "John C. Maxwell"},
	{Text: "Motivation is what gets you started. Habit is what keeps you going.", Author: "Jim Ryun"},
	{Text: "The secret of getting ahead is getting started.", Author: "Mark Twain"},
}

func quoteFor(streak int) Quote {
	if streak < 0 {
		streak = 0
	}
	return quotes[streak%len(quotes)]
}
