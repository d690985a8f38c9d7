package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/habitmate/habitmate/internal/model"
	"github.com/habitmate/habitmate/internal/service"
	"github.com/habitmate/habitmate/internal/stats"
)

type StatsCmd struct {
	OwnerID string `name:"owner-id" required:"" help:"User id to report on."`
	JSON    bool   `name:"json" help:"Print the report as JSON."`
}

func (c *StatsCmd) Run(g *Globals) error {
	ctx := context.Background()

	habits, completions, closeStores, err := g.stores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	habitService := service.NewHabitService(habits, completions, noCache{}, nil, g.location())
	report := service.NewProgressService(habitService).Report(ctx, c.OwnerID)

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(os.Stdout, report)
	return nil
}

func printReport(w io.Writer, r *stats.Report) {
	fmt.Fprintf(w, "Habits:          %d (%d completed today, %d%%)\n", r.TotalHabits, r.CompletedHabits, r.CompletionRatio)
	fmt.Fprintf(w, "Streak:          %d current, %d longest\n", r.CurrentStreak, r.LongestStreak)
	fmt.Fprintf(w, "Rates:           %d%% weekly, %d%% monthly, %d%% average\n", r.WeeklyCompletionRate, r.MonthlyCompletionRate, r.AverageCompletionRate)
	fmt.Fprintf(w, "Completions:     %d\n", r.TotalCompletions)

	if len(r.CategoryBreakdown) > 0 {
		fmt.Fprintln(w, "Categories:")
		for _, c := range r.CategoryBreakdown {
			fmt.Fprintf(w, "  %-16s %d/%d (%d%%)\n", c.Name, c.Completed, c.Total, c.Percentage)
		}
	}

	fmt.Fprintln(w, "Achievements:")
	for _, a := range r.Achievements {
		mark := " "
		if a.Unlocked {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, a.Title)
	}

	fmt.Fprintf(w, "\n%s\n", r.Insight)
}

// noCache keeps the stats command read-only.
type noCache struct{}

func (noCache) Habits(context.Context, string) []*model.Habit { return []*model.Habit{} }

func (noCache) SetHabits(context.Context, string, []*model.Habit) error { return nil }

func (noCache) Clear(context.Context, string) error { return nil }
