package model

// Appearance is the icon/colour pair stored on a habit or shown next to a category.
type Appearance struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

const CategoryOther = "Other"

// HabitCategories are the categories offered when creating a habit, in display order.
var HabitCategories = []string{"Health", "Work", "Learning", "Social", "Personal", CategoryOther}

var categoryAppearance = map[string]Appearance{
	"Health":      {Icon: "fitness", Color: "#10b981"},
	"Work":        {Icon: "briefcase", Color: "#3b82f6"},
	"Learning":    {Icon: "book", Color: "#8b5cf6"},
	"Social":      {Icon: "people", Color: "#f59e0b"},
	"Personal":    {Icon: "person", Color: "#ec4899"},
	CategoryOther: {Icon: "apps", Color: "#6366f1"},
}

// progress screen palette, wider than the creation table
var categoryDisplay = map[string]Appearance{
	"Health":       {Icon: "fitness", Color: "#10b981"},
	"Fitness":      {Icon: "barbell", Color: "#f59e0b"},
	"Productivity": {Icon: "rocket", Color: "#3b82f6"},
	"Mindfulness":  {Icon: "leaf", Color: "#a855f7"},
	"Learning":     {Icon: "book", Color: "#ec4899"},
	"Social":       {Icon: "people", Color: "#14b8a6"},
	"Finance":      {Icon: "cash", Color: "#06b6d4"},
	"Creativity":   {Icon: "color-palette", Color: "#f97316"},
}

var defaultDisplay = Appearance{Icon: "ellipse", Color: "#64748b"}

// CategoryAppearance returns the appearance stored on a new habit of the given category.
// Unknown categories fall back to Other.
func CategoryAppearance(category string) Appearance {
	a, ok := categoryAppearance[category]
	if !ok {
		return categoryAppearance[CategoryOther]
	}
	return a
}

// CategoryDisplay returns the appearance used in progress breakdowns.
func CategoryDisplay(category string) Appearance {
	a, ok := categoryDisplay[category]
	if !ok {
		return defaultDisplay
	}
	return a
}
