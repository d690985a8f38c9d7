package model

import (
	"time"
)

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Habit is one user-defined recurring goal.
// Completed is the "completed today" projection of the completion log; see Completion.
type Habit struct {
	ID          string     `db:"id" json:"id" firestore:"id"`
	OwnerID     string     `db:"owner_id" json:"ownerId" firestore:"ownerId"`
	OwnerEmail  string     `db:"owner_email" json:"-" firestore:"ownerEmail,omitempty"` // Legacy scoping field, only read by owner backfill
	Name        string     `db:"name" json:"name" firestore:"name"`
	Description string     `db:"description" json:"description" firestore:"description"`
	Category    string     `db:"category" json:"category" firestore:"category"`
	Frequency   string     `db:"frequency" json:"frequency" firestore:"frequency"`
	Icon        string     `db:"icon" json:"icon" firestore:"icon"`
	Color       string     `db:"color" json:"color" firestore:"color"`
	Completed   bool       `db:"completed" json:"completed" firestore:"completed"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt" firestore:"createdAt"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updatedAt,omitempty" firestore:"updatedAt"`
}

// ActivityAt returns the timestamp statistics bucket this habit under:
// UpdatedAt when present, CreatedAt otherwise. Zero means unknown.
func (h *Habit) ActivityAt() time.Time {
	if h.UpdatedAt != nil && !h.UpdatedAt.IsZero() {
		return *h.UpdatedAt
	}
	return h.CreatedAt
}
