package model

import "time"

// DayLayout is the calendar-day key format used by the completion log.
const DayLayout = "2006-01-02"

// Completion records that a habit was completed on a calendar day.
// The log is keyed by (HabitID, Day); there is at most one entry per key.
type Completion struct {
	ID          string    `db:"id" json:"id" firestore:"id"`
	HabitID     string    `db:"habit_id" json:"habitId" firestore:"habitId"`
	OwnerID     string    `db:"owner_id" json:"ownerId" firestore:"ownerId"`
	Day         string    `db:"day" json:"day" firestore:"day"`
	CompletedAt time.Time `db:"completed_at" json:"completedAt" firestore:"completedAt"`
}

// DayKey formats t as a calendar day in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}
