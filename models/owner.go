package models

import "time"

// Intent modes an owner can run the optimizer under.
const (
	IntentMaxProfit = "max_profit"
	IntentBalanced  = "balanced"
	IntentFreeTime  = "free_time"
)

// Owner is a business owner whose calendar the engine manages.
type Owner struct {
	ID        string    `bson:"id" json:"id"`
	Phone     string    `bson:"phone" json:"phone"`
	Name      string    `bson:"name" json:"name"`
	Timezone  string    `bson:"timezone" json:"timezone"` // IANA name, e.g. "Asia/Jerusalem"
	Intent    string    `bson:"intent" json:"intent"`     // active intent mode
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ValidIntent reports whether s names a known intent mode.
func ValidIntent(s string) bool {
	switch s {
	case IntentMaxProfit, IntentBalanced, IntentFreeTime:
		return true
	}
	return false
}

// Settings is the owner's policy snapshot. It is read fresh at the start
// of every scheduling operation and never mutated by the engine.
type Settings struct {
	OwnerID string `bson:"owner_id" json:"owner_id"`

	// Business hours and quiet hours, minutes from midnight in the
	// owner's timezone (e.g. 540 = 09:00). Quiet hours may wrap past
	// midnight (start > end).
	DayStartMin   int `bson:"day_start_min" json:"day_start_min"`
	DayEndMin     int `bson:"day_end_min" json:"day_end_min"`
	QuietStartMin int `bson:"quiet_start_min" json:"quiet_start_min"`
	QuietEndMin   int `bson:"quiet_end_min" json:"quiet_end_min"`

	MaxDailyAppointments int  `bson:"max_daily_appointments" json:"max_daily_appointments"`
	LeadTimeMin          int  `bson:"lead_time_min" json:"lead_time_min"`
	AllowSameDay         bool `bson:"allow_same_day" json:"allow_same_day"`

	CancelWindowHr   int   `bson:"cancel_window_hr" json:"cancel_window_hr"`
	MaxOutreachPerGap int  `bson:"max_outreach_per_gap" json:"max_outreach_per_gap"`
	ReminderHours    []int `bson:"reminder_hours" json:"reminder_hours"` // hours before start, e.g. [24, 2]
}

// HasQuietHours reports whether a quiet window is configured.
func (s Settings) HasQuietHours() bool {
	return s.QuietStartMin != s.QuietEndMin
}

// Location resolves the owner's timezone, falling back to UTC.
func (o Owner) Location() *time.Location {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
