package models

import "time"

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

// ActiveStatuses are the statuses that occupy calendar space. The core
// invariant: for one owner, no two appointments in these statuses may
// overlap once each is expanded by its service's buffer.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// Appointment is a booked service slot.
type Appointment struct {
	ID        string    `bson:"id" json:"id"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	ClientID  string    `bson:"client_id" json:"client_id"`
	ServiceID string    `bson:"service_id" json:"service_id"`
	Start     time.Time `bson:"start" json:"start"`
	End       time.Time `bson:"end" json:"end"` // Start + service duration
	BufferMin int       `bson:"buffer_min" json:"buffer_min"` // copied from the service at booking time
	Status    string    `bson:"status" json:"status"`
	Channel   string    `bson:"channel" json:"channel"`
	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Interval returns the appointment's occupied span, without buffer.
func (a Appointment) Interval() Interval {
	return Interval{Start: a.Start, End: a.End}
}

// BufferedInterval returns the span expanded by the service buffer on
// both sides; this is the footprint other bookings must not intersect.
func (a Appointment) BufferedInterval() Interval {
	return a.Interval().Expand(time.Duration(a.BufferMin) * time.Minute)
}

// IsActive reports whether the appointment still occupies calendar space.
func (a Appointment) IsActive() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}
