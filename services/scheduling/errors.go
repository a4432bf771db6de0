package scheduling

import (
	"fmt"

	"bookline/models"
)

// PolicyViolation is returned when a candidate interval breaks one of
// the owner's hard constraints. Reason is a stable machine-readable
// code the conversation layer can phrase for the client.
type PolicyViolation struct {
	Reason string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("policy violation: %s", e.Reason)
}

// Policy violation reasons.
const (
	ReasonOutsideHours    = "outside_business_hours"
	ReasonQuietHours      = "quiet_hours"
	ReasonLeadTime        = "insufficient_lead_time"
	ReasonSameDay         = "same_day_not_allowed"
	ReasonDailyCap        = "daily_cap_reached"
	ReasonCancelWindow    = "inside_cancel_window"
	ReasonServiceInactive = "service_inactive"
)

// ConflictError is returned by a reservation whose snapshot went stale:
// the interval intersects an appointment committed after the read.
type ConflictError struct {
	OwnerID  string
	Interval models.Interval
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("interval %s-%s conflicts with an existing appointment for owner %s",
		e.Interval.Start.Format("15:04"), e.Interval.End.Format("15:04"), e.OwnerID)
}

// NoFeasibleSlot is returned when no candidate in the preference window
// survives policy and conflict checks. Alternatives carries the nearest
// feasible starts outside the requested window, for the messaging layer
// to suggest.
type NoFeasibleSlot struct {
	Alternatives []models.Candidate
}

func (e *NoFeasibleSlot) Error() string {
	return fmt.Sprintf("no feasible slot in the requested window (%d alternatives)", len(e.Alternatives))
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %s not found", e.Kind, e.ID)
}

// DuplicateEntry is returned by enqueue when the client already has an
// active waitlist entry for the same service and window.
type DuplicateEntry struct {
	EntryID string
}

func (e *DuplicateEntry) Error() string {
	return fmt.Sprintf("an active waitlist entry already exists (id %s)", e.EntryID)
}

// WaitlistExpired is returned by claim when the offer's hold lapsed
// before the client responded.
type WaitlistExpired struct {
	EntryID string
}

func (e *WaitlistExpired) Error() string {
	return fmt.Sprintf("the offer for waitlist entry %s has expired", e.EntryID)
}
