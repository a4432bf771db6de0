package models

import "time"

// BookingRequest is the value the conversation layer hands to the engine.
type BookingRequest struct {
	OwnerID        string   `json:"owner_id" binding:"required"`
	ServiceID      string   `json:"service_id" binding:"required"`
	ClientID       string   `json:"client_id" binding:"required"`
	Window         Interval `json:"window" binding:"required"` // earliest/latest acceptable start bounds
	IntentOverride string   `json:"intent_override,omitempty"` // optional per-request intent
	Channel        string   `json:"channel,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// CancelRequest identifies an appointment to cancel.
type CancelRequest struct {
	AppointmentID string `json:"appointment_id" binding:"required"`
	Reason        string `json:"reason,omitempty"`
	// OwnerOverride bypasses the cancel-window policy (owner-initiated
	// cancellations are always allowed).
	OwnerOverride bool `json:"owner_override,omitempty"`
}

// RescheduleRequest moves an appointment into a new preference window.
type RescheduleRequest struct {
	AppointmentID string   `json:"appointment_id" binding:"required"`
	NewWindow     Interval `json:"new_window" binding:"required"`
}

// Candidate is one scored start option produced by the optimizer.
type Candidate struct {
	ID       int      `json:"id"` // assigned in generation order; final tie-break
	Interval Interval `json:"interval"`
	Score    float64  `json:"score"`
}

// BookingResult is returned by a successful book or reschedule.
type BookingResult struct {
	Appointment  Appointment `json:"appointment"`
	PriceCents   int         `json:"price_cents"`
	Alternatives []Candidate `json:"alternatives,omitempty"` // next-best windows, for the messaging layer
}

// ShiftProposal is a gap-fill suggestion to move an adjacent appointment
// into a freed interval. It is only ever a proposal; committing it
// requires the affected client's reconfirmation.
type ShiftProposal struct {
	AppointmentID string   `json:"appointment_id"`
	ClientID      string   `json:"client_id"`
	From          Interval `json:"from"`
	To            Interval `json:"to"`
	ScoreGain     float64  `json:"score_gain"`
}

// GapFillResult reports what the gap-fill pass did with a freed interval.
type GapFillResult struct {
	OfferedEntryID string         `json:"offered_entry_id,omitempty"`
	HoldExpiresAt  *time.Time     `json:"hold_expires_at,omitempty"`
	Proposal       *ShiftProposal `json:"proposal,omitempty"`
	Released       bool           `json:"released"` // interval returned to general availability untouched
}

// CancelResult is returned by a cancellation.
type CancelResult struct {
	Appointment Appointment   `json:"appointment"`
	GapFill     GapFillResult `json:"gap_fill"`
}

// Audit actors.
const (
	ActorOwner  = "owner"
	ActorClient = "client"
	ActorSystem = "system"
)

// AuditLog records one engine action for the owner's trail.
type AuditLog struct {
	ID        string         `bson:"id" json:"id"`
	OwnerID   string         `bson:"owner_id" json:"owner_id"`
	Actor     string         `bson:"actor" json:"actor"`
	Action    string         `bson:"action" json:"action"`
	Detail    map[string]any `bson:"detail,omitempty" json:"detail,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}
