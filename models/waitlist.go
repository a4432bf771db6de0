package models

import "time"

// Waitlist entry statuses.
const (
	WaitlistActive    = "active"
	WaitlistOffered   = "offered"
	WaitlistClaimed   = "claimed"
	WaitlistExpired   = "expired"
	WaitlistWithdrawn = "withdrawn"
)

// WaitlistEntry is a client's standing request for a service within a
// desired window, waiting for space to open. At most one active entry
// may exist per (client, owner, service, window).
type WaitlistEntry struct {
	ID        string    `bson:"id" json:"id"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	ClientID  string    `bson:"client_id" json:"client_id"`
	ServiceID string    `bson:"service_id" json:"service_id"`
	Window    Interval  `bson:"window" json:"window"` // earliest/latest acceptable, wider than one slot
	Priority  float64   `bson:"priority" json:"priority"`
	Status    string    `bson:"status" json:"status"`

	NotifyCount    int        `bson:"notify_count" json:"notify_count"`
	LastNotifiedAt *time.Time `bson:"last_notified_at,omitempty" json:"last_notified_at,omitempty"`

	// OfferedInterval is set while the entry holds an offer.
	OfferedInterval Interval `bson:"offered_interval,omitempty" json:"offered_interval,omitempty"`
	// OfferedGap is the full freed interval the offer was carved from.
	// It outlives the hold, so a lapsed offer can hand the whole gap to
	// the next entry rather than just the placed footprint.
	OfferedGap Interval  `bson:"offered_gap,omitempty" json:"offered_gap,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Hold is the ephemeral reservation created when a freed interval is
// offered to a waitlist entry. It lives in the hold store under a TTL
// and is never persisted as a confirmed appointment until claimed.
type Hold struct {
	EntryID   string    `json:"entry_id"`
	OwnerID   string    `json:"owner_id"`
	Interval  Interval  `json:"interval"`
	ExpiresAt time.Time `json:"expires_at"`
	// Outreach counts how many entries have been offered this gap so
	// far, across expiry-and-reoffer cycles.
	Outreach int `json:"outreach"`
}

// Expired reports whether the hold has passed its expiry at now.
func (h Hold) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}
