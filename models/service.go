package models

import "time"

// Service is a bookable offering (duration, buffer, price). Once an
// appointment references a service, only the Active flag may change;
// retiring a service is a soft toggle so historical bookings keep their
// pricing and duration.
type Service struct {
	ID          string `bson:"id" json:"id"`
	OwnerID     string `bson:"owner_id" json:"owner_id"`
	Name        string `bson:"name" json:"name"`
	DurationMin int    `bson:"duration_min" json:"duration_min"`
	BufferMin   int    `bson:"buffer_min" json:"buffer_min"` // idle pad before and after
	PriceCents  int    `bson:"price_cents" json:"price_cents"`
	Active      bool   `bson:"active" json:"active"`
}

// Duration returns the service duration as a time.Duration.
func (s Service) Duration() time.Duration {
	return time.Duration(s.DurationMin) * time.Minute
}

// Buffer returns the buffer pad as a time.Duration.
func (s Service) Buffer() time.Duration {
	return time.Duration(s.BufferMin) * time.Minute
}

// Footprint is the calendar space one booking of this service
// effectively consumes: its duration plus one buffer gap. Adjacent
// appointments share the gap between them, so each booking pays for
// exactly one.
func (s Service) Footprint() time.Duration {
	return s.Duration() + s.Buffer()
}

// Client is a customer of one owner.
type Client struct {
	ID               string    `bson:"id" json:"id"`
	OwnerID          string    `bson:"owner_id" json:"owner_id"`
	Phone            string    `bson:"phone" json:"phone"`
	Name             string    `bson:"name" json:"name"`
	Tier             int       `bson:"tier,omitempty" json:"tier,omitempty"` // 0 = regular; higher ranks ahead on the waitlist
	OptInMoveEarlier bool      `bson:"opt_in_move_earlier" json:"opt_in_move_earlier"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}
