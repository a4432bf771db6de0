package notification

import (
	"context"
	"fmt"

	"bookline/models"
	"bookline/utils"

	"go.uber.org/zap"
)

// Decision kinds emitted by the engine. Delivery is a collaborator's
// job; this service only records what should be said, to whom, and why.
const (
	KindBookingConfirmed = "booking_confirmed"
	KindBookingCancelled = "booking_cancelled"
	KindWaitlistOffer    = "waitlist_offer"
	KindShiftProposal    = "shift_proposal"
	KindReminder         = "reminder"
)

// Decision is one outbound message the surrounding conversation layer
// should deliver.
type Decision struct {
	Kind     string         `json:"kind"`
	OwnerID  string         `json:"owner_id"`
	ClientID string         `json:"client_id"`
	Detail   map[string]any `json:"detail,omitempty"`
}

// Sink receives decisions. The production sink is whatever transport
// the conversation layer plugs in; the default just logs.
type Sink interface {
	Deliver(ctx context.Context, d Decision) error
}

// NotificationService turns engine outcomes into decisions.
type NotificationService interface {
	BookingConfirmed(ctx context.Context, appt models.Appointment, priceCents int)
	BookingCancelled(ctx context.Context, appt models.Appointment, reason string)
	WaitlistOffer(ctx context.Context, entry models.WaitlistEntry, hold models.Hold)
	ShiftProposal(ctx context.Context, ownerID string, proposal models.ShiftProposal)
	Reminder(ctx context.Context, appt models.Appointment, hoursBefore int)
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	sink Sink
}

// NewDefaultNotificationService builds the service around a sink,
// falling back to the logging sink when none is given.
func NewDefaultNotificationService(sink Sink) *DefaultNotificationService {
	if sink == nil {
		sink = LogSink{}
	}
	return &DefaultNotificationService{sink: sink}
}

func (s *DefaultNotificationService) emit(ctx context.Context, d Decision) {
	if err := s.sink.Deliver(ctx, d); err != nil {
		utils.GetLogger().Warn("failed to deliver notification decision",
			zap.String("kind", d.Kind),
			zap.String("owner_id", d.OwnerID),
			zap.Error(err))
	}
}

func (s *DefaultNotificationService) BookingConfirmed(ctx context.Context, appt models.Appointment, priceCents int) {
	s.emit(ctx, Decision{
		Kind:     KindBookingConfirmed,
		OwnerID:  appt.OwnerID,
		ClientID: appt.ClientID,
		Detail: map[string]any{
			"appointment_id": appt.ID,
			"start":          appt.Start,
			"end":            appt.End,
			"price_cents":    priceCents,
		},
	})
}

func (s *DefaultNotificationService) BookingCancelled(ctx context.Context, appt models.Appointment, reason string) {
	s.emit(ctx, Decision{
		Kind:     KindBookingCancelled,
		OwnerID:  appt.OwnerID,
		ClientID: appt.ClientID,
		Detail: map[string]any{
			"appointment_id": appt.ID,
			"start":          appt.Start,
			"reason":         reason,
		},
	})
}

func (s *DefaultNotificationService) WaitlistOffer(ctx context.Context, entry models.WaitlistEntry, hold models.Hold) {
	s.emit(ctx, Decision{
		Kind:     KindWaitlistOffer,
		OwnerID:  entry.OwnerID,
		ClientID: entry.ClientID,
		Detail: map[string]any{
			"entry_id":   entry.ID,
			"start":      hold.Interval.Start,
			"end":        hold.Interval.End,
			"expires_at": hold.ExpiresAt,
		},
	})
}

func (s *DefaultNotificationService) ShiftProposal(ctx context.Context, ownerID string, proposal models.ShiftProposal) {
	s.emit(ctx, Decision{
		Kind:     KindShiftProposal,
		OwnerID:  ownerID,
		ClientID: proposal.ClientID,
		Detail: map[string]any{
			"appointment_id": proposal.AppointmentID,
			"from":           proposal.From.Start,
			"to":             proposal.To.Start,
		},
	})
}

func (s *DefaultNotificationService) Reminder(ctx context.Context, appt models.Appointment, hoursBefore int) {
	s.emit(ctx, Decision{
		Kind:     KindReminder,
		OwnerID:  appt.OwnerID,
		ClientID: appt.ClientID,
		Detail: map[string]any{
			"appointment_id": appt.ID,
			"start":          appt.Start,
			"hours_before":   hoursBefore,
		},
	})
}

// LogSink writes decisions to the structured log. It stands in until a
// real transport is plugged behind the Sink interface.
type LogSink struct{}

func (LogSink) Deliver(ctx context.Context, d Decision) error {
	utils.GetLogger().Info("notification decision",
		zap.String("kind", d.Kind),
		zap.String("owner_id", d.OwnerID),
		zap.String("client_id", d.ClientID),
		zap.Any("detail", d.Detail))
	return nil
}

var _ NotificationService = (*DefaultNotificationService)(nil)

// String renders a decision for debugging.
func (d Decision) String() string {
	return fmt.Sprintf("%s owner=%s client=%s", d.Kind, d.OwnerID, d.ClientID)
}
