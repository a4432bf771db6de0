package scheduling

import (
	"context"
	"fmt"
	"time"

	"bookline/models"
	"bookline/utils"

	"go.uber.org/zap"
)

// Cancel flips the appointment to cancelled, releases its interval and
// runs the synchronous gap-fill pass. Cancelling an appointment that is
// already inactive is a no-op returning its current state.
func (s *DefaultSchedulingService) Cancel(ctx context.Context, req models.CancelRequest) (*models.CancelResult, error) {
	appt, err := s.Appts.GetByID(req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, &NotFoundError{Kind: "appointment", ID: req.AppointmentID}
	}
	if !appt.IsActive() {
		return &models.CancelResult{Appointment: *appt}, nil
	}

	owner, err := s.Owners.GetOwnerByID(appt.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, &NotFoundError{Kind: "owner", ID: appt.OwnerID}
	}
	settings, err := s.Owners.GetSettings(appt.OwnerID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = defaultSettings(appt.OwnerID)
	}

	if err := s.Policy.CheckCancel(time.Now(), *settings, *appt, req.OwnerOverride); err != nil {
		return nil, err
	}

	if err := s.Appts.UpdateStatus(appt.ID, models.StatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment %s: %w", appt.ID, err)
	}
	appt.Status = models.StatusCancelled

	if err := s.Index.Release(ctx, appt.OwnerID, freedInterval(*appt)); err != nil {
		utils.GetLogger().Warn("failed to release cancelled interval",
			zap.String("appointment_id", appt.ID), zap.Error(err))
	}

	actor := models.ActorClient
	if req.OwnerOverride {
		actor = models.ActorOwner
	}
	s.audit(appt.OwnerID, actor, "cancel", map[string]any{
		"appointment_id": appt.ID,
		"start":          appt.Start,
		"reason":         req.Reason,
	})
	s.Notifier.BookingCancelled(ctx, *appt, req.Reason)

	gap := s.GapFill.Fill(ctx, *owner, *settings, *appt)
	return &models.CancelResult{Appointment: *appt, GapFill: gap}, nil
}

// Reschedule cancels and rebooks as one unit: the cancellation is
// rolled back if no slot in the new window can be reserved. Gap-fill
// for the vacated interval runs only after the rebooking commits.
func (s *DefaultSchedulingService) Reschedule(ctx context.Context, req models.RescheduleRequest) (*models.BookingResult, error) {
	appt, err := s.Appts.GetByID(req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, &NotFoundError{Kind: "appointment", ID: req.AppointmentID}
	}
	if !appt.IsActive() {
		return nil, &NotFoundError{Kind: "appointment", ID: req.AppointmentID}
	}

	previousStatus := appt.Status
	if err := s.Appts.UpdateStatus(appt.ID, models.StatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to vacate appointment %s: %w", appt.ID, err)
	}

	result, err := s.Book(ctx, models.BookingRequest{
		OwnerID:   appt.OwnerID,
		ServiceID: appt.ServiceID,
		ClientID:  appt.ClientID,
		Window:    req.NewWindow,
		Channel:   "reschedule",
		Notes:     appt.Notes,
	})
	if err != nil {
		// The rollback re-validates under the owner's lock: a booking
		// that took the vacated span while it was free must not end up
		// overlapping the restored appointment.
		if rbErr := s.Index.Restore(ctx, appt, previousStatus); rbErr != nil {
			utils.GetLogger().Error("failed to roll back reschedule",
				zap.String("appointment_id", appt.ID), zap.Error(rbErr))
			s.audit(appt.OwnerID, models.ActorSystem, "reschedule_rollback_failed", map[string]any{
				"appointment_id": appt.ID,
				"start":          appt.Start,
			})
		}
		return nil, err
	}

	s.audit(appt.OwnerID, models.ActorClient, "reschedule", map[string]any{
		"appointment_id": appt.ID,
		"new_id":         result.Appointment.ID,
		"from":           appt.Start,
		"to":             result.Appointment.Start,
	})

	owner, oErr := s.Owners.GetOwnerByID(appt.OwnerID)
	settings, sErr := s.Owners.GetSettings(appt.OwnerID)
	if oErr == nil && owner != nil {
		if sErr != nil || settings == nil {
			settings = defaultSettings(appt.OwnerID)
		}
		appt.Status = models.StatusCancelled
		if err := s.Index.Release(ctx, appt.OwnerID, freedInterval(*appt)); err != nil {
			utils.GetLogger().Warn("failed to release vacated interval",
				zap.String("appointment_id", appt.ID), zap.Error(err))
		}
		s.GapFill.Fill(ctx, *owner, *settings, *appt)
	}
	return result, nil
}

// Complete marks a finished appointment.
func (s *DefaultSchedulingService) Complete(ctx context.Context, appointmentID string) error {
	return s.transition(ctx, appointmentID, models.StatusCompleted, "complete")
}

// MarkNoShow records a client no-show.
func (s *DefaultSchedulingService) MarkNoShow(ctx context.Context, appointmentID string) error {
	return s.transition(ctx, appointmentID, models.StatusNoShow, "no_show")
}

// transition moves an active appointment into a terminal status.
func (s *DefaultSchedulingService) transition(ctx context.Context, appointmentID, status, action string) error {
	appt, err := s.Appts.GetByID(appointmentID)
	if err != nil {
		return err
	}
	if appt == nil {
		return &NotFoundError{Kind: "appointment", ID: appointmentID}
	}
	if !appt.IsActive() {
		return &NotFoundError{Kind: "appointment", ID: appointmentID}
	}
	if err := s.Appts.UpdateStatus(appointmentID, status); err != nil {
		return fmt.Errorf("failed to mark appointment %s %s: %w", appointmentID, status, err)
	}
	s.audit(appt.OwnerID, models.ActorOwner, action, map[string]any{
		"appointment_id": appointmentID,
		"start":          appt.Start,
	})
	return nil
}

// DaySchedule lists the owner's active appointments for one local day,
// ordered by start.
func (s *DefaultSchedulingService) DaySchedule(ctx context.Context, ownerID string, day time.Time) ([]models.Appointment, error) {
	owner, err := s.Owners.GetOwnerByID(ownerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, &NotFoundError{Kind: "owner", ID: ownerID}
	}
	dayStart := utils.DayStart(day, owner.Location())
	return s.Appts.ListActiveInRange(ownerID, dayStart, dayStart.AddDate(0, 0, 1))
}

// SwitchIntent changes the owner's optimization intent. Existing
// appointments are untouched; only future ranking changes.
func (s *DefaultSchedulingService) SwitchIntent(ctx context.Context, ownerID, intent string) error {
	if !models.ValidIntent(intent) {
		return &PolicyViolation{Reason: "unknown_intent"}
	}
	if err := s.Owners.UpdateOwnerIntent(ownerID, intent); err != nil {
		return err
	}
	s.audit(ownerID, models.ActorOwner, "switch_intent", map[string]any{"intent": intent})
	return nil
}

var _ SchedulingService = (*DefaultSchedulingService)(nil)
