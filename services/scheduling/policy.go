package scheduling

import (
	"time"

	"bookline/models"
	"bookline/utils"
)

// ConflictPolicy validates a candidate interval against the owner's
// hard constraints. Checks run in a fixed order and the first failure
// wins, so callers always get the most fundamental objection first.
type ConflictPolicy struct{}

// Check validates a candidate appointment span. dayLoad is the owner's
// active appointment count for the candidate's local day, excluding the
// candidate itself.
func (ConflictPolicy) Check(now time.Time, owner models.Owner, settings models.Settings, candidate models.Interval, dayLoad int) error {
	loc := owner.Location()

	// 1. Business hours. The span must fall on one local day, inside
	// the owner's working window, and clear of quiet hours.
	if !utils.SameLocalDay(candidate.Start, candidate.End, loc) && utils.MinutesIntoDay(candidate.End, loc) != 0 {
		return &PolicyViolation{Reason: ReasonOutsideHours}
	}
	fromMin := utils.MinutesIntoDay(candidate.Start, loc)
	toMin := fromMin + int(candidate.Duration().Minutes())
	if !utils.WithinClockWindow(fromMin, toMin, settings.DayStartMin, settings.DayEndMin) {
		return &PolicyViolation{Reason: ReasonOutsideHours}
	}
	if settings.HasQuietHours() && overlapsQuiet(fromMin, toMin, settings.QuietStartMin, settings.QuietEndMin) {
		return &PolicyViolation{Reason: ReasonQuietHours}
	}

	// 2. Lead time.
	if settings.LeadTimeMin > 0 {
		earliest := now.Add(time.Duration(settings.LeadTimeMin) * time.Minute)
		if candidate.Start.Before(earliest) {
			return &PolicyViolation{Reason: ReasonLeadTime}
		}
	}

	// 3. Same-day allowance.
	if !settings.AllowSameDay && utils.SameLocalDay(now, candidate.Start, loc) {
		return &PolicyViolation{Reason: ReasonSameDay}
	}

	// 4. Daily cap.
	if settings.MaxDailyAppointments > 0 && dayLoad >= settings.MaxDailyAppointments {
		return &PolicyViolation{Reason: ReasonDailyCap}
	}

	return nil
}

// overlapsQuiet reports whether the minute span [from, to) touches the
// quiet window, which may wrap past midnight: either the span starts
// inside the window, or the window starts inside the span.
func overlapsQuiet(from, to, quietStart, quietEnd int) bool {
	if utils.InQuietHours(from, quietStart, quietEnd) {
		return true
	}
	return from <= quietStart && quietStart < to
}

// CheckCancel enforces the owner's cancellation window: clients may not
// cancel inside CancelWindowHr of the start. Owner-initiated
// cancellations bypass the window.
func (ConflictPolicy) CheckCancel(now time.Time, settings models.Settings, appt models.Appointment, ownerOverride bool) error {
	if ownerOverride || settings.CancelWindowHr <= 0 {
		return nil
	}
	cutoff := appt.Start.Add(-time.Duration(settings.CancelWindowHr) * time.Hour)
	if now.After(cutoff) {
		return &PolicyViolation{Reason: ReasonCancelWindow}
	}
	return nil
}
