package scheduling

import (
	"context"
	"testing"
	"time"

	"bookline/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// futureAt pins a wall-clock instant a few days out, keeping the
// engine's time.Now() based policy checks out of the way.
func futureAt(days, hour, min int) time.Time {
	n := time.Now().UTC().AddDate(0, 0, days)
	return time.Date(n.Year(), n.Month(), n.Day(), hour, min, 0, 0, time.UTC)
}

type serviceFixture struct {
	*gapfillFixture
	svc *DefaultSchedulingService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	gf := newGapfillFixture(t)
	settings := testSettings()
	require.NoError(t, gf.owners.UpsertSettings(&settings))
	return &serviceFixture{
		gapfillFixture: gf,
		svc: &DefaultSchedulingService{
			Owners:        gf.owners,
			Appts:         gf.appts,
			Index:         gf.manager.Index,
			Policy:        ConflictPolicy{},
			Optim:         Optimizer{},
			Waitlist:      gf.manager,
			GapFill:       gf.engine,
			Notifier:      gf.notifier,
			Horizon:       7 * 24 * time.Hour,
			MaxCandidates: 5,
		},
	}
}

func (f *serviceFixture) auditActions(t *testing.T) []string {
	t.Helper()
	logs, err := f.owners.ListAudit("o1", 100)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	return actions
}

func TestBookReservesEarliestSlotInWindow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Book(ctx, models.BookingRequest{
		OwnerID:   "o1",
		ServiceID: "svc-haircut",
		ClientID:  "c1",
		Window:    models.Interval{Start: futureAt(1, 9, 0), End: futureAt(1, 12, 0)},
		Channel:   "whatsapp",
	})
	require.NoError(t, err)

	assert.True(t, futureAt(1, 9, 0).Equal(result.Appointment.Start))
	assert.Equal(t, models.StatusPending, result.Appointment.Status)
	assert.Equal(t, 10, result.Appointment.BufferMin)
	assert.Equal(t, "whatsapp", result.Appointment.Channel)
	assert.Equal(t, 3000, result.PriceCents)
	assert.NotEmpty(t, result.Alternatives)
	assert.LessOrEqual(t, len(result.Alternatives), 5)

	stored, err := f.appts.GetByID(result.Appointment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Contains(t, f.notifier.kinds(), "booking_confirmed")
	assert.Contains(t, f.auditActions(t), "book")
}

func TestBookFullWindowSuggestsBufferedAlternative(t *testing.T) {
	f := newServiceFixture(t)
	f.owner.Intent = models.IntentMaxProfit
	require.NoError(t, f.owners.UpdateOwnerIntent("o1", models.IntentMaxProfit))
	seedAppt(t, f.appts, "taken", futureAt(1, 9, 0), 30, 10, models.StatusConfirmed)

	window := models.Interval{Start: futureAt(1, 9, 0), End: futureAt(1, 9, 30)}
	_, err := f.svc.Book(context.Background(), models.BookingRequest{
		OwnerID:   "o1",
		ServiceID: "svc-haircut",
		ClientID:  "c1",
		Window:    window,
	})

	var nfs *NoFeasibleSlot
	require.ErrorAs(t, err, &nfs)
	require.NotEmpty(t, nfs.Alternatives)

	// The packed slot right after the buffered footprint comes first.
	assert.True(t, futureAt(1, 9, 40).Equal(nfs.Alternatives[0].Interval.Start),
		"expected %s, got %s", futureAt(1, 9, 40), nfs.Alternatives[0].Interval.Start)
	for _, alt := range nfs.Alternatives {
		start := alt.Interval.Start
		inWindow := !start.Before(window.Start) && !start.After(window.End)
		assert.False(t, inWindow, "alternative %s falls inside the refused window", start)
	}
}

func TestBookUnknownReferences(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	window := models.Interval{Start: futureAt(1, 9, 0), End: futureAt(1, 12, 0)}

	var nf *NotFoundError
	_, err := f.svc.Book(ctx, models.BookingRequest{
		OwnerID: "ghost", ServiceID: "svc-haircut", ClientID: "c1", Window: window,
	})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "owner", nf.Kind)

	_, err = f.svc.Book(ctx, models.BookingRequest{
		OwnerID: "o1", ServiceID: "ghost", ClientID: "c1", Window: window,
	})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "service", nf.Kind)

	_, err = f.svc.Book(ctx, models.BookingRequest{
		OwnerID: "o1", ServiceID: "svc-haircut", ClientID: "ghost", Window: window,
	})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "client", nf.Kind)
}

func TestBookInactiveService(t *testing.T) {
	f := newServiceFixture(t)
	svc, err := f.owners.GetServiceByID("svc-haircut")
	require.NoError(t, err)
	svc.Active = false
	require.NoError(t, f.owners.UpdateService(svc))

	_, err = f.svc.Book(context.Background(), models.BookingRequest{
		OwnerID:   "o1",
		ServiceID: "svc-haircut",
		ClientID:  "c1",
		Window:    models.Interval{Start: futureAt(1, 9, 0), End: futureAt(1, 12, 0)},
	})
	requireReason(t, err, ReasonServiceInactive)
}

func TestCancelReleasesAndOffersGap(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	appt := seedAppt(t, f.appts, "a1", futureAt(3, 14, 0), 30, 10, models.StatusConfirmed)
	f.seedEntry(t, "w1", "c2",
		models.Interval{Start: futureAt(3, 13, 0), End: futureAt(3, 16, 0)}, 1.0,
		time.Now().Add(-time.Hour))

	result, err := f.svc.Cancel(ctx, models.CancelRequest{
		AppointmentID: appt.ID,
		Reason:        "client asked",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, result.Appointment.Status)
	assert.Equal(t, "w1", result.GapFill.OfferedEntryID)
	assert.False(t, result.GapFill.Released)

	stored, err := f.appts.GetByID(appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)

	kinds := f.notifier.kinds()
	assert.Contains(t, kinds, "booking_cancelled")
	assert.Contains(t, kinds, "waitlist_offer")
}

func TestBookThenCancelRestoresFreeIntervals(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	window := models.Interval{Start: futureAt(3, 9, 0), End: futureAt(3, 12, 0)}

	before, err := f.svc.Index.FreeIntervals(ctx, "o1", window, 10)
	require.NoError(t, err)

	result, err := f.svc.Book(ctx, models.BookingRequest{
		OwnerID:   "o1",
		ServiceID: "svc-haircut",
		ClientID:  "c1",
		Window:    window,
		Channel:   "web",
	})
	require.NoError(t, err)

	during, err := f.svc.Index.FreeIntervals(ctx, "o1", window, 10)
	require.NoError(t, err)
	require.NotEqual(t, before, during)

	_, err = f.svc.Cancel(ctx, models.CancelRequest{AppointmentID: result.Appointment.ID})
	require.NoError(t, err)

	// Cancelling hands back exactly the free space the booking took.
	after, err := f.svc.Index.FreeIntervals(ctx, "o1", window, 10)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCancelInsideWindowNeedsOverride(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	soon := time.Now().UTC().Add(2 * time.Hour)
	appt := models.Appointment{
		ID: "a-soon", OwnerID: "o1", ClientID: "c1", ServiceID: "svc-haircut",
		Start: soon, End: soon.Add(30 * time.Minute), BufferMin: 10,
		Status: models.StatusConfirmed,
	}
	require.NoError(t, f.appts.Create(&appt))

	_, err := f.svc.Cancel(ctx, models.CancelRequest{AppointmentID: "a-soon"})
	requireReason(t, err, ReasonCancelWindow)

	result, err := f.svc.Cancel(ctx, models.CancelRequest{
		AppointmentID: "a-soon",
		OwnerOverride: true,
		Reason:        "owner closed the day",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, result.Appointment.Status)
}

func TestCancelInactiveIsNoOp(t *testing.T) {
	f := newServiceFixture(t)
	appt := seedAppt(t, f.appts, "a1", futureAt(3, 14, 0), 30, 10, models.StatusCancelled)

	result, err := f.svc.Cancel(context.Background(), models.CancelRequest{AppointmentID: appt.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, result.Appointment.Status)
	assert.False(t, result.GapFill.Released)
	assert.Empty(t, f.notifier.kinds())
}

func TestRescheduleMovesAppointment(t *testing.T) {
	f := newServiceFixture(t)
	appt := seedAppt(t, f.appts, "a1", futureAt(3, 9, 0), 30, 10, models.StatusConfirmed)

	result, err := f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: appt.ID,
		NewWindow:     models.Interval{Start: futureAt(4, 9, 0), End: futureAt(4, 12, 0)},
	})
	require.NoError(t, err)

	assert.True(t, futureAt(4, 9, 0).Equal(result.Appointment.Start))
	assert.Equal(t, "reschedule", result.Appointment.Channel)

	old, err := f.appts.GetByID(appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, old.Status)
	assert.Contains(t, f.auditActions(t), "reschedule")
}

func TestRescheduleRollsBackWhenNoSlotFits(t *testing.T) {
	f := newServiceFixture(t)
	appt := seedAppt(t, f.appts, "a1", futureAt(3, 9, 0), 30, 10, models.StatusConfirmed)
	seedAppt(t, f.appts, "blocker", futureAt(4, 9, 0), 30, 10, models.StatusConfirmed)

	_, err := f.svc.Reschedule(context.Background(), models.RescheduleRequest{
		AppointmentID: appt.ID,
		NewWindow:     models.Interval{Start: futureAt(4, 9, 0), End: futureAt(4, 9, 30)},
	})
	var nfs *NoFeasibleSlot
	require.ErrorAs(t, err, &nfs)

	restored, gErr := f.appts.GetByID(appt.ID)
	require.NoError(t, gErr)
	assert.Equal(t, models.StatusConfirmed, restored.Status)
}

func TestCompleteAndNoShowAreTerminal(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	done := seedAppt(t, f.appts, "a-done", futureAt(3, 9, 0), 30, 10, models.StatusConfirmed)
	gone := seedAppt(t, f.appts, "a-gone", futureAt(3, 11, 0), 30, 10, models.StatusConfirmed)

	require.NoError(t, f.svc.Complete(ctx, done.ID))
	stored, _ := f.appts.GetByID(done.ID)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	var nf *NotFoundError
	require.ErrorAs(t, f.svc.Complete(ctx, done.ID), &nf)

	require.NoError(t, f.svc.MarkNoShow(ctx, gone.ID))
	stored, _ = f.appts.GetByID(gone.ID)
	assert.Equal(t, models.StatusNoShow, stored.Status)
}

func TestDayScheduleListsActiveSorted(t *testing.T) {
	f := newServiceFixture(t)
	seedAppt(t, f.appts, "late", futureAt(3, 11, 0), 30, 10, models.StatusConfirmed)
	seedAppt(t, f.appts, "early", futureAt(3, 9, 0), 30, 10, models.StatusConfirmed)
	seedAppt(t, f.appts, "cancelled", futureAt(3, 10, 0), 30, 10, models.StatusCancelled)
	seedAppt(t, f.appts, "other-day", futureAt(4, 9, 0), 30, 10, models.StatusConfirmed)

	appts, err := f.svc.DaySchedule(context.Background(), "o1", futureAt(3, 0, 0))
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "early", appts[0].ID)
	assert.Equal(t, "late", appts[1].ID)
}

func TestSwitchIntentValidatesMode(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	requireReason(t, f.svc.SwitchIntent(ctx, "o1", "turbo"), "unknown_intent")

	require.NoError(t, f.svc.SwitchIntent(ctx, "o1", models.IntentFreeTime))
	owner, err := f.owners.GetOwnerByID("o1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentFreeTime, owner.Intent)
	assert.Contains(t, f.auditActions(t), "switch_intent")
}

func TestClaimOfferBooksHeldSlot(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.seedEntry(t, "w1", "c1",
		models.Interval{Start: futureAt(3, 13, 0), End: futureAt(3, 16, 0)}, 1.0,
		time.Now().Add(-time.Hour))

	freed := models.Interval{Start: futureAt(3, 14, 0), End: futureAt(3, 14, 40)}
	entry, _, err := f.manager.Offer(ctx, f.owner, testSettings(), freed)
	require.NoError(t, err)
	require.NotNil(t, entry)

	result, err := f.svc.ClaimOffer(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, result.Appointment.Status)
	assert.Equal(t, 3000, result.PriceCents)
	assert.True(t, futureAt(3, 14, 0).Equal(result.Appointment.Start))
	assert.Contains(t, f.notifier.kinds(), "booking_confirmed")
	assert.Contains(t, f.auditActions(t), "claim")
}
