package scheduling

import (
	"testing"
	"time"

	"bookline/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOwner() models.Owner {
	return models.Owner{ID: "o1", Timezone: "UTC", Intent: models.IntentBalanced}
}

func testSettings() models.Settings {
	return models.Settings{
		OwnerID:              "o1",
		DayStartMin:          540,  // 09:00
		DayEndMin:            1020, // 17:00
		QuietStartMin:        780,  // 13:00
		QuietEndMin:          840,  // 14:00
		LeadTimeMin:          60,
		AllowSameDay:         true,
		MaxDailyAppointments: 4,
		CancelWindowHr:       24,
	}
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	var pv *PolicyViolation
	require.ErrorAs(t, err, &pv)
	assert.Equal(t, reason, pv.Reason)
}

func TestCheckOutsideHours(t *testing.T) {
	now := day(t, 10, 0)
	tomorrow := now.Add(24 * time.Hour)

	err := ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: tomorrow.Add(-2 * time.Hour), End: tomorrow.Add(-90 * time.Minute)}, 0)
	requireReason(t, err, ReasonOutsideHours)

	// Ending exactly at close is still inside hours.
	at1630 := time.Date(2026, 9, 11, 16, 30, 0, 0, time.UTC)
	err = ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: at1630, End: at1630.Add(30 * time.Minute)}, 0)
	assert.NoError(t, err)

	// Running past close is not.
	err = ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: at1630.Add(time.Minute), End: at1630.Add(31 * time.Minute)}, 0)
	requireReason(t, err, ReasonOutsideHours)
}

func TestCheckQuietHours(t *testing.T) {
	now := day(t, 10, 0)
	at1330 := time.Date(2026, 9, 11, 13, 30, 0, 0, time.UTC)

	err := ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: at1330, End: at1330.Add(30 * time.Minute)}, 0)
	requireReason(t, err, ReasonQuietHours)

	// Abutting the quiet window is fine.
	at1230 := time.Date(2026, 9, 11, 12, 30, 0, 0, time.UTC)
	err = ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: at1230, End: at1230.Add(30 * time.Minute)}, 0)
	assert.NoError(t, err)
}

func TestCheckQuietHoursWrapMidnight(t *testing.T) {
	now := day(t, 10, 0)
	settings := testSettings()
	settings.DayStartMin = 0
	settings.DayEndMin = 1440
	settings.QuietStartMin = 1320 // 22:00
	settings.QuietEndMin = 420    // 07:00

	at0630 := time.Date(2026, 9, 11, 6, 30, 0, 0, time.UTC)
	err := ConflictPolicy{}.Check(now, testOwner(), settings,
		models.Interval{Start: at0630, End: at0630.Add(30 * time.Minute)}, 0)
	requireReason(t, err, ReasonQuietHours)

	at2230 := time.Date(2026, 9, 11, 22, 30, 0, 0, time.UTC)
	err = ConflictPolicy{}.Check(now, testOwner(), settings,
		models.Interval{Start: at2230, End: at2230.Add(30 * time.Minute)}, 0)
	requireReason(t, err, ReasonQuietHours)

	at0800 := time.Date(2026, 9, 11, 8, 0, 0, 0, time.UTC)
	err = ConflictPolicy{}.Check(now, testOwner(), settings,
		models.Interval{Start: at0800, End: at0800.Add(30 * time.Minute)}, 0)
	assert.NoError(t, err)
}

func TestCheckLeadTime(t *testing.T) {
	now := day(t, 10, 0)

	err := ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: day(t, 10, 30), End: day(t, 11, 0)}, 0)
	requireReason(t, err, ReasonLeadTime)

	err = ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: day(t, 12, 0), End: day(t, 12, 30)}, 0)
	assert.NoError(t, err)
}

func TestCheckSameDay(t *testing.T) {
	now := day(t, 10, 0)
	settings := testSettings()
	settings.AllowSameDay = false

	err := ConflictPolicy{}.Check(now, testOwner(), settings,
		models.Interval{Start: day(t, 15, 0), End: day(t, 15, 30)}, 0)
	requireReason(t, err, ReasonSameDay)

	next := day(t, 15, 0).Add(24 * time.Hour)
	err = ConflictPolicy{}.Check(now, testOwner(), settings,
		models.Interval{Start: next, End: next.Add(30 * time.Minute)}, 0)
	assert.NoError(t, err)
}

func TestCheckDailyCap(t *testing.T) {
	now := day(t, 10, 0)
	slot := day(t, 15, 0)

	err := ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: slot, End: slot.Add(30 * time.Minute)}, 4)
	requireReason(t, err, ReasonDailyCap)

	err = ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: slot, End: slot.Add(30 * time.Minute)}, 3)
	assert.NoError(t, err)
}

func TestCheckFirstFailureWins(t *testing.T) {
	// A candidate in quiet hours, inside lead time, over the cap:
	// the hours family reports first.
	now := day(t, 13, 0)
	err := ConflictPolicy{}.Check(now, testOwner(), testSettings(),
		models.Interval{Start: day(t, 13, 15), End: day(t, 13, 45)}, 4)
	requireReason(t, err, ReasonQuietHours)
}

func TestCheckCancelWindow(t *testing.T) {
	now := day(t, 10, 0)
	settings := testSettings()

	inside := models.Appointment{Start: day(t, 12, 0), End: day(t, 12, 30)}
	err := ConflictPolicy{}.CheckCancel(now, settings, inside, false)
	requireReason(t, err, ReasonCancelWindow)

	// Owner override bypasses the window.
	assert.NoError(t, ConflictPolicy{}.CheckCancel(now, settings, inside, true))

	outside := models.Appointment{
		Start: day(t, 12, 0).Add(48 * time.Hour),
		End:   day(t, 12, 30).Add(48 * time.Hour),
	}
	assert.NoError(t, ConflictPolicy{}.CheckCancel(now, settings, outside, false))
}
