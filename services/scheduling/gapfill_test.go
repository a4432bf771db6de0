package scheduling

import (
	"context"
	"testing"
	"time"

	"bookline/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gapfillFixture struct {
	*waitlistFixture
	engine   *GapFillEngine
	notifier *recordingNotifier
}

func newGapfillFixture(t *testing.T) *gapfillFixture {
	t.Helper()
	wf := newWaitlistFixture(t)
	n := &recordingNotifier{}
	return &gapfillFixture{
		waitlistFixture: wf,
		notifier:        n,
		engine: &GapFillEngine{
			Waitlist: wf.manager,
			Index:    wf.manager.Index,
			Owners:   wf.owners,
			Appts:    wf.appts,
			Notifier: n,
		},
	}
}

func TestFillOffersGapToWaitlistFirst(t *testing.T) {
	f := newGapfillFixture(t)
	ctx := context.Background()
	f.seedEntry(t, "w1", "c1",
		models.Interval{Start: day(t, 13, 0), End: day(t, 16, 0)}, 1.0, day(t, 0, 0))

	cancelled := seedAppt(t, f.appts, "gone", day(t, 14, 0), 30, 10, models.StatusCancelled)

	result := f.engine.Fill(ctx, f.owner, testSettings(), cancelled)
	assert.Equal(t, "w1", result.OfferedEntryID)
	require.NotNil(t, result.HoldExpiresAt)
	assert.False(t, result.Released)
	assert.Contains(t, f.notifier.kinds(), "waitlist_offer")

	entry, err := f.repo.GetByID("w1")
	require.NoError(t, err)
	assert.Equal(t, models.WaitlistOffered, entry.Status)
	assert.True(t, day(t, 14, 0).Equal(entry.OfferedInterval.Start))
}

func TestFillProposesEarlierShiftWhenWaitlistEmpty(t *testing.T) {
	f := newGapfillFixture(t)
	ctx := context.Background()
	f.owner.Intent = models.IntentMaxProfit

	client, err := f.owners.GetClientByID("c1")
	require.NoError(t, err)
	client.OptInMoveEarlier = true
	require.NoError(t, f.owners.UpdateClient(client))

	// 13:20 anchor, a cancelled 14:00 slot, and a detached 15:00
	// appointment that could pack against the anchor instead.
	seedAppt(t, f.appts, "anchor", day(t, 13, 20), 30, 10, models.StatusConfirmed)
	cancelled := seedAppt(t, f.appts, "gone", day(t, 14, 0), 30, 10, models.StatusCancelled)
	next := seedAppt(t, f.appts, "next", day(t, 15, 0), 30, 10, models.StatusConfirmed)

	result := f.engine.Fill(ctx, f.owner, testSettings(), cancelled)
	require.NotNil(t, result.Proposal)
	assert.False(t, result.Released)

	p := result.Proposal
	assert.Equal(t, next.ID, p.AppointmentID)
	assert.Equal(t, "c1", p.ClientID)
	assert.True(t, day(t, 15, 0).Equal(p.From.Start))
	assert.True(t, day(t, 14, 0).Equal(p.To.Start))
	assert.True(t, day(t, 14, 30).Equal(p.To.End))
	assert.Greater(t, p.ScoreGain, 0.0)
	assert.Contains(t, f.notifier.kinds(), "shift_proposal")
}

func TestFillSkipsShiftWithoutOptIn(t *testing.T) {
	f := newGapfillFixture(t)
	ctx := context.Background()
	f.owner.Intent = models.IntentMaxProfit

	seedAppt(t, f.appts, "anchor", day(t, 13, 20), 30, 10, models.StatusConfirmed)
	cancelled := seedAppt(t, f.appts, "gone", day(t, 14, 0), 30, 10, models.StatusCancelled)
	seedAppt(t, f.appts, "next", day(t, 15, 0), 30, 10, models.StatusConfirmed)

	result := f.engine.Fill(ctx, f.owner, testSettings(), cancelled)
	assert.Nil(t, result.Proposal)
	assert.True(t, result.Released)
	assert.Empty(t, f.notifier.kinds())
}

func TestFillSkipsShiftWithoutScoreGain(t *testing.T) {
	f := newGapfillFixture(t)
	ctx := context.Background()
	f.owner.Intent = models.IntentMaxProfit

	client, err := f.owners.GetClientByID("c1")
	require.NoError(t, err)
	client.OptInMoveEarlier = true
	require.NoError(t, f.owners.UpdateClient(client))

	// No anchor: moving earlier gains nothing under max_profit.
	cancelled := seedAppt(t, f.appts, "gone", day(t, 14, 0), 30, 10, models.StatusCancelled)
	seedAppt(t, f.appts, "next", day(t, 15, 0), 30, 10, models.StatusConfirmed)

	result := f.engine.Fill(ctx, f.owner, testSettings(), cancelled)
	assert.Nil(t, result.Proposal)
	assert.True(t, result.Released)
}

func TestFillReleasesWhenNothingApplies(t *testing.T) {
	f := newGapfillFixture(t)
	cancelled := seedAppt(t, f.appts, "gone", day(t, 14, 0), 30, 10, models.StatusCancelled)

	result := f.engine.Fill(context.Background(), f.owner, testSettings(), cancelled)
	assert.Empty(t, result.OfferedEntryID)
	assert.Nil(t, result.Proposal)
	assert.True(t, result.Released)
}

func TestFreedIntervalIncludesTrailingBuffer(t *testing.T) {
	appt := models.Appointment{
		Start:     day(t, 14, 0),
		End:       day(t, 14, 30),
		BufferMin: 10,
	}
	freed := freedInterval(appt)
	assert.True(t, day(t, 14, 0).Equal(freed.Start))
	assert.True(t, day(t, 14, 40).Equal(freed.End))
	assert.Equal(t, 40*time.Minute, freed.Duration())
}
