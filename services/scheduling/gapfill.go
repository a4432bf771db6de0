package scheduling

import (
	"context"
	"time"

	appointmentRepo "bookline/database/repository/appointment"
	ownerRepo "bookline/database/repository/owner"
	"bookline/models"
	"bookline/services/notification"
	"bookline/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GapFillEngine repairs the calendar when an interval frees up early.
// It first offers the gap to the waitlist; failing that, it considers
// exactly one adjacent appointment for an earlier start and emits a
// shift proposal. Proposals are never committed here: the affected
// client must reconfirm. The whole pass is best-effort and never fails
// the cancellation that triggered it.
type GapFillEngine struct {
	Waitlist  WaitlistManager
	Index     *SlotIndex
	Optimizer Optimizer
	Owners    ownerRepo.OwnerRepository
	Appts     appointmentRepo.AppointmentRepository
	Notifier  notification.NotificationService
}

// NewGapFillEngine wires a gap-fill pass over the given collaborators.
func NewGapFillEngine(waitlist WaitlistManager, index *SlotIndex, owners ownerRepo.OwnerRepository, appts appointmentRepo.AppointmentRepository, notifier notification.NotificationService) *GapFillEngine {
	return &GapFillEngine{
		Waitlist: waitlist,
		Index:    index,
		Owners:   owners,
		Appts:    appts,
		Notifier: notifier,
	}
}

// Fill handles one freed interval. The returned result tells the
// messaging layer what happened: an offer went out, a shift proposal
// exists, or the interval simply went back to general availability.
func (g *GapFillEngine) Fill(ctx context.Context, owner models.Owner, settings models.Settings, cancelled models.Appointment) models.GapFillResult {
	logger := utils.GetLogger()
	freed := freedInterval(cancelled)

	entry, hold, err := g.Waitlist.Offer(ctx, owner, settings, freed)
	if err != nil {
		logger.Warn("gap-fill waitlist offer failed",
			zap.String("owner_id", owner.ID),
			zap.Time("freed_start", freed.Start),
			zap.Error(err))
	}
	if entry != nil {
		if g.Notifier != nil {
			g.Notifier.WaitlistOffer(ctx, *entry, *hold)
		}
		g.audit(owner.ID, "gap_fill_offer", map[string]any{
			"entry_id": entry.ID,
			"start":    hold.Interval.Start,
		})
		return models.GapFillResult{
			OfferedEntryID: entry.ID,
			HoldExpiresAt:  &hold.ExpiresAt,
		}
	}

	proposal, err := g.shiftProposal(ctx, owner, settings, cancelled, freed)
	if err != nil {
		logger.Warn("gap-fill shift scan failed",
			zap.String("owner_id", owner.ID),
			zap.Error(err))
	}
	if proposal != nil {
		if g.Notifier != nil {
			g.Notifier.ShiftProposal(ctx, owner.ID, *proposal)
		}
		g.audit(owner.ID, "gap_fill_proposal", map[string]any{
			"appointment_id": proposal.AppointmentID,
			"to":             proposal.To.Start,
		})
		return models.GapFillResult{Proposal: proposal}
	}
	return models.GapFillResult{Released: true}
}

// audit records what the gap-fill pass did, as the system actor.
func (g *GapFillEngine) audit(ownerID, action string, detail map[string]any) {
	entry := &models.AuditLog{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Actor:   models.ActorSystem,
		Action:  action,
		Detail:  detail,
	}
	if err := g.Owners.AppendAudit(entry); err != nil {
		utils.GetLogger().Warn("failed to append gap-fill audit entry",
			zap.String("owner_id", ownerID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// freedInterval is the calendar space a cancellation opens up: the raw
// span plus the trailing buffer gap the appointment was paying for.
func freedInterval(a models.Appointment) models.Interval {
	return models.Interval{
		Start: a.Start,
		End:   a.End.Add(time.Duration(a.BufferMin) * time.Minute),
	}
}

// shiftProposal considers only the next appointment of the same local
// day for a move into the freed interval. The move must be earlier,
// the client must have opted in, and the new spot must score strictly
// better under the owner's intent.
func (g *GapFillEngine) shiftProposal(ctx context.Context, owner models.Owner, settings models.Settings, cancelled models.Appointment, freed models.Interval) (*models.ShiftProposal, error) {
	loc := owner.Location()
	dayStart := utils.DayStart(cancelled.Start, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	appts, err := g.Appts.ListActiveInRange(owner.ID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	// The adjacent appointment: first one starting after the freed span.
	var next *models.Appointment
	for i := range appts {
		if appts[i].ID == cancelled.ID {
			continue
		}
		if !appts[i].Start.Before(freed.End) {
			next = &appts[i]
			break
		}
	}
	if next == nil {
		return nil, nil
	}

	client, err := g.Owners.GetClientByID(next.ClientID)
	if err != nil || client == nil || !client.OptInMoveEarlier {
		return nil, err
	}
	svc, err := g.Owners.GetServiceByID(next.ServiceID)
	if err != nil || svc == nil {
		return nil, err
	}

	to, ok := fitInGap(freed, models.Interval{Start: freed.Start, End: next.Start}, *svc)
	if !ok || !to.Start.Before(next.Start) {
		return nil, nil
	}

	// Score both placements with the appointment lifted off the board.
	within := models.Interval{Start: dayStart, End: dayEnd}
	free, err := g.Index.FreeIntervals(ctx, owner.ID, within, svc.BufferMin)
	if err != nil {
		return nil, err
	}
	free = mergeFreed(free, next.BufferedInterval())
	in := OptimizeInput{
		Intent:   owner.Intent,
		Service:  *svc,
		Window:   models.Interval{Start: dayStart, End: dayEnd},
		Free:     free,
		Busy:     busyFootprints(appts, next.ID),
		DayLoad:  func(time.Time) int { return len(appts) },
		Location: loc,
	}
	gain := g.Optimizer.Score(in, to) - g.Optimizer.Score(in, next.Interval())
	if gain <= 0 {
		return nil, nil
	}

	return &models.ShiftProposal{
		AppointmentID: next.ID,
		ClientID:      next.ClientID,
		From:          next.Interval(),
		To:            to,
		ScoreGain:     gain,
	}, nil
}

// mergeFreed adds a lifted appointment's footprint back into the free
// set and coalesces adjacent intervals.
func mergeFreed(free []models.Interval, lifted models.Interval) []models.Interval {
	merged := append(append([]models.Interval{}, free...), lifted)
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(merged) && !changed; i++ {
			for j := i + 1; j < len(merged); j++ {
				if merged[i].Overlaps(merged[j]) || merged[i].Abuts(merged[j], 0) {
					a, b := merged[i], merged[j]
					start := a.Start
					if b.Start.Before(start) {
						start = b.Start
					}
					end := a.End
					if b.End.After(end) {
						end = b.End
					}
					merged[i] = models.Interval{Start: start, End: end}
					merged = append(merged[:j], merged[j+1:]...)
					changed = true
					break
				}
			}
		}
	}
	return merged
}

// busyFootprints collects buffered spans, excluding one appointment.
func busyFootprints(appts []models.Appointment, excludeID string) []models.Interval {
	var busy []models.Interval
	for _, a := range appts {
		if a.ID == excludeID {
			continue
		}
		busy = append(busy, a.BufferedInterval())
	}
	return busy
}
