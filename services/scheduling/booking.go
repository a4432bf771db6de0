package scheduling

import (
	"context"
	"errors"
	"time"

	"bookline/models"
	"bookline/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Book finds the best feasible slot in the preference window and
// reserves it. The snapshot is optimistic: a conflicting commit between
// read and reserve triggers exactly one retry with fresh state, after
// which the request fails with NoFeasibleSlot and suggested
// alternatives.
func (s *DefaultSchedulingService) Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	owner, svc, settings, err := s.loadBookingContext(req.OwnerID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	client, err := s.Owners.GetClientByID(req.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, &NotFoundError{Kind: "client", ID: req.ClientID}
	}

	intent := owner.Intent
	if models.ValidIntent(req.IntentOverride) {
		intent = req.IntentOverride
	}

	now := time.Now()
	for attempt := 0; attempt < 2; attempt++ {
		candidates, err := s.feasibleCandidates(ctx, *owner, *settings, *svc, intent, req.Window, now)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			break
		}

		top := candidates[0]
		appt := &models.Appointment{
			ID:        uuid.NewString(),
			OwnerID:   owner.ID,
			ClientID:  client.ID,
			ServiceID: svc.ID,
			Start:     top.Interval.Start,
			End:       top.Interval.End,
			BufferMin: svc.BufferMin,
			Status:    models.StatusPending,
			Channel:   req.Channel,
			Notes:     req.Notes,
		}
		if err := s.Index.Reserve(ctx, appt); err != nil {
			var conflict *ConflictError
			if errors.As(err, &conflict) {
				continue
			}
			return nil, err
		}

		s.audit(owner.ID, models.ActorClient, "book", map[string]any{
			"appointment_id": appt.ID,
			"service_id":     svc.ID,
			"start":          appt.Start,
		})
		s.Notifier.BookingConfirmed(ctx, *appt, svc.PriceCents)
		alternatives := candidates[1:]
		if len(alternatives) > s.MaxCandidates {
			alternatives = alternatives[:s.MaxCandidates]
		}
		return &models.BookingResult{
			Appointment:  *appt,
			PriceCents:   svc.PriceCents,
			Alternatives: alternatives,
		}, nil
	}

	alternatives, err := s.alternatives(ctx, *owner, *settings, *svc, intent, req.Window, now)
	if err != nil {
		utils.GetLogger().Warn("failed to compute alternatives",
			zap.String("owner_id", owner.ID), zap.Error(err))
	}
	return nil, &NoFeasibleSlot{Alternatives: alternatives}
}

// ClaimOffer books the held interval of an offered waitlist entry.
func (s *DefaultSchedulingService) ClaimOffer(ctx context.Context, entryID string) (*models.BookingResult, error) {
	appt, err := s.Waitlist.Claim(ctx, entryID)
	if err != nil {
		return nil, err
	}
	svc, err := s.Owners.GetServiceByID(appt.ServiceID)
	if err != nil {
		return nil, err
	}
	price := 0
	if svc != nil {
		price = svc.PriceCents
	}
	s.audit(appt.OwnerID, models.ActorClient, "claim", map[string]any{
		"appointment_id": appt.ID,
		"entry_id":       entryID,
		"start":          appt.Start,
	})
	s.Notifier.BookingConfirmed(ctx, *appt, price)
	return &models.BookingResult{Appointment: *appt, PriceCents: price}, nil
}

// loadBookingContext resolves the owner, service and settings a booking
// operation needs, applying defaults when the owner never saved
// settings.
func (s *DefaultSchedulingService) loadBookingContext(ownerID, serviceID string) (*models.Owner, *models.Service, *models.Settings, error) {
	owner, err := s.Owners.GetOwnerByID(ownerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if owner == nil {
		return nil, nil, nil, &NotFoundError{Kind: "owner", ID: ownerID}
	}
	svc, err := s.Owners.GetServiceByID(serviceID)
	if err != nil {
		return nil, nil, nil, err
	}
	if svc == nil {
		return nil, nil, nil, &NotFoundError{Kind: "service", ID: serviceID}
	}
	if !svc.Active {
		return nil, nil, nil, &PolicyViolation{Reason: ReasonServiceInactive}
	}
	settings, err := s.Owners.GetSettings(ownerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if settings == nil {
		settings = defaultSettings(ownerID)
	}
	return owner, svc, settings, nil
}

// defaultSettings is the permissive fallback for owners who have not
// configured their policy yet: open all day, no caps.
func defaultSettings(ownerID string) *models.Settings {
	return &models.Settings{
		OwnerID:      ownerID,
		DayStartMin:  0,
		DayEndMin:    24 * 60,
		AllowSameDay: true,
	}
}

// feasibleCandidates snapshots free space over the window's days,
// ranks candidates under the intent, and drops those failing policy.
func (s *DefaultSchedulingService) feasibleCandidates(ctx context.Context, owner models.Owner, settings models.Settings, svc models.Service, intent string, window models.Interval, now time.Time) ([]models.Candidate, error) {
	loc := owner.Location()
	search := models.Interval{
		Start: utils.DayStart(window.Start, loc),
		End:   utils.DayStart(window.End, loc).AddDate(0, 0, 1),
	}
	free, busy, err := s.Index.Snapshot(ctx, owner.ID, search, svc.BufferMin)
	if err != nil {
		return nil, err
	}

	dayLoad := s.dayLoadFunc(owner, loc)
	in := OptimizeInput{
		Intent:   intent,
		Service:  svc,
		Window:   window,
		Free:     free,
		Busy:     busy,
		DayLoad:  dayLoad,
		Location: loc,
	}

	var feasible []models.Candidate
	for _, c := range s.Optim.Rank(in) {
		if err := s.Policy.Check(now, owner, settings, c.Interval, dayLoad(c.Interval.Start)); err != nil {
			continue
		}
		feasible = append(feasible, c)
	}
	return feasible, nil
}

// alternatives ranks feasible starts over the search horizon, outside
// the original preference window, for the messaging layer to suggest.
func (s *DefaultSchedulingService) alternatives(ctx context.Context, owner models.Owner, settings models.Settings, svc models.Service, intent string, window models.Interval, now time.Time) ([]models.Candidate, error) {
	wide := models.Interval{Start: now, End: now.Add(s.Horizon)}
	candidates, err := s.feasibleCandidates(ctx, owner, settings, svc, intent, wide, now)
	if err != nil {
		return nil, err
	}
	var out []models.Candidate
	for _, c := range candidates {
		if window.Valid() && !c.Interval.Start.Before(window.Start) && !c.Interval.Start.After(window.End) {
			continue
		}
		out = append(out, c)
		if len(out) == s.MaxCandidates {
			break
		}
	}
	return out, nil
}

// dayLoadFunc counts active appointments per owner-local day, memoized
// for the life of one operation.
func (s *DefaultSchedulingService) dayLoadFunc(owner models.Owner, loc *time.Location) func(time.Time) int {
	cache := make(map[string]int)
	return func(t time.Time) int {
		dayStart := utils.DayStart(t, loc)
		key := dayStart.Format("2006-01-02")
		if n, ok := cache[key]; ok {
			return n
		}
		n, err := s.Appts.CountActiveForDay(owner.ID, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			utils.GetLogger().Warn("failed to count daily load",
				zap.String("owner_id", owner.ID), zap.Error(err))
			n = 0
		}
		cache[key] = n
		return n
	}
}

// audit appends to the owner's trail; failures are logged, never fatal.
func (s *DefaultSchedulingService) audit(ownerID, actor, action string, detail map[string]any) {
	entry := &models.AuditLog{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Actor:   actor,
		Action:  action,
		Detail:  detail,
	}
	if err := s.Owners.AppendAudit(entry); err != nil {
		utils.GetLogger().Warn("failed to append audit entry",
			zap.String("owner_id", ownerID),
			zap.String("action", action),
			zap.Error(err))
	}
}
