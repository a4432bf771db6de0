package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bookline/config"
	ownerRepo "bookline/database/repository/owner"
	waitlistRepo "bookline/database/repository/waitlist"
	"bookline/models"
	"bookline/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WaitlistManager runs the standing-request queue: enqueueing with
// duplicate suppression, offering freed intervals to the best-ranked
// entry under a short hold, claiming, and sweeping lapsed offers.
type WaitlistManager interface {
	Enqueue(ctx context.Context, entry *models.WaitlistEntry) error
	// Offer scans active entries for the best match to a freed
	// interval, transitions it to offered, and writes a hold. It
	// returns (nil, nil, nil) when no entry fits or the gap's outreach
	// budget is spent.
	Offer(ctx context.Context, owner models.Owner, settings models.Settings, freed models.Interval) (*models.WaitlistEntry, *models.Hold, error)
	// Claim converts an offered entry into a confirmed appointment
	// while its hold is alive.
	Claim(ctx context.Context, entryID string) (*models.Appointment, error)
	Withdraw(ctx context.Context, entryID string) error
	ListForClient(ctx context.Context, ownerID, clientID string) ([]models.WaitlistEntry, error)
	// Sweep reverts offered entries whose holds lapsed and re-offers
	// their gaps. Returns how many entries were reverted.
	Sweep(ctx context.Context) (int, error)
}

// DefaultWaitlistManager implements WaitlistManager.
type DefaultWaitlistManager struct {
	Repo     waitlistRepo.WaitlistRepository
	Owners   ownerRepo.OwnerRepository
	Index    *SlotIndex
	Holds    HoldStore
	Priority PriorityPolicy

	HoldTTL   time.Duration
	MaxNotify int
	Cooldown  time.Duration
}

// NewWaitlistManager wires a manager from the configured knobs.
func NewWaitlistManager(repo waitlistRepo.WaitlistRepository, owners ownerRepo.OwnerRepository, index *SlotIndex, holds HoldStore) *DefaultWaitlistManager {
	return &DefaultWaitlistManager{
		Repo:      repo,
		Owners:    owners,
		Index:     index,
		Holds:     holds,
		Priority:  NewWeightedPriority(),
		HoldTTL:   config.HoldTTL(),
		MaxNotify: config.AppConfig.MaxNotifyPerEntry,
		Cooldown:  time.Duration(config.AppConfig.NotifyCooldownMin) * time.Minute,
	}
}

// Enqueue adds a standing request, rejecting an exact duplicate of a
// still-live entry for the same client, service and window.
func (m *DefaultWaitlistManager) Enqueue(ctx context.Context, entry *models.WaitlistEntry) error {
	existing, err := m.Repo.ListActiveByClientService(entry.OwnerID, entry.ClientID, entry.ServiceID)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate waitlist entry: %w", err)
	}
	for _, e := range existing {
		if e.Window.Equal(entry.Window) {
			return &DuplicateEntry{EntryID: e.ID}
		}
	}

	client, err := m.Owners.GetClientByID(entry.ClientID)
	if err != nil {
		return fmt.Errorf("failed to load client %s: %w", entry.ClientID, err)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Status = models.WaitlistActive
	entry.CreatedAt = time.Now()
	entry.Priority = m.Priority.Score(entry.CreatedAt, *entry, client)

	if err := m.Repo.Create(entry); err != nil {
		return fmt.Errorf("failed to enqueue waitlist entry: %w", err)
	}
	return nil
}

// Offer picks the best-ranked entry whose window intersects the freed
// interval and whose service fits inside it, marks it offered, and
// writes a TTL hold on the interval.
func (m *DefaultWaitlistManager) Offer(ctx context.Context, owner models.Owner, settings models.Settings, freed models.Interval) (*models.WaitlistEntry, *models.Hold, error) {
	outreach, err := m.Holds.IncrOutreach(ctx, owner.ID, freed)
	if err != nil {
		return nil, nil, err
	}
	if settings.MaxOutreachPerGap > 0 && outreach > settings.MaxOutreachPerGap {
		return nil, nil, nil
	}

	entries, err := m.Repo.ListActiveByOwner(owner.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load waitlist for owner %s: %w", owner.ID, err)
	}

	// Priorities age between enqueue and offer, so rescore against the
	// current clock before ranking.
	now := time.Now()
	for i := range entries {
		client, cErr := m.Owners.GetClientByID(entries[i].ClientID)
		if cErr != nil {
			client = nil
		}
		entries[i].Priority = m.Priority.Score(now, entries[i], client)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	for i := range entries {
		entry := entries[i]
		if m.MaxNotify > 0 && entry.NotifyCount >= m.MaxNotify {
			continue
		}
		if entry.LastNotifiedAt != nil && now.Sub(*entry.LastNotifiedAt) < m.Cooldown {
			continue
		}
		if !entry.Window.Overlaps(freed) {
			continue
		}
		svc, err := m.Owners.GetServiceByID(entry.ServiceID)
		if err != nil || svc == nil {
			continue
		}
		offered, ok := fitInGap(freed, entry.Window, *svc)
		if !ok {
			continue
		}

		if err := m.Repo.MarkOffered(entry.ID, offered, freed, now); err != nil {
			return nil, nil, fmt.Errorf("failed to mark waitlist entry %s offered: %w", entry.ID, err)
		}
		hold := models.Hold{
			EntryID:   entry.ID,
			OwnerID:   owner.ID,
			Interval:  offered,
			ExpiresAt: now.Add(m.HoldTTL),
			Outreach:  outreach,
		}
		if err := m.Holds.Put(ctx, hold, m.HoldTTL); err != nil {
			return nil, nil, fmt.Errorf("failed to store hold for entry %s: %w", entry.ID, err)
		}
		entry.Status = models.WaitlistOffered
		entry.OfferedInterval = offered
		entry.OfferedGap = freed
		entry.NotifyCount++
		entry.LastNotifiedAt = &now
		return &entry, &hold, nil
	}
	return nil, nil, nil
}

// fitInGap places the service at the earliest start satisfying both the
// freed interval and the entry's window. The service fits when its
// duration plus one buffer lies within the gap.
func fitInGap(freed, window models.Interval, svc models.Service) (models.Interval, bool) {
	s := freed.Start
	if window.Start.After(s) {
		s = window.Start
	}
	if s.After(window.End) {
		return models.Interval{}, false
	}
	if s.Add(svc.Footprint()).After(freed.End) {
		return models.Interval{}, false
	}
	return models.NewInterval(s, svc.Duration()), true
}

// Claim books the held interval for an offered entry. A lapsed hold
// reverts the entry and fails with WaitlistExpired.
func (m *DefaultWaitlistManager) Claim(ctx context.Context, entryID string) (*models.Appointment, error) {
	entry, err := m.Repo.GetByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &NotFoundError{Kind: "waitlist entry", ID: entryID}
	}
	if entry.Status != models.WaitlistOffered {
		return nil, &WaitlistExpired{EntryID: entryID}
	}

	hold, err := m.Holds.Get(ctx, entry.OwnerID, entryID)
	if err != nil {
		return nil, err
	}
	if hold == nil {
		if err := m.revert(ctx, entry, time.Now()); err != nil {
			utils.GetLogger().Warn("failed to revert lapsed waitlist entry",
				zap.String("entry_id", entryID), zap.Error(err))
		}
		return nil, &WaitlistExpired{EntryID: entryID}
	}

	svc, err := m.Owners.GetServiceByID(entry.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, &NotFoundError{Kind: "service", ID: entry.ServiceID}
	}

	appt := &models.Appointment{
		ID:        uuid.NewString(),
		OwnerID:   entry.OwnerID,
		ClientID:  entry.ClientID,
		ServiceID: entry.ServiceID,
		Start:     hold.Interval.Start,
		End:       hold.Interval.Start.Add(svc.Duration()),
		BufferMin: svc.BufferMin,
		Status:    models.StatusConfirmed,
		Channel:   "waitlist",
	}
	if err := m.Index.Reserve(ctx, appt); err != nil {
		return nil, err
	}

	if err := m.Repo.UpdateStatus(entryID, models.WaitlistClaimed); err != nil {
		return nil, fmt.Errorf("failed to mark waitlist entry %s claimed: %w", entryID, err)
	}
	if err := m.Holds.Delete(ctx, entry.OwnerID, entryID); err != nil {
		utils.GetLogger().Warn("failed to delete consumed hold",
			zap.String("entry_id", entryID), zap.Error(err))
	}
	return appt, nil
}

// Withdraw cancels a standing request at the client's ask.
func (m *DefaultWaitlistManager) Withdraw(ctx context.Context, entryID string) error {
	entry, err := m.Repo.GetByID(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return &NotFoundError{Kind: "waitlist entry", ID: entryID}
	}
	if entry.Status != models.WaitlistActive && entry.Status != models.WaitlistOffered {
		return nil
	}
	if err := m.Repo.UpdateStatus(entryID, models.WaitlistWithdrawn); err != nil {
		return fmt.Errorf("failed to withdraw waitlist entry %s: %w", entryID, err)
	}
	if entry.Status == models.WaitlistOffered {
		if err := m.Holds.Delete(ctx, entry.OwnerID, entryID); err != nil {
			utils.GetLogger().Warn("failed to delete hold for withdrawn entry",
				zap.String("entry_id", entryID), zap.Error(err))
		}
	}
	return nil
}

// ListForClient returns a client's live entries with an owner.
func (m *DefaultWaitlistManager) ListForClient(ctx context.Context, ownerID, clientID string) ([]models.WaitlistEntry, error) {
	return m.Repo.ListByClient(ownerID, clientID)
}

// Sweep scans offered entries for lapsed holds, reverts them, and
// re-offers their freed intervals so an abandoned offer cannot wedge a
// slot until the next cancellation.
func (m *DefaultWaitlistManager) Sweep(ctx context.Context) (int, error) {
	entries, err := m.Repo.ListOffered()
	if err != nil {
		return 0, fmt.Errorf("failed to list offered entries: %w", err)
	}

	now := time.Now()
	reverted := 0
	for i := range entries {
		entry := entries[i]
		hold, err := m.Holds.Get(ctx, entry.OwnerID, entry.ID)
		if err != nil {
			return reverted, err
		}
		if hold != nil {
			continue
		}

		// Re-offer the whole gap the lapsed offer came from, not just
		// its placed footprint, so the buffer does not get lost.
		freed := entry.OfferedGap
		if freed.IsZero() {
			freed = entry.OfferedInterval
		}
		if err := m.revert(ctx, &entry, now); err != nil {
			utils.GetLogger().Warn("failed to revert lapsed waitlist entry",
				zap.String("entry_id", entry.ID), zap.Error(err))
			continue
		}
		reverted++

		owner, err := m.Owners.GetOwnerByID(entry.OwnerID)
		if err != nil || owner == nil {
			continue
		}
		settings, err := m.Owners.GetSettings(entry.OwnerID)
		if err != nil || settings == nil {
			continue
		}
		next, _, err := m.Offer(ctx, *owner, *settings, freed)
		if err != nil {
			utils.GetLogger().Warn("failed to re-offer freed interval",
				zap.String("owner_id", entry.OwnerID), zap.Error(err))
			continue
		}
		if next != nil {
			utils.GetLogger().Info("re-offered lapsed hold",
				zap.String("owner_id", entry.OwnerID),
				zap.String("entry_id", next.ID),
				zap.Time("start", next.OfferedInterval.Start))
		}
	}
	return reverted, nil
}

// revert returns a lapsed entry to active, or expires it when its
// window has already passed.
func (m *DefaultWaitlistManager) revert(ctx context.Context, entry *models.WaitlistEntry, now time.Time) error {
	status := models.WaitlistActive
	if entry.Window.End.Before(now) {
		status = models.WaitlistExpired
	}
	freed := entry.OfferedInterval
	entry.Status = status
	entry.OfferedInterval = models.Interval{}
	entry.OfferedGap = models.Interval{}
	if err := m.Repo.Update(entry); err != nil {
		return err
	}
	return m.Index.Release(ctx, entry.OwnerID, freed)
}
