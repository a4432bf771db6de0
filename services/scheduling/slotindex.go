package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	appointmentRepo "bookline/database/repository/appointment"
	"bookline/models"
)

// SlotIndex answers free/busy queries over an owner's calendar and is
// the single gate for reservations. Reads are served from a snapshot;
// Reserve re-validates against fresh repository state inside the
// owner's critical section, so a stale snapshot surfaces as a
// ConflictError instead of a double booking.
type SlotIndex struct {
	repo  appointmentRepo.AppointmentRepository
	holds HoldStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSlotIndex creates a SlotIndex over the given appointment store.
func NewSlotIndex(repo appointmentRepo.AppointmentRepository, holds HoldStore) *SlotIndex {
	return &SlotIndex{
		repo:  repo,
		holds: holds,
		locks: make(map[string]*sync.Mutex),
	}
}

// ownerLock returns the mutex serializing mutations for one owner.
// Independent owners never contend.
func (si *SlotIndex) ownerLock(ownerID string) *sync.Mutex {
	si.mu.Lock()
	defer si.mu.Unlock()
	lock, ok := si.locks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		si.locks[ownerID] = lock
	}
	return lock
}

// FreeIntervals returns the owner's free space within the given range
// for a booking that carries bufferMin of its own. Each active
// appointment blocks its raw span expanded by the larger of its buffer
// and the incoming one: adjacent appointments share a single buffer
// gap rather than stacking both.
func (si *SlotIndex) FreeIntervals(ctx context.Context, ownerID string, within models.Interval, bufferMin int) ([]models.Interval, error) {
	free, _, err := si.Snapshot(ctx, ownerID, within, bufferMin)
	return free, err
}

// Snapshot returns the free intervals and the blocked footprints they
// were derived from, as one consistent read.
func (si *SlotIndex) Snapshot(ctx context.Context, ownerID string, within models.Interval, bufferMin int) (free, busy []models.Interval, err error) {
	busy, err = si.busyIntervals(ownerID, within, bufferMin)
	if err != nil {
		return nil, nil, err
	}
	return within.SubtractAll(busy), busy, nil
}

// busyIntervals collects the blocked footprints overlapping the range.
// The range itself is expanded so appointments just outside it still
// project their buffers in.
func (si *SlotIndex) busyIntervals(ownerID string, within models.Interval, bufferMin int) ([]models.Interval, error) {
	const maxBufferPad = 24 * time.Hour
	appts, err := si.repo.ListActiveInRange(ownerID, within.Start.Add(-maxBufferPad), within.End.Add(maxBufferPad))
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments for owner %s: %w", ownerID, err)
	}
	busy := make([]models.Interval, 0, len(appts))
	for _, a := range appts {
		pad := a.BufferMin
		if bufferMin > pad {
			pad = bufferMin
		}
		busy = append(busy, a.Interval().Expand(time.Duration(pad)*time.Minute))
	}
	return busy, nil
}

// Reserve inserts the appointment after re-validating it against fresh
// state under the owner's lock. A stale snapshot yields ConflictError.
func (si *SlotIndex) Reserve(ctx context.Context, appt *models.Appointment) error {
	lock := si.ownerLock(appt.OwnerID)
	lock.Lock()
	defer lock.Unlock()

	conflict, err := si.conflicts(appt)
	if err != nil {
		return err
	}
	if conflict {
		return &ConflictError{OwnerID: appt.OwnerID, Interval: appt.Interval()}
	}
	if err := si.repo.Create(appt); err != nil {
		return fmt.Errorf("failed to reserve appointment: %w", err)
	}
	return nil
}

// conflicts checks the raw-versus-buffered rule in both directions:
// the new appointment must not touch any existing buffered footprint,
// and its own buffered footprint must not touch any existing raw span.
func (si *SlotIndex) conflicts(appt *models.Appointment) (bool, error) {
	scan := appt.BufferedInterval().Expand(24 * time.Hour)
	existing, err := si.repo.ListActiveInRange(appt.OwnerID, scan.Start, scan.End)
	if err != nil {
		return false, fmt.Errorf("failed to validate reservation for owner %s: %w", appt.OwnerID, err)
	}
	for _, ex := range existing {
		if ex.ID == appt.ID {
			continue
		}
		if appt.Interval().Overlaps(ex.BufferedInterval()) || appt.BufferedInterval().Overlaps(ex.Interval()) {
			return true, nil
		}
	}
	return false, nil
}

// Restore re-activates a vacated appointment after re-validating its
// footprint under the owner's lock. A booking that landed on the
// vacated span in the meantime surfaces as ConflictError instead of
// two active overlapping appointments.
func (si *SlotIndex) Restore(ctx context.Context, appt *models.Appointment, status string) error {
	lock := si.ownerLock(appt.OwnerID)
	lock.Lock()
	defer lock.Unlock()

	conflict, err := si.conflicts(appt)
	if err != nil {
		return err
	}
	if conflict {
		return &ConflictError{OwnerID: appt.OwnerID, Interval: appt.Interval()}
	}
	if err := si.repo.UpdateStatus(appt.ID, status); err != nil {
		return fmt.Errorf("failed to restore appointment %s: %w", appt.ID, err)
	}
	return nil
}

// Release returns an interval to free space. The repository status flip
// is what actually frees the calendar; Release's remaining duty is to
// clear any hold bound to the interval so a lapsed offer cannot wedge
// it. Releasing an interval with no hold is a no-op.
func (si *SlotIndex) Release(ctx context.Context, ownerID string, iv models.Interval) error {
	lock := si.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	holds, err := si.holds.ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list holds for owner %s: %w", ownerID, err)
	}
	for _, h := range holds {
		if h.Interval.Overlaps(iv) {
			if err := si.holds.Delete(ctx, ownerID, h.EntryID); err != nil {
				return fmt.Errorf("failed to clear hold for entry %s: %w", h.EntryID, err)
			}
		}
	}
	return nil
}
