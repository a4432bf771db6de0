package waitlistRepo

import (
	"time"

	"bookline/models"
)

// WaitlistRepository defines data access for waitlist entries.
type WaitlistRepository interface {
	// GetByID retrieves a waitlist entry by its unique ID.
	GetByID(id string) (*models.WaitlistEntry, error)
	// Create inserts a new waitlist entry.
	Create(entry *models.WaitlistEntry) error
	// Update modifies an existing waitlist entry.
	Update(entry *models.WaitlistEntry) error
	// UpdateStatus transitions a waitlist entry's status.
	UpdateStatus(id, status string) error
	// ListActiveByOwner retrieves an owner's active entries,
	// ordered by priority descending, then created time ascending.
	ListActiveByOwner(ownerID string) ([]models.WaitlistEntry, error)
	// ListActiveByClientService retrieves active or offered entries for
	// the same client and service, used for duplicate suppression.
	ListActiveByClientService(ownerID, clientID, serviceID string) ([]models.WaitlistEntry, error)
	// ListByClient retrieves a client's non-terminal entries with an owner.
	ListByClient(ownerID, clientID string) ([]models.WaitlistEntry, error)
	// MarkOffered records that an entry was offered a slot: sets
	// status, the offered interval and its source gap, and bumps the
	// notify counters.
	MarkOffered(id string, offered, gap models.Interval, notifiedAt time.Time) error
	// ListOffered retrieves all entries currently in the offered state.
	ListOffered() ([]models.WaitlistEntry, error)
}
