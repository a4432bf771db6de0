package scheduling

import (
	"context"
	"time"

	"bookline/config"
	appointmentRepo "bookline/database/repository/appointment"
	ownerRepo "bookline/database/repository/owner"
	waitlistRepo "bookline/database/repository/waitlist"
	"bookline/models"
	"bookline/services/notification"
)

// SchedulingService is the engine's front door: every calendar mutation
// the conversation layer can ask for goes through here.
type SchedulingService interface {
	// Book finds, scores and reserves the best slot in the request's
	// preference window under the owner's intent.
	Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error)
	// Cancel flips the appointment, releases its interval, and runs the
	// synchronous gap-fill pass.
	Cancel(ctx context.Context, req models.CancelRequest) (*models.CancelResult, error)
	// Reschedule atomically cancels and rebooks; a failed rebooking
	// rolls the cancellation back.
	Reschedule(ctx context.Context, req models.RescheduleRequest) (*models.BookingResult, error)
	// Complete marks a finished appointment.
	Complete(ctx context.Context, appointmentID string) error
	// MarkNoShow records a client no-show.
	MarkNoShow(ctx context.Context, appointmentID string) error
	// ClaimOffer books the held interval of an offered waitlist entry.
	ClaimOffer(ctx context.Context, entryID string) (*models.BookingResult, error)
	// DaySchedule lists an owner's active appointments for one local day.
	DaySchedule(ctx context.Context, ownerID string, day time.Time) ([]models.Appointment, error)
	// SwitchIntent changes the owner's optimization intent.
	SwitchIntent(ctx context.Context, ownerID, intent string) error
}

// DefaultSchedulingService implements SchedulingService.
type DefaultSchedulingService struct {
	Owners   ownerRepo.OwnerRepository
	Appts    appointmentRepo.AppointmentRepository
	Index    *SlotIndex
	Policy   ConflictPolicy
	Optim    Optimizer
	Waitlist WaitlistManager
	GapFill  *GapFillEngine
	Notifier notification.NotificationService

	Horizon       time.Duration
	MaxCandidates int
}

// NewDefaultSchedulingService wires the engine from the configured knobs.
func NewDefaultSchedulingService(
	owners ownerRepo.OwnerRepository,
	appts appointmentRepo.AppointmentRepository,
	waitlist waitlistRepo.WaitlistRepository,
	holds HoldStore,
	notifier notification.NotificationService,
) *DefaultSchedulingService {
	index := NewSlotIndex(appts, holds)
	wl := NewWaitlistManager(waitlist, owners, index, holds)
	return &DefaultSchedulingService{
		Owners:        owners,
		Appts:         appts,
		Index:         index,
		Waitlist:      wl,
		GapFill:       NewGapFillEngine(wl, index, owners, appts, notifier),
		Notifier:      notifier,
		Horizon:       time.Duration(config.AppConfig.SearchHorizonDays) * 24 * time.Hour,
		MaxCandidates: config.AppConfig.MaxCandidates,
	}
}
