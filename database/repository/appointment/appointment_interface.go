package appointmentRepo

import (
	"time"

	"bookline/models"
)

// AppointmentRepository defines data access for appointments.
type AppointmentRepository interface {
	// GetByID retrieves an appointment by its unique ID.
	GetByID(id string) (*models.Appointment, error)
	// Create inserts a new appointment record.
	Create(appt *models.Appointment) error
	// Update modifies an existing appointment record.
	Update(appt *models.Appointment) error
	// UpdateStatus transitions an appointment's status.
	UpdateStatus(id, status string) error
	// ListActiveInRange retrieves pending and confirmed appointments
	// overlapping [from, to), ordered by start time.
	ListActiveInRange(ownerID string, from, to time.Time) ([]models.Appointment, error)
	// CountActiveForDay counts active appointments starting in [dayStart, dayEnd).
	CountActiveForDay(ownerID string, dayStart, dayEnd time.Time) (int, error)
	// ListActiveByClient retrieves a client's active appointments with an owner.
	ListActiveByClient(ownerID, clientID string) ([]models.Appointment, error)
	// ListStartingBetween retrieves active appointments across all owners
	// starting in [from, to), for reminder dispatch.
	ListStartingBetween(from, to time.Time) ([]models.Appointment, error)
}
