package ownerRepo

import (
	"bookline/models"
)

// OwnerRepository defines data access for owners, their services,
// clients, settings and the audit trail.
type OwnerRepository interface {
	// GetOwnerByID retrieves an owner by its unique ID.
	GetOwnerByID(id string) (*models.Owner, error)
	// GetOwnerByPhone retrieves an owner by phone number.
	GetOwnerByPhone(phone string) (*models.Owner, error)
	// CreateOwner inserts a new owner record.
	CreateOwner(owner *models.Owner) error
	// UpdateOwnerIntent switches an owner's optimization intent.
	UpdateOwnerIntent(id, intent string) error

	// GetServiceByID retrieves a service by its unique ID.
	GetServiceByID(id string) (*models.Service, error)
	// ListServices retrieves all active services for an owner.
	ListServices(ownerID string) ([]models.Service, error)
	// CreateService inserts a new service record.
	CreateService(svc *models.Service) error
	// UpdateService modifies an existing service record.
	UpdateService(svc *models.Service) error

	// GetClientByID retrieves a client by its unique ID.
	GetClientByID(id string) (*models.Client, error)
	// GetClientByPhone retrieves an owner's client by phone number.
	GetClientByPhone(ownerID, phone string) (*models.Client, error)
	// CreateClient inserts a new client record.
	CreateClient(client *models.Client) error
	// UpdateClient modifies an existing client record.
	UpdateClient(client *models.Client) error

	// GetSettings retrieves an owner's scheduling settings.
	GetSettings(ownerID string) (*models.Settings, error)
	// UpsertSettings creates or replaces an owner's settings.
	UpsertSettings(settings *models.Settings) error

	// AppendAudit records a scheduling action.
	AppendAudit(entry *models.AuditLog) error
	// ListAudit retrieves the most recent audit entries for an owner.
	ListAudit(ownerID string, limit int) ([]models.AuditLog, error)
}
