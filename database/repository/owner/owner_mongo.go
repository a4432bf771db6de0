package ownerRepo

import (
	"context"
	"fmt"
	"time"

	"bookline/database"
	"bookline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOwnerRepo implements OwnerRepository using MongoDB.
type MongoOwnerRepo struct {
	owners   *mongo.Collection
	services *mongo.Collection
	clients  *mongo.Collection
	settings *mongo.Collection
	audit    *mongo.Collection
}

// NewMongoOwnerRepo creates a new instance of OwnerRepository using MongoDB.
func NewMongoOwnerRepo() OwnerRepository {
	repo := &MongoOwnerRepo{
		owners:   database.Collection("owners"),
		services: database.Collection("services"),
		clients:  database.Collection("clients"),
		settings: database.Collection("settings"),
		audit:    database.Collection("audit_logs"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoOwnerRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	if _, err := r.owners.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create owner indexes: %w", err)
	}
	if _, err := r.services.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create service indexes: %w", err)
	}
	if _, err := r.clients.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create client indexes: %w", err)
	}
	if _, err := r.settings.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}}, Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create settings index: %w", err)
	}
	if _, err := r.audit.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create audit index: %w", err)
	}
	return nil
}

// GetOwnerByID retrieves an owner by its unique ID.
func (r *MongoOwnerRepo) GetOwnerByID(id string) (*models.Owner, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var owner models.Owner
	if err := r.owners.FindOne(ctx, bson.M{"id": id}).Decode(&owner); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch owner with id %s: %w", id, err)
	}
	return &owner, nil
}

// GetOwnerByPhone retrieves an owner by phone number.
func (r *MongoOwnerRepo) GetOwnerByPhone(phone string) (*models.Owner, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var owner models.Owner
	if err := r.owners.FindOne(ctx, bson.M{"phone": phone}).Decode(&owner); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch owner with phone %s: %w", phone, err)
	}
	return &owner, nil
}

// CreateOwner inserts a new owner document.
func (r *MongoOwnerRepo) CreateOwner(owner *models.Owner) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	owner.CreatedAt = time.Now()
	if _, err := r.owners.InsertOne(ctx, owner); err != nil {
		return fmt.Errorf("failed to create owner: %w", err)
	}
	return nil
}

// UpdateOwnerIntent switches an owner's optimization intent.
func (r *MongoOwnerRepo) UpdateOwnerIntent(id, intent string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.owners.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"intent": intent}})
	if err != nil {
		return fmt.Errorf("failed to update intent for owner %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("owner with id %s not found", id)
	}
	return nil
}

// GetServiceByID retrieves a service by its unique ID.
func (r *MongoOwnerRepo) GetServiceByID(id string) (*models.Service, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var svc models.Service
	if err := r.services.FindOne(ctx, bson.M{"id": id}).Decode(&svc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch service with id %s: %w", id, err)
	}
	return &svc, nil
}

// ListServices retrieves all active services for an owner.
func (r *MongoOwnerRepo) ListServices(ownerID string) ([]models.Service, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	cursor, err := r.services.Find(ctx, bson.M{"owner_id": ownerID, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve services for owner %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	var services []models.Service
	for cursor.Next(ctx) {
		var s models.Service
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode service: %w", err)
		}
		services = append(services, s)
	}
	return services, nil
}

// CreateService inserts a new service document.
func (r *MongoOwnerRepo) CreateService(svc *models.Service) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if _, err := r.services.InsertOne(ctx, svc); err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

// UpdateService modifies an existing service document.
func (r *MongoOwnerRepo) UpdateService(svc *models.Service) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.services.UpdateOne(ctx, bson.M{"id": svc.ID}, bson.M{"$set": svc})
	if err != nil {
		return fmt.Errorf("failed to update service with id %s: %w", svc.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("service with id %s not found", svc.ID)
	}
	return nil
}

// GetClientByID retrieves a client by its unique ID.
func (r *MongoOwnerRepo) GetClientByID(id string) (*models.Client, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var client models.Client
	if err := r.clients.FindOne(ctx, bson.M{"id": id}).Decode(&client); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch client with id %s: %w", id, err)
	}
	return &client, nil
}

// GetClientByPhone retrieves an owner's client by phone number.
func (r *MongoOwnerRepo) GetClientByPhone(ownerID, phone string) (*models.Client, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var client models.Client
	filter := bson.M{"owner_id": ownerID, "phone": phone}
	if err := r.clients.FindOne(ctx, filter).Decode(&client); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch client with phone %s: %w", phone, err)
	}
	return &client, nil
}

// CreateClient inserts a new client document.
func (r *MongoOwnerRepo) CreateClient(client *models.Client) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	client.CreatedAt = time.Now()
	if _, err := r.clients.InsertOne(ctx, client); err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// UpdateClient modifies an existing client document.
func (r *MongoOwnerRepo) UpdateClient(client *models.Client) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.clients.UpdateOne(ctx, bson.M{"id": client.ID}, bson.M{"$set": client})
	if err != nil {
		return fmt.Errorf("failed to update client with id %s: %w", client.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("client with id %s not found", client.ID)
	}
	return nil
}

// GetSettings retrieves an owner's scheduling settings.
func (r *MongoOwnerRepo) GetSettings(ownerID string) (*models.Settings, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var settings models.Settings
	if err := r.settings.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&settings); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch settings for owner %s: %w", ownerID, err)
	}
	return &settings, nil
}

// UpsertSettings creates or replaces an owner's settings.
func (r *MongoOwnerRepo) UpsertSettings(settings *models.Settings) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"owner_id": settings.OwnerID}
	if _, err := r.settings.ReplaceOne(ctx, filter, settings, opts); err != nil {
		return fmt.Errorf("failed to upsert settings for owner %s: %w", settings.OwnerID, err)
	}
	return nil
}

// AppendAudit records a scheduling action.
func (r *MongoOwnerRepo) AppendAudit(entry *models.AuditLog) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	entry.CreatedAt = time.Now()
	if _, err := r.audit.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListAudit retrieves the most recent audit entries for an owner.
func (r *MongoOwnerRepo) ListAudit(ownerID string, limit int) ([]models.AuditLog, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.audit.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve audit entries for owner %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	var entries []models.AuditLog
	for cursor.Next(ctx) {
		var e models.AuditLog
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
