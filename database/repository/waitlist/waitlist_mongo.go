package waitlistRepo

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

// MongoWaitlistRepo implements WaitlistRepository using MongoDB.
type MongoWaitlistRepo struct {
	coll *mongo.Collection
}

// NewMongoWaitlistRepo creates a new instance of WaitlistRepository using MongoDB.
func NewMongoWaitlistRepo() WaitlistRepository {
	repo := &MongoWaitlistRepo{coll: database.Collection("waitlist")}
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
func (r *MongoWaitlistRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create waitlist indexes: %w", err)
	}
	return nil
}

// GetByID retrieves a waitlist entry by its unique ID.
func (r *MongoWaitlistRepo) GetByID(id string) (*models.WaitlistEntry, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var entry models.WaitlistEntry
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&entry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch waitlist entry with id %s: %w", id, err)
	}
	return &entry, nil
}

// Create inserts a new waitlist entry.
func (r *MongoWaitlistRepo) Create(entry *models.WaitlistEntry) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	entry.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	return nil
}

// Update modifies an existing waitlist entry.
func (r *MongoWaitlistRepo) Update(entry *models.WaitlistEntry) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": entry.ID}, bson.M{"$set": entry})
	if err != nil {
		return fmt.Errorf("failed to update waitlist entry with id %s: %w", entry.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("waitlist entry with id %s not found", entry.ID)
	}
	return nil
}

// UpdateStatus transitions a waitlist entry's status.
func (r *MongoWaitlistRepo) UpdateStatus(id, status string) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"status": status}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update status for waitlist entry %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("waitlist entry with id %s not found", id)
	}
	return nil
}

// ListActiveByOwner retrieves an owner's active entries, ordered by
// priority descending, then created time ascending.
func (r *MongoWaitlistRepo) ListActiveByOwner(ownerID string) ([]models.WaitlistEntry, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"owner_id": ownerID, "status": models.WaitlistActive}
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "created_at", Value: 1},
	})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve waitlist for owner %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	return decodeEntries(ctx, cursor)
}

// ListActiveByClientService retrieves active or offered entries for the
// same client and service.
func (r *MongoWaitlistRepo) ListActiveByClientService(ownerID, clientID, serviceID string) ([]models.WaitlistEntry, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{
		"owner_id":   ownerID,
		"client_id":  clientID,
		"service_id": serviceID,
		"status":     bson.M{"$in": []string{models.WaitlistActive, models.WaitlistOffered}},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch waitlist entries for client %s: %w", clientID, err)
	}
	defer cursor.Close(ctx)

	return decodeEntries(ctx, cursor)
}

// ListByClient retrieves a client's non-terminal entries with an owner.
func (r *MongoWaitlistRepo) ListByClient(ownerID, clientID string) ([]models.WaitlistEntry, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{
		"owner_id":  ownerID,
		"client_id": clientID,
		"status":    bson.M{"$in": []string{models.WaitlistActive, models.WaitlistOffered}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch waitlist entries for client %s: %w", clientID, err)
	}
	defer cursor.Close(ctx)

	return decodeEntries(ctx, cursor)
}

// MarkOffered records that an entry was offered a slot.
func (r *MongoWaitlistRepo) MarkOffered(id string, offered, gap models.Interval, notifiedAt time.Time) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":           models.WaitlistOffered,
			"offered_interval": offered,
			"offered_gap":      gap,
			"last_notified_at": notifiedAt,
		},
		"$inc": bson.M{"notify_count": 1},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark waitlist entry %s offered: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("waitlist entry with id %s not found", id)
	}
	return nil
}

// ListOffered retrieves all entries currently in the offered state.
func (r *MongoWaitlistRepo) ListOffered() ([]models.WaitlistEntry, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"status": models.WaitlistOffered})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve offered waitlist entries: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeEntries(ctx, cursor)
}

func decodeEntries(ctx context.Context, cursor *mongo.Cursor) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	for cursor.Next(ctx) {
		var e models.WaitlistEntry
		if err := cursor.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode waitlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
