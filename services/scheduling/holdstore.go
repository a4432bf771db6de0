package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookline/models"
	"bookline/utils"

	"github.com/go-redis/redis/v8"
)

// HoldStore keeps the ephemeral reservations created when a freed
// interval is offered to a waitlist entry. Expiry is enforced by the
// store's TTL: a missing key means the offer lapsed.
type HoldStore interface {
	Put(ctx context.Context, hold models.Hold, ttl time.Duration) error
	// Get returns nil when no live hold exists for the entry.
	Get(ctx context.Context, ownerID, entryID string) (*models.Hold, error)
	Delete(ctx context.Context, ownerID, entryID string) error
	// ListByOwner returns all live holds for an owner.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Hold, error)
	// IncrOutreach bumps and returns the offer counter for a gap, so
	// successive expiry-and-reoffer cycles stay bounded.
	IncrOutreach(ctx context.Context, ownerID string, gap models.Interval) (int, error)
}

// RedisHoldStore implements HoldStore on the dedicated hold DB.
type RedisHoldStore struct {
	client *redis.Client
}

// NewRedisHoldStore creates a HoldStore backed by the hold redis DB.
func NewRedisHoldStore() *RedisHoldStore {
	return &RedisHoldStore{client: utils.GetHoldCacheClient()}
}

func holdKey(ownerID, entryID string) string {
	return fmt.Sprintf("hold:%s:%s", ownerID, entryID)
}

// Put stores the hold under its TTL.
func (s *RedisHoldStore) Put(ctx context.Context, hold models.Hold, ttl time.Duration) error {
	data, err := json.Marshal(hold)
	if err != nil {
		return fmt.Errorf("failed to marshal hold for entry %s: %w", hold.EntryID, err)
	}
	if err := s.client.Set(ctx, holdKey(hold.OwnerID, hold.EntryID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store hold for entry %s: %w", hold.EntryID, err)
	}
	return nil
}

// Get returns the live hold for an entry, or nil if it expired.
func (s *RedisHoldStore) Get(ctx context.Context, ownerID, entryID string) (*models.Hold, error) {
	data, err := s.client.Get(ctx, holdKey(ownerID, entryID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hold for entry %s: %w", entryID, err)
	}
	var hold models.Hold
	if err := json.Unmarshal(data, &hold); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hold for entry %s: %w", entryID, err)
	}
	return &hold, nil
}

// Delete removes a hold; deleting an absent hold is not an error.
func (s *RedisHoldStore) Delete(ctx context.Context, ownerID, entryID string) error {
	if err := s.client.Del(ctx, holdKey(ownerID, entryID)).Err(); err != nil {
		return fmt.Errorf("failed to delete hold for entry %s: %w", entryID, err)
	}
	return nil
}

// ListByOwner scans the owner's hold keys.
func (s *RedisHoldStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Hold, error) {
	var holds []models.Hold
	iter := s.client.Scan(ctx, 0, fmt.Sprintf("hold:%s:*", ownerID), 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch hold %s: %w", iter.Val(), err)
		}
		var hold models.Hold
		if err := json.Unmarshal(data, &hold); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hold %s: %w", iter.Val(), err)
		}
		holds = append(holds, hold)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan holds for owner %s: %w", ownerID, err)
	}
	return holds, nil
}

// IncrOutreach bumps the per-gap offer counter. Counters expire on
// their own after a day; a gap that old is no longer worth chasing.
func (s *RedisHoldStore) IncrOutreach(ctx context.Context, ownerID string, gap models.Interval) (int, error) {
	key := fmt.Sprintf("outreach:%s:%d", ownerID, gap.Start.Unix())
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count outreach for owner %s: %w", ownerID, err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, 24*time.Hour)
	}
	return int(count), nil
}
