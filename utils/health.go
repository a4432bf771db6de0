package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus is the latest liveness snapshot of the engine's backing
// stores: the appointment database, the settings cache, and the hold
// store.
type HealthStatus struct {
	Mongo      bool      `json:"mongo"`
	RedisCache bool      `json:"redis_cache"`
	RedisHolds bool      `json:"redis_holds"`
	CheckedAt  time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns the latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

// StartHealthMonitor pings the backing stores periodically and keeps
// the in-memory snapshot current for the health endpoint.
func StartHealthMonitor(cache, holds *redis.Client, mongoClient *mongo.Client) {
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()

		ctx := context.Background()

		for range ticker.C {
			snapshot := HealthStatus{
				Mongo:      mongoClient.Ping(ctx, nil) == nil,
				RedisCache: cache.Ping(ctx).Err() == nil,
				RedisHolds: holds.Ping(ctx).Err() == nil,
				CheckedAt:  time.Now(),
			}

			healthMu.Lock()
			currentHealth = snapshot
			healthMu.Unlock()
		}
	}()
}
