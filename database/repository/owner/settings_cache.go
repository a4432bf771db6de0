package ownerRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookline/config"
	"bookline/models"
	"bookline/utils"

	"go.uber.org/zap"
)

// CachedOwnerRepo layers a short-lived redis snapshot cache over the
// settings reads, which every booking operation performs. All other
// calls pass straight through.
type CachedOwnerRepo struct {
	OwnerRepository
}

// NewCachedOwnerRepo wraps an owner repository with the settings cache.
func NewCachedOwnerRepo(inner OwnerRepository) *CachedOwnerRepo {
	return &CachedOwnerRepo{OwnerRepository: inner}
}

func settingsKey(ownerID string) string {
	return fmt.Sprintf("settings:%s", ownerID)
}

// GetSettings serves the snapshot from cache when fresh, falling back
// to the underlying repository and repopulating on a miss.
func (r *CachedOwnerRepo) GetSettings(ownerID string) (*models.Settings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cache := utils.GetCacheClient()
	if data, err := cache.Get(ctx, settingsKey(ownerID)).Result(); err == nil {
		var settings models.Settings
		if err := json.Unmarshal([]byte(data), &settings); err == nil {
			return &settings, nil
		}
	}

	settings, err := r.OwnerRepository.GetSettings(ownerID)
	if err != nil || settings == nil {
		return settings, err
	}
	if data, err := json.Marshal(settings); err == nil {
		if err := cache.Set(ctx, settingsKey(ownerID), data, config.SettingsCacheTTL()).Err(); err != nil {
			utils.GetLogger().Warn("failed to cache settings snapshot",
				zap.String("owner_id", ownerID), zap.Error(err))
		}
	}
	return settings, nil
}

// UpsertSettings writes through and drops the cached snapshot.
func (r *CachedOwnerRepo) UpsertSettings(settings *models.Settings) error {
	if err := r.OwnerRepository.UpsertSettings(settings); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := utils.GetCacheClient().Del(ctx, settingsKey(settings.OwnerID)).Err(); err != nil {
		utils.GetLogger().Warn("failed to invalidate settings snapshot",
			zap.String("owner_id", settings.OwnerID), zap.Error(err))
	}
	return nil
}
