package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"filing-service/internal/apperrors"
	"filing-service/internal/models"
)

// Cache TTL for taxpayer profiles; profiles are owned by the subject service
// and change rarely
const TaxpayerCacheTTL = 10 * time.Minute

// TaxpayerRepository reads taxpayer profiles
type TaxpayerRepository struct {
	db    *gorm.DB
	cache *cache.CacheLayer
}

// NewTaxpayerRepository creates a taxpayer repository. Caching is off when redisClient is nil.
func NewTaxpayerRepository(db *gorm.DB, redisClient *redis.Client) *TaxpayerRepository {
	repo := &TaxpayerRepository{db: db}

	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 500,
			L1TTL:      30 * time.Second,
			DefaultTTL: TaxpayerCacheTTL,
			KeyPrefix:  "filing:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

func generateTaxpayerCacheKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("taxpayer:%s", ownerID.String())
}

// GetByOwner loads the taxpayer profile of an owner
func (r *TaxpayerRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.TaxpayerProfile, error) {
	var profile models.TaxpayerProfile

	if r.cache != nil {
		err := r.cache.GetOrSetJSON(ctx, generateTaxpayerCacheKey(ownerID), &profile, TaxpayerCacheTTL, func() (any, error) {
			return r.load(ctx, ownerID)
		})
		if err != nil {
			return nil, r.mapError(ownerID, err)
		}
		return &profile, nil
	}

	loaded, err := r.load(ctx, ownerID)
	if err != nil {
		return nil, r.mapError(ownerID, err)
	}
	return loaded, nil
}

func (r *TaxpayerRepository) load(ctx context.Context, ownerID uuid.UUID) (*models.TaxpayerProfile, error) {
	var profile models.TaxpayerProfile
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *TaxpayerRepository) mapError(ownerID uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.New("GetByOwner", apperrors.ErrTaxpayerNotFound, ownerID.String())
	}
	return fmt.Errorf("failed to load taxpayer profile: %w", err)
}

// InvalidateOwner drops the cached profile of an owner
func (r *TaxpayerRepository) InvalidateOwner(ctx context.Context, ownerID uuid.UUID) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(ctx, generateTaxpayerCacheKey(ownerID))
}

// CacheStats returns cache statistics
func (r *TaxpayerRepository) CacheStats() *cache.CacheStats {
	if r.cache == nil {
		return nil
	}
	stats := r.cache.Stats()
	return &stats
}
