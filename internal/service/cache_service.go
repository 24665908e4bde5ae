package service

import (
	"context"
	"strconv"
	"time"

	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/internal/dto"
	"github.com/tedlabs/identity/pkg/logger"
	"github.com/tedlabs/identity/pkg/redis"
)

const profileCacheTTL = 5 * time.Minute

// CacheService caches user profiles in Redis. Every method degrades to a
// no-op on a disabled client, and cache failures are logged but never
// surfaced to callers; the database stays the source of truth.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func profileKey(userID uint) string {
	return constants.CacheKeyProfile + strconv.FormatUint(uint64(userID), 10)
}

// GetProfile returns the cached profile, or nil on a miss or any failure.
func (s *CacheService) GetProfile(ctx context.Context, userID uint) *dto.UserProfileResponse {
	var profile dto.UserProfileResponse
	hit, err := s.client.GetJSON(ctx, profileKey(userID), &profile)
	if err != nil || !hit {
		return nil
	}
	return &profile
}

// SetProfile caches the profile for the standard TTL.
func (s *CacheService) SetProfile(ctx context.Context, userID uint, profile *dto.UserProfileResponse) {
	if err := s.client.SetJSON(ctx, profileKey(userID), profile, profileCacheTTL); err != nil {
		logger.WarnWithContext(ctx, "Failed to cache profile").
			Int("user_id", int(userID)).
			Err(err).
			Log()
	}
}

// InvalidateProfile drops the cached profile after a mutation.
func (s *CacheService) InvalidateProfile(ctx context.Context, userID uint) {
	if err := s.client.Delete(ctx, profileKey(userID)); err != nil {
		logger.WarnWithContext(ctx, "Failed to invalidate profile cache").
			Int("user_id", int(userID)).
			Err(err).
			Log()
	}
}
