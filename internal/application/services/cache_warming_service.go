package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/domain/providers"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
)

const (
	warmDoctorCount   = 50
	warmDoctorTTL     = 300
	warmTopRatedTTL   = 180
	doctorKeyPattern  = "doctor:*"
	doctorListPattern = "doctors:*"
)

// CacheWarmingService preloads doctor data that recommendations read on
// every request.
type CacheWarmingService struct {
	doctorRepo repositories.DoctorRepository
	cache      providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service. doctorRepo
// should be the uncached repository.
func NewCacheWarmingService(
	doctorRepo repositories.DoctorRepository,
	cache providers.CacheProvider,
) *CacheWarmingService {
	return &CacheWarmingService{
		doctorRepo: doctorRepo,
		cache:      cache,
	}
}

// WarmCache warms the cache with frequently accessed data
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	log.Debug().Msg("Starting cache warming")

	if err := s.warmTopDoctors(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to warm top doctors")
	}
	if err := s.warmTopRatedList(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to warm top-rated list")
	}

	log.Debug().Msg("Cache warming completed")
	return nil
}

// warmTopDoctors caches the top-rated doctors individually
func (s *CacheWarmingService) warmTopDoctors(ctx context.Context) error {
	doctors, err := s.doctorRepo.ListTopRated(ctx, warmDoctorCount)
	if err != nil {
		return fmt.Errorf("failed to fetch top doctors: %w", err)
	}

	items := make(map[string][]byte, len(doctors))
	for _, doctor := range doctors {
		data, err := json.Marshal(doctor)
		if err != nil {
			log.Warn().Err(err).Str("doctor_id", doctor.ID).Msg("Failed to marshal doctor")
			continue
		}
		items[fmt.Sprintf("doctor:%s", doctor.ID)] = data
	}

	if len(items) > 0 {
		if err := s.cache.SetMulti(ctx, items, warmDoctorTTL); err != nil {
			return fmt.Errorf("failed to cache top doctors: %w", err)
		}
		log.Info().Int("doctors", len(items)).Msg("Warmed cache with top doctors")
	}
	return nil
}

// warmTopRatedList caches the list served when symptoms yield no keywords
func (s *CacheWarmingService) warmTopRatedList(ctx context.Context) error {
	doctors, err := s.doctorRepo.ListTopRated(ctx, DefaultRecommendationLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch top-rated list: %w", err)
	}

	data, err := json.Marshal(doctors)
	if err != nil {
		return fmt.Errorf("failed to marshal top-rated list: %w", err)
	}

	key := fmt.Sprintf("doctors:top:%d", DefaultRecommendationLimit)
	if err := s.cache.Set(ctx, key, data, warmTopRatedTTL); err != nil {
		return fmt.Errorf("failed to cache top-rated list: %w", err)
	}
	return nil
}

// StartPeriodicWarming warms once, then on every tick until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("Periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("Started periodic cache warming")
}

// InvalidateCache drops every cached doctor entry, e.g. after a reseed
func (s *CacheWarmingService) InvalidateCache(ctx context.Context) error {
	for _, pattern := range []string{doctorKeyPattern, doctorListPattern} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate cache pattern %s: %w", pattern, err)
		}
	}
	log.Info().Msg("Doctor cache invalidated")
	return nil
}
