package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/providers"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	"github.com/CoderVinit/doctor-backend/internal/infrastructure/observability"
)

// CachedDoctorAdapter wraps a DoctorRepository with caching
type CachedDoctorAdapter struct {
	adapter repositories.DoctorRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedDoctorAdapter creates a new cached doctor adapter. metrics may be nil.
func NewCachedDoctorAdapter(adapter repositories.DoctorRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.DoctorRepository {
	return &CachedDoctorAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

// Cache TTLs (in seconds)
const (
	doctorByIDTTL    = 300
	topRatedTTL      = 180
	keywordSearchTTL = 120
)

const doctorKeyspace = "doctor"

// DoctorCacheKey is the cache key of one doctor
func DoctorCacheKey(id string) string {
	return fmt.Sprintf("doctor:%s", id)
}

// TopRatedCacheKey is the cache key of the top-rated list for limit
func TopRatedCacheKey(limit int) string {
	return fmt.Sprintf("doctors:top:%d", limit)
}

func keywordSearchCacheKey(keywords []string, limit int) string {
	return fmt.Sprintf("doctors:search:%d:%q", limit, keywords)
}

// GetByID retrieves a doctor by ID with caching
func (a *CachedDoctorAdapter) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	cacheKey := DoctorCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var doctor entities.Doctor
		if err := json.Unmarshal(cached, &doctor); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, doctorKeyspace)
			return &doctor, nil
		}
		log.Warn().Err(err).Str("doctor_id", id).Msg("Failed to unmarshal cached doctor")
	}
	observability.RecordCacheMiss(ctx, a.metrics, doctorKeyspace)

	doctor, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.setAsync(cacheKey, doctor, doctorByIDTTL)
	return doctor, nil
}

// GetByIDs retrieves doctors by IDs, reading cached entries in one batch.
// Results keep the order of ids.
func (a *CachedDoctorAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	if len(ids) == 0 {
		return []*entities.Doctor{}, nil
	}

	cacheKeys := make([]string, len(ids))
	for i, id := range ids {
		cacheKeys[i] = DoctorCacheKey(id)
	}

	cached, err := a.cache.GetMulti(ctx, cacheKeys)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read doctors from cache")
		cached = map[string][]byte{}
	}

	found := make(map[string]*entities.Doctor, len(ids))
	missingIDs := make([]string, 0)
	for i, id := range ids {
		if data, ok := cached[cacheKeys[i]]; ok {
			var doctor entities.Doctor
			if err := json.Unmarshal(data, &doctor); err == nil {
				found[id] = &doctor
				continue
			}
		}
		missingIDs = append(missingIDs, id)
	}

	if len(found) > 0 {
		observability.RecordCacheHit(ctx, a.metrics, doctorKeyspace)
	}

	if len(missingIDs) > 0 {
		observability.RecordCacheMiss(ctx, a.metrics, doctorKeyspace)

		dbDoctors, err := a.adapter.GetByIDs(ctx, missingIDs)
		if err != nil {
			return nil, err
		}
		for _, d := range dbDoctors {
			found[d.ID] = d
		}
		a.setMultiAsync(dbDoctors)
	}

	doctors := make([]*entities.Doctor, 0, len(found))
	for _, id := range ids {
		if d, ok := found[id]; ok {
			doctors = append(doctors, d)
		}
	}
	return doctors, nil
}

// ListTopRated returns the top-rated doctors with caching
func (a *CachedDoctorAdapter) ListTopRated(ctx context.Context, limit int) ([]*entities.Doctor, error) {
	return a.cachedList(ctx, TopRatedCacheKey(limit), topRatedTTL, func() ([]*entities.Doctor, error) {
		return a.adapter.ListTopRated(ctx, limit)
	})
}

// SearchByKeywords searches doctors with caching
func (a *CachedDoctorAdapter) SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]*entities.Doctor, error) {
	return a.cachedList(ctx, keywordSearchCacheKey(keywords, limit), keywordSearchTTL, func() ([]*entities.Doctor, error) {
		return a.adapter.SearchByKeywords(ctx, keywords, limit)
	})
}

// List is not cached; it serves indexing
func (a *CachedDoctorAdapter) List(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.Doctor, error) {
	return a.adapter.List(ctx, filter)
}

// Create creates a doctor and invalidates list caches
func (a *CachedDoctorAdapter) Create(ctx context.Context, doctor *entities.Doctor) error {
	if err := a.adapter.Create(ctx, doctor); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if err := a.cache.DeletePattern(bgCtx, "doctors:*"); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate doctor list caches")
		}
	}()
	return nil
}

func (a *CachedDoctorAdapter) cachedList(ctx context.Context, cacheKey string, ttl int, load func() ([]*entities.Doctor, error)) ([]*entities.Doctor, error) {
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var doctors []*entities.Doctor
		if err := json.Unmarshal(cached, &doctors); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, doctorKeyspace)
			return doctors, nil
		}
		log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to unmarshal cached doctor list")
	}
	observability.RecordCacheMiss(ctx, a.metrics, doctorKeyspace)

	doctors, err := load()
	if err != nil {
		return nil, err
	}

	a.setAsync(cacheKey, doctors, ttl)
	return doctors, nil
}

// setAsync updates the cache without blocking the caller
func (a *CachedDoctorAdapter) setAsync(key string, value interface{}, ttl int) {
	go func() {
		data, err := json.Marshal(value)
		if err != nil {
			return
		}
		if err := a.cache.Set(context.Background(), key, data, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache value")
		}
	}()
}

func (a *CachedDoctorAdapter) setMultiAsync(doctors []*entities.Doctor) {
	if len(doctors) == 0 {
		return
	}
	go func() {
		items := make(map[string][]byte, len(doctors))
		for _, d := range doctors {
			if data, err := json.Marshal(d); err == nil {
				items[DoctorCacheKey(d.ID)] = data
			}
		}
		if err := a.cache.SetMulti(context.Background(), items, doctorByIDTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to batch cache doctors")
		}
	}()
}
