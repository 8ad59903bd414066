package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/CoderVinit/doctor-backend/internal/application/loaders"
	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
	apperrors "github.com/CoderVinit/doctor-backend/pkg/errors"
)

const (
	DefaultRecommendationLimit = 5
	MaxRecommendationLimit     = 20
)

// DoctorRecommendationService ranks doctors against a symptom description
type DoctorRecommendationService struct {
	doctors repositories.DoctorRepository
	search  repositories.DoctorSearchRepository
	matcher *SymptomMatcher
}

// NewDoctorRecommendationService creates a new recommendation service. search
// may be nil, in which case candidates come from the doctor repository.
func NewDoctorRecommendationService(doctors repositories.DoctorRepository, search repositories.DoctorSearchRepository, matcher *SymptomMatcher) *DoctorRecommendationService {
	return &DoctorRecommendationService{
		doctors: doctors,
		search:  search,
		matcher: matcher,
	}
}

// RecommendDoctors returns up to limit doctors ordered by match score. A
// limit of 0 means the default.
func (s *DoctorRecommendationService) RecommendDoctors(ctx context.Context, symptoms string, limit int) ([]*entities.DoctorMatch, error) {
	if limit == 0 {
		limit = DefaultRecommendationLimit
	}
	if limit < 1 || limit > MaxRecommendationLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", MaxRecommendationLimit))
	}

	keywords := s.matcher.ExtractKeywords(symptoms)
	if len(keywords) == 0 {
		top, err := s.doctors.ListTopRated(ctx, limit)
		if err != nil {
			return nil, err
		}
		matches := make([]*entities.DoctorMatch, 0, len(top))
		for _, d := range top {
			matches = append(matches, &entities.DoctorMatch{Doctor: *d})
		}
		return matches, nil
	}

	candidates, err := s.candidates(ctx, keywords, limit)
	if err != nil {
		return nil, err
	}

	matches := make([]*entities.DoctorMatch, 0, len(candidates))
	for _, d := range candidates {
		matches = append(matches, &entities.DoctorMatch{
			Doctor:     *d,
			MatchScore: s.matcher.MatchScore(d, keywords),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches, nil
}

func (s *DoctorRecommendationService) candidates(ctx context.Context, keywords []string, limit int) ([]*entities.Doctor, error) {
	if s.search != nil {
		ids, err := s.search.Search(ctx, keywords, limit)
		if err == nil {
			var doctors []*entities.Doctor
			if doctors, err = s.hydrate(ctx, ids); err == nil {
				return doctors, nil
			}
		}
		log.Warn().Err(err).Msg("Doctor search failed, falling back to database")
	}
	return s.doctors.SearchByKeywords(ctx, keywords, limit)
}

// hydrate resolves search hits in hit order. Hits the database no longer
// knows are dropped; it fails only when no hit resolves.
func (s *DoctorRecommendationService) hydrate(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	if len(ids) == 0 {
		return []*entities.Doctor{}, nil
	}

	l := loaders.For(ctx)
	if l == nil {
		l = loaders.NewLoaders(s.doctors)
	}

	doctors, errs := l.DoctorLoader.LoadMany(ctx, ids)()
	out := make([]*entities.Doctor, 0, len(doctors))
	for i, d := range doctors {
		if i < len(errs) && errs[i] != nil {
			log.Debug().Err(errs[i]).Str("doctor_id", ids[i]).Msg("Skipping unresolved search hit")
			continue
		}
		if d != nil {
			out = append(out, d)
		}
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("failed to load search hits: %w", errs[0])
	}
	return out, nil
}
