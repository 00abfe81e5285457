package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	apperrors "github.com/carelink/portal-api/pkg/errors"
	"github.com/carelink/portal-api/pkg/logger"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Service serves the public doctor directory. Listings are cached briefly
// since the directory changes far less often than it is read.
type Service struct {
	repo   repository.DoctorRepository
	cache  *cache.Cache
	logger *logger.Logger
}

func NewService(repo repository.DoctorRepository, l *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache.New(cacheTTL, cacheCleanup),
		logger: l,
	}
}

func (s *Service) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	key := cacheKey(filters)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.Doctor), nil
	}

	doctors, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Store(err)
	}

	s.cache.Set(key, doctors, cache.DefaultExpiration)
	return doctors, nil
}

func (s *Service) Get(ctx context.Context, profileID uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.repo.GetByProfileID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Store(err)
	}
	return doctor, nil
}

// Update lets a doctor edit their own directory entry. The cache is flushed
// so stale listings do not outlive the change.
func (s *Service) Update(ctx context.Context, actor uuid.UUID, d *model.DoctorProfile) (*model.Doctor, error) {
	if d.WorkingHoursStart != "" && d.WorkingHoursEnd != "" {
		start, err := time.Parse("15:04", d.WorkingHoursStart)
		if err != nil {
			return nil, apperrors.Validation("invalid working hours start", err)
		}
		end, err := time.Parse("15:04", d.WorkingHoursEnd)
		if err != nil {
			return nil, apperrors.Validation("invalid working hours end", err)
		}
		if !start.Before(end) {
			return nil, apperrors.Validation("working hours start must be before end", nil)
		}
	}

	if err := s.repo.Update(ctx, actor, d); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Store(err)
	}

	s.cache.Flush()
	return s.Get(ctx, actor)
}

func cacheKey(filters *model.DoctorFilters) string {
	if filters == nil {
		return "doctors::"
	}
	return fmt.Sprintf("doctors:%s:%s", filters.Specialty, filters.SearchTerm)
}
