package equipment

import (
	"context"
	"strings"
	"time"

	"equiprent/internal/cache"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AvailabilityPolicy tells the catalog which bookings make equipment busy.
type AvailabilityPolicy struct {
	BlockingStatuses []string
	Strict           bool
}

type Service struct {
	repo         Repository
	cache        cache.Cache
	cacheTTL     time.Duration
	availability AvailabilityPolicy
	currency     string
	logger       zerolog.Logger
}

func NewService(repo Repository, c cache.Cache, cacheTTL time.Duration, availability AvailabilityPolicy, currency string, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		cache:        c,
		cacheTTL:     cacheTTL,
		availability: availability,
		currency:     strings.ToLower(currency),
		logger:       logger.With().Str("component", "equipment").Logger(),
	}
}

func cacheKey(id uuid.UUID) string { return "equipment:" + id.String() }

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateRequest) (*Equipment, error) {
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}
	e := &Equipment{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
		City:        strings.TrimSpace(req.City),
		DailyRate:   req.DailyRate,
		Currency:    currency,
		Deposit:     req.Deposit,
		IsActive:    true,
		ImageURLs:   []string{},
	}
	if e.Title == "" || e.DailyRate <= 0 {
		return nil, ErrValidation
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns the listing, served from cache when possible.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	if s.cache != nil {
		var cached Equipment
		ok, err := cache.GetJSON(ctx, s.cache, cacheKey(id), &cached)
		if err != nil {
			s.logger.Warn().Err(err).Msg("equipment cache read failed")
		}
		if ok {
			return &cached, nil
		}
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, cacheKey(id), e, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("equipment cache write failed")
		}
	}
	return e, nil
}

// GetByID bypasses the cache; booking writes need the authoritative row.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return e.OwnerID, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, req UpdateRequest) (*Equipment, error) {
	if err := s.checkOwner(ctx, ownerID, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrValidation
		}
		fields["title"] = title
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		fields["category"] = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.City != nil {
		fields["city"] = strings.TrimSpace(*req.City)
	}
	if req.DailyRate != nil {
		fields["daily_rate"] = *req.DailyRate
	}
	if req.Deposit != nil {
		fields["deposit"] = *req.Deposit
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if len(fields) > 0 {
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return nil, err
		}
		s.invalidate(ctx, id)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.checkOwner(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) AddImage(ctx context.Context, ownerID, id uuid.UUID, url string) (*Equipment, error) {
	if err := s.checkOwner(ctx, ownerID, id); err != nil {
		return nil, err
	}
	if err := s.repo.AppendImage(ctx, id, url); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.repo.GetByID(ctx, id)
}

// Search lists active equipment. When from/to are set only equipment free for
// the whole window is returned.
func (s *Service) Search(ctx context.Context, f Filter, from, to *time.Time) (*SearchResult, error) {
	if from != nil && to != nil {
		if !to.After(*from) {
			return nil, ErrValidation
		}
		f.OnlyFree = &FreeWindow{
			From:             *from,
			To:               *to,
			BlockingStatuses: s.availability.BlockingStatuses,
			Strict:           s.availability.Strict,
		}
	}
	if f.MinRate > 0 && f.MaxRate > 0 && f.MinRate > f.MaxRate {
		return nil, ErrValidation
	}

	items, total, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return &SearchResult{Items: items, Total: total, Limit: limit, Offset: f.Offset}, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Equipment, error) {
	items, _, err := s.repo.Search(ctx, Filter{OwnerID: &ownerID, IncludeInactive: true, Limit: 100})
	return items, err
}

func (s *Service) checkOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e.OwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn().Err(err).Msg("equipment cache invalidation failed")
	}
}
