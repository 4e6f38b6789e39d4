package review

import (
	"context"
	"errors"
	"strings"

	"equiprent/internal/domain/booking"
	"equiprent/internal/events"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingGate interface {
	GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

type Service struct {
	reviews  *ReviewRepository
	bookings BookingGate
	events   events.Publisher
	logger   zerolog.Logger
}

func NewService(reviews *ReviewRepository, bookings BookingGate, pub events.Publisher, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		reviews:  reviews,
		bookings: bookings,
		events:   pub,
		logger:   logger.With().Str("component", "review").Logger(),
	}
}

// Create stores the author's review of the other party of a completed booking.
func (s *Service) Create(ctx context.Context, authorID, bookingID uuid.UUID, req CreateReviewRequest) (*Review, error) {
	if authorID == uuid.Nil || req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRequest
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !b.IsParty(authorID) {
		return nil, ErrForbidden
	}
	if b.Status != booking.StatusCompleted {
		return nil, ErrReviewNotAllowed
	}

	subject := b.OwnerID
	if authorID == b.OwnerID {
		subject = b.RenterID
	}

	rv := &Review{
		BookingID:   b.ID,
		EquipmentID: b.EquipmentID,
		AuthorID:    authorID,
		SubjectID:   subject,
		Rating:      req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}

	if err := s.events.PublishJSON(events.ReviewCreated, events.ReviewPayload{
		ReviewID:  rv.ID,
		BookingID: rv.BookingID,
		AuthorID:  rv.AuthorID,
		SubjectID: rv.SubjectID,
		Rating:    rv.Rating,
	}); err != nil {
		s.logger.Error().Err(err).Msg("publish review.created failed")
	}
	return rv, nil
}

func (s *Service) ListByEquipment(ctx context.Context, equipmentID uuid.UUID, limit, offset int) ([]Review, error) {
	return s.reviews.List(ctx, "equipment_id", equipmentID, limit, offset)
}

func (s *Service) ListBySubject(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Review, error) {
	return s.reviews.List(ctx, "subject_id", userID, limit, offset)
}

func (s *Service) EquipmentSummary(ctx context.Context, equipmentID uuid.UUID) (Summary, error) {
	return s.reviews.Summary(ctx, "equipment_id", equipmentID)
}

// UserRatingSummary reports the average rating a user received as a party.
func (s *Service) UserRatingSummary(ctx context.Context, userID uuid.UUID) (float64, int64, error) {
	sum, err := s.reviews.Summary(ctx, "subject_id", userID)
	return sum.Average, sum.Count, err
}

func (s *Service) Hide(ctx context.Context, reviewID uuid.UUID) error {
	return s.reviews.Hide(ctx, reviewID)
}
