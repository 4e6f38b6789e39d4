package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Service struct {
	repo     *NotificationRepository
	delivery Delivery
	logger   zerolog.Logger
}

func NewService(repo *NotificationRepository, delivery Delivery, logger zerolog.Logger) *Service {
	if delivery == nil {
		delivery = PollingDelivery{}
	}
	return &Service{
		repo:     repo,
		delivery: delivery,
		logger:   logger.With().Str("component", "notification").Logger(),
	}
}

// Create stores a notification and hands it to the delivery strategy. A
// failed push is logged; the stored row is still listed.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, t Type, title, body string, data map[string]any) (*Notification, error) {
	n := &Notification{
		UserID: userID,
		Type:   t,
		Title:  title,
		Body:   body,
	}
	if len(data) > 0 {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		n.Data = raw
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if err := s.delivery.Deliver(ctx, userID, *n); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("notification push failed")
	}
	return n, nil
}

type ListResult struct {
	Items       []Notification `json:"items"`
	UnreadCount int64          `json:"unread_count"`
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, after *time.Time, limit int) (*ListResult, error) {
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	items, err := s.repo.List(ctx, userID, after, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: items, UnreadCount: unread}, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *Service) PurgeRead(ctx context.Context, readBefore time.Time) (int64, error) {
	return s.repo.PurgeRead(ctx, readBefore)
}
