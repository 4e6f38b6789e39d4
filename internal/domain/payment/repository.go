package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *PaymentRepository) GetByProviderRef(ctx context.Context, ref string) (*Payment, error) {
	return first(r.db.WithContext(ctx).Where("provider_ref = ?", ref))
}

// GetOpenByBooking returns the pending payment of a booking, if any.
func (r *PaymentRepository) GetOpenByBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	return first(r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, StatusPending).
		Order("created_at desc"))
}

func (r *PaymentRepository) GetPaidByBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	return first(r.db.WithContext(ctx).Where("booking_id = ? AND status = ?", bookingID, StatusPaid))
}

func (r *PaymentRepository) SetProviderRef(ctx context.Context, id uuid.UUID, ref string) error {
	return r.db.WithContext(ctx).Model(&Payment{}).Where("id = ?", id).
		Updates(map[string]any{"provider_ref": ref, "updated_at": time.Now().UTC()}).Error
}

// MarkFailed records a declined charge. Settled payments are left alone.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).Model(&Payment{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":         StatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func lockPayment(tx *gorm.DB, id uuid.UUID) (*Payment, error) {
	return first(tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func first(q *gorm.DB) (*Payment, error) {
	var p Payment
	err := q.First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
