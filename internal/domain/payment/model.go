package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

// Payment is one gateway charge for a booking. PayeeID is the equipment owner
// whose wallet receives the amount on settlement.
type Payment struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID     uuid.UUID  `json:"booking_id" gorm:"type:uuid;not null;index"`
	PayerID       uuid.UUID  `json:"payer_id" gorm:"type:uuid;not null;index"`
	PayeeID       uuid.UUID  `json:"payee_id" gorm:"type:uuid;not null"`
	Amount        int64      `json:"amount" gorm:"not null"`
	Currency      string     `json:"currency" gorm:"type:varchar(3);not null"`
	Status        Status     `json:"status" gorm:"type:varchar(16);not null;index;default:pending"`
	Provider      string     `json:"provider" gorm:"type:varchar(32);not null"`
	ProviderRef   *string    `json:"provider_ref,omitempty" gorm:"type:varchar(128);uniqueIndex"`
	FailureReason *string    `json:"failure_reason,omitempty" gorm:"type:text"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
