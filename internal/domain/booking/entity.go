package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusOngoing    Status = "ongoing"
	StatusRejected   Status = "rejected"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusOngoing, StatusCancelled},
	StatusInProgress: {StatusOngoing, StatusCompleted, StatusCancelled},
	StatusOngoing:    {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	_, ok := transitions[s]
	return !ok
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusOngoing,
		StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Booking reserves a piece of equipment for [StartDate, EndDate].
type Booking struct {
	ID                uuid.UUID     `json:"id"`
	EquipmentID       uuid.UUID     `json:"equipment_id"`
	RenterID          uuid.UUID     `json:"renter_id"`
	OwnerID           uuid.UUID     `json:"owner_id"`
	StartDate         time.Time     `json:"start_date"`
	EndDate           time.Time     `json:"end_date"`
	Status            Status        `json:"status"`
	TotalAmount       int64         `json:"total_amount"`
	Currency          string        `json:"currency"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	Note              string        `json:"note,omitempty"`
	RejectionReason   string        `json:"rejection_reason,omitempty"`
	ProposedStartDate *time.Time    `json:"proposed_start_date,omitempty"`
	ProposedEndDate   *time.Time    `json:"proposed_end_date,omitempty"`
	CancelledBy       *uuid.UUID    `json:"cancelled_by,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// IsParty reports whether the user is the renter or the owner.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return b.RenterID == userID || b.OwnerID == userID
}

// RentalDays counts started 24h periods, at least one.
func RentalDays(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 1
	}
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

type bookingModel struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	EquipmentID       uuid.UUID  `gorm:"column:equipment_id;type:uuid;not null;index:idx_bookings_equipment_status,priority:1"`
	RenterID          uuid.UUID  `gorm:"column:renter_id;type:uuid;not null;index"`
	OwnerID           uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index"`
	StartDate         time.Time  `gorm:"column:start_date;not null"`
	EndDate           time.Time  `gorm:"column:end_date;not null"`
	Status            string     `gorm:"column:status;type:varchar(20);not null;index:idx_bookings_equipment_status,priority:2"`
	TotalAmount       int64      `gorm:"column:total_amount;not null"`
	Currency          string     `gorm:"column:currency;type:varchar(3);not null"`
	PaymentStatus     string     `gorm:"column:payment_status;type:varchar(20);not null;default:unpaid"`
	Note              *string    `gorm:"column:note;type:text"`
	RejectionReason   *string    `gorm:"column:rejection_reason;type:text"`
	ProposedStartDate *time.Time `gorm:"column:proposed_start_date"`
	ProposedEndDate   *time.Time `gorm:"column:proposed_end_date"`
	CancelledBy       *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

// Model exposes the persistence model for migrations.
func Model() any { return &bookingModel{} }

func toDomain(m bookingModel) *Booking {
	b := &Booking{
		ID:                m.ID,
		EquipmentID:       m.EquipmentID,
		RenterID:          m.RenterID,
		OwnerID:           m.OwnerID,
		StartDate:         m.StartDate.UTC(),
		EndDate:           m.EndDate.UTC(),
		Status:            Status(m.Status),
		TotalAmount:       m.TotalAmount,
		Currency:          m.Currency,
		PaymentStatus:     PaymentStatus(m.PaymentStatus),
		ProposedStartDate: utcPtr(m.ProposedStartDate),
		ProposedEndDate:   utcPtr(m.ProposedEndDate),
		CancelledBy:       m.CancelledBy,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.Note != nil {
		b.Note = *m.Note
	}
	if m.RejectionReason != nil {
		b.RejectionReason = *m.RejectionReason
	}
	return b
}

func toModel(b *Booking) bookingModel {
	return bookingModel{
		ID:                b.ID,
		EquipmentID:       b.EquipmentID,
		RenterID:          b.RenterID,
		OwnerID:           b.OwnerID,
		StartDate:         b.StartDate,
		EndDate:           b.EndDate,
		Status:            string(b.Status),
		TotalAmount:       b.TotalAmount,
		Currency:          b.Currency,
		PaymentStatus:     string(b.PaymentStatus),
		Note:              strPtr(b.Note),
		RejectionReason:   strPtr(b.RejectionReason),
		ProposedStartDate: b.ProposedStartDate,
		ProposedEndDate:   b.ProposedEndDate,
		CancelledBy:       b.CancelledBy,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
