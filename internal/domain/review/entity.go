package review

import (
	"time"

	"github.com/google/uuid"
)

// Review is one party's rating of the other after a completed booking.
type Review struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"booking_id"`
	EquipmentID uuid.UUID `json:"equipment_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	AuthorName  string    `json:"author_name,omitempty"`
	SubjectID   uuid.UUID `json:"subject_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	IsHidden    bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Summary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

type reviewModel struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BookingID   uuid.UUID `gorm:"column:booking_id;type:uuid;not null;uniqueIndex:idx_reviews_booking_author,priority:1"`
	EquipmentID uuid.UUID `gorm:"column:equipment_id;type:uuid;not null;index"`
	AuthorID    uuid.UUID `gorm:"column:author_id;type:uuid;not null;uniqueIndex:idx_reviews_booking_author,priority:2"`
	SubjectID   uuid.UUID `gorm:"column:subject_id;type:uuid;not null;index"`
	Rating      int       `gorm:"column:rating;not null;check:rating BETWEEN 1 AND 5"`
	Comment     *string   `gorm:"column:comment;type:text"`
	IsHidden    bool      `gorm:"column:is_hidden;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (reviewModel) TableName() string { return "reviews" }

// Model exposes the persistence model for migrations.
func Model() any { return &reviewModel{} }

func toDomainReview(m reviewModel) Review {
	comment := ""
	if m.Comment != nil {
		comment = *m.Comment
	}
	return Review{
		ID:          m.ID,
		BookingID:   m.BookingID,
		EquipmentID: m.EquipmentID,
		AuthorID:    m.AuthorID,
		SubjectID:   m.SubjectID,
		Rating:      m.Rating,
		Comment:     comment,
		IsHidden:    m.IsHidden,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toReviewModel(r *Review) reviewModel {
	var comment *string
	if r.Comment != "" {
		v := r.Comment
		comment = &v
	}
	return reviewModel{
		ID:          r.ID,
		BookingID:   r.BookingID,
		EquipmentID: r.EquipmentID,
		AuthorID:    r.AuthorID,
		SubjectID:   r.SubjectID,
		Rating:      r.Rating,
		Comment:     comment,
		IsHidden:    r.IsHidden,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
