package equipment

import (
	"time"

	"equiprent/internal/pkg/utils"

	"github.com/google/uuid"
)

// Equipment is a rentable item listed by its owner. Money is in minor units.
type Equipment struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	City        string    `json:"city"`
	DailyRate   int64     `json:"daily_rate"`
	Currency    string    `json:"currency"`
	Deposit     int64     `json:"deposit"`
	IsActive    bool      `json:"is_active"`
	ImageURLs   []string  `json:"image_urls"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type equipmentModel struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index"`
	Title       string    `gorm:"column:title;type:varchar(200);not null"`
	Description string    `gorm:"column:description;type:text"`
	Category    string    `gorm:"column:category;type:varchar(64);index"`
	City        string    `gorm:"column:city;type:varchar(120);index"`
	DailyRate   int64     `gorm:"column:daily_rate;not null"`
	Currency    string    `gorm:"column:currency;type:varchar(3);not null"`
	Deposit     int64     `gorm:"column:deposit;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	ImageURLs   string    `gorm:"column:image_urls;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (equipmentModel) TableName() string { return "equipment" }

// Model exposes the persistence model for migrations.
func Model() any { return &equipmentModel{} }

func toDomain(m equipmentModel) *Equipment {
	return &Equipment{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		City:        m.City,
		DailyRate:   m.DailyRate,
		Currency:    m.Currency,
		Deposit:     m.Deposit,
		IsActive:    m.IsActive,
		ImageURLs:   utils.StringToURLs(m.ImageURLs),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toModel(e *Equipment) equipmentModel {
	return equipmentModel{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		City:        e.City,
		DailyRate:   e.DailyRate,
		Currency:    e.Currency,
		Deposit:     e.Deposit,
		IsActive:    e.IsActive,
		ImageURLs:   utils.URLsToString(e.ImageURLs),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
