package favorite

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyFavorite = errors.New("equipment already in favorites")
	ErrNotFound        = errors.New("favorite not found")
)

// Favorite marks a listing a user saved for later.
type Favorite struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_equipment"`
	EquipmentID uuid.UUID `json:"equipment_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_favorites_user_equipment"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// Entry is a favorite joined with the listing it points at.
type Entry struct {
	EquipmentID uuid.UUID `json:"equipment_id"`
	Title       string    `json:"title"`
	City        string    `json:"city"`
	DailyRate   int64     `json:"daily_rate"`
	Currency    string    `json:"currency"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
