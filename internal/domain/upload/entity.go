package upload

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Kind string

const (
	KindEquipmentImage   Kind = "equipment_image"
	KindIdentityDocument Kind = "identity_document"
)

// Public reports whether files of this kind are served under the static prefix.
func (k Kind) Public() bool { return k == KindEquipmentImage }

// Upload is a file stored on local disk.
type Upload struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Kind         Kind       `gorm:"column:kind;type:varchar(32);not null" json:"kind"`
	EquipmentID  *uuid.UUID `gorm:"column:equipment_id;type:uuid;index" json:"equipment_id,omitempty"`
	OriginalName string     `gorm:"column:original_name" json:"original_name"`
	FilePath     string     `gorm:"column:file_path;not null" json:"-"`
	FileURL      *string    `gorm:"column:file_url" json:"url,omitempty"`
	MimeType     string     `gorm:"column:mime_type;type:varchar(64)" json:"mime_type"`
	Size         int64      `gorm:"column:size" json:"size"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Upload) TableName() string { return "uploads" }

func (u *Upload) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
