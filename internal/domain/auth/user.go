package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is any marketplace member. The same account can list equipment and
// rent from others.
type User struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	Name               string     `gorm:"type:varchar(120);not null" json:"name"`
	Phone              string     `gorm:"type:varchar(32)" json:"phone,omitempty"`
	City               string     `gorm:"type:varchar(120)" json:"city,omitempty"`
	Role               string     `gorm:"type:varchar(16);not null;default:user" json:"role"`
	IdentityDocumentID *uuid.UUID `gorm:"type:uuid" json:"-"`
	IdentityVerified   bool       `gorm:"not null;default:false" json:"identity_verified"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PublicProfile is what other members see.
type PublicProfile struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	City             string    `json:"city,omitempty"`
	IdentityVerified bool      `json:"identity_verified"`
	MemberSince      time.Time `json:"member_since"`
	RatingAverage    float64   `json:"rating_average"`
	RatingCount      int64     `json:"rating_count"`
}
