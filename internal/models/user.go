package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a platform identity. Email, when set, is unique across all users.
// HashedPassword is nil for users that only ever signed in through a provider.
type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name           *string    `gorm:"size:255" json:"name"`
	Email          *string    `gorm:"size:255;uniqueIndex" json:"email"`
	EmailVerified  *time.Time `json:"email_verified,omitempty"`
	HashedPassword *string    `gorm:"type:text" json:"-"`
	Image          *string    `gorm:"type:text" json:"image"`
	RoleID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"role_id"`
	Role           Role       `gorm:"foreignKey:RoleID" json:"role"`
	Accounts       []Account  `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
