package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const AccountTypeSocial = "social"

// Account links a User to one external provider identity.
// (Provider, ProviderAccountID) is unique as a pair; one user may hold
// accounts from several providers.
type Account struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Type              string     `gorm:"size:20;not null" json:"type"`
	Provider          string     `gorm:"size:50;not null;uniqueIndex:idx_accounts_provider_identity" json:"provider"`
	ProviderAccountID string     `gorm:"size:255;not null;uniqueIndex:idx_accounts_provider_identity" json:"provider_account_id"`
	AccessToken       *string    `gorm:"type:text" json:"-"`
	RefreshToken      *string    `gorm:"type:text" json:"-"`
	IDToken           *string    `gorm:"type:text" json:"-"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	TokenType         *string    `gorm:"size:50" json:"token_type,omitempty"`
	Scope             *string    `gorm:"size:512" json:"scope,omitempty"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User              User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (a *Account) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
