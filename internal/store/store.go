// Package store persists users, roles and linked accounts.
//
// Lookups return (nil, nil) when no row matches. Writes that hit a unique
// constraint return ErrDuplicate so callers never see driver-specific errors.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/models"
)

var ErrDuplicate = errors.New("record violates a unique constraint")

// Tx is the set of credential operations available inside and outside a
// transaction.
type Tx interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ExistsUserByEmail(ctx context.Context, email string) (bool, error)
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	FindAccountByProviderIdentity(ctx context.Context, provider, providerAccountID string) (*models.Account, error)
	SaveAccount(ctx context.Context, account *models.Account) error
}

// Store is a Tx that can also open a unit of work. The function passed to
// WithinTx commits when it returns nil and rolls back otherwise.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type GormStore struct {
	db     *gorm.DB
	txOpts *sql.TxOptions
}

var _ Store = (*GormStore)(nil)

func New(db *gorm.DB) *GormStore {
	s := &GormStore{db: db}
	// SQLite has no READ COMMITTED level; it always runs serializable.
	if db.Dialector.Name() != "sqlite" {
		s.txOpts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return s
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	run := func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	}
	if s.txOpts != nil {
		return s.db.WithContext(ctx).Transaction(run, s.txOpts)
	}
	return s.db.WithContext(ctx).Transaction(run)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error
	return found(&user, err, "user by email")
}

func (s *GormStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").First(&user, "id = ?", id).Error
	return found(&user, err, "user by id")
}

func (s *GormStore) ExistsUserByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	return written(err, "user")
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
	return written(err, "user")
}

func (s *GormStore) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	return found(&role, err, "role")
}

func (s *GormStore) FindAccountByProviderIdentity(ctx context.Context, provider, providerAccountID string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Preload("User.Role").
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		First(&account).Error
	return found(&account, err, "account")
}

func (s *GormStore) SaveAccount(ctx context.Context, account *models.Account) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(account).Error
	return written(err, "account")
}

func found[T any](row *T, err error, what string) (*T, error) {
	if err == nil {
		return row, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to find %s: %w", what, err)
}

func written(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to save %s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("failed to save %s: %w", what, err)
}
