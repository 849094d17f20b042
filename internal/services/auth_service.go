package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/store"
)

var (
	ErrDuplicateUser      = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	// ErrMisconfigured means the deployment is broken, not the request.
	ErrMisconfigured = errors.New("server is misconfigured")
	ErrValidation    = errors.New("validation failed")
)

type AuthService struct {
	store  store.Store
	hasher *PasswordHasher
	tokens *TokenService
}

func NewAuthService(st store.Store, hasher *PasswordHasher, tokens *TokenService) *AuthService {
	return &AuthService{store: st, hasher: hasher, tokens: tokens}
}

func (s *AuthService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.UserResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	var created *models.User
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		exists, err := tx.ExistsUserByEmail(ctx, req.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateUser
		}

		role, err := defaultRole(ctx, tx)
		if err != nil {
			return err
		}

		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return err
		}

		user := &models.User{
			Email:          &req.Email,
			Name:           &req.Name,
			HashedPassword: &hash,
			RoleID:         role.ID,
			Role:           *role,
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicateUser
			}
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user signed up", "user_id", created.ID.String())
	return dto.NewUserResponse(created), nil
}

func (s *AuthService) SignIn(ctx context.Context, req *dto.SignInRequest, sink CookieSink) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return ErrInvalidCredentials
	}

	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	if err := s.tokens.IssuePair(IdentityOf(user), sink); err != nil {
		return err
	}
	slog.Info("user signed in", "user_id", user.ID.String())
	return nil
}

// authenticate returns ErrInvalidCredentials for both an unknown email and a
// wrong password, and runs bcrypt in both cases.
func (s *AuthService) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	// Social-only users have no password and fail like unknown emails.
	if user == nil || user.HashedPassword == nil || *user.HashedPassword == "" {
		s.hasher.CompareDummy(password)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, *user.HashedPassword)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) SignOut(sink CookieSink) {
	s.tokens.ClearCookies(sink)
}

// RefreshAccess mints a new access token from verified refresh-token claims.
// The refresh token itself is left as is.
func (s *AuthService) RefreshAccess(claims *TokenClaims, sink CookieSink) error {
	if claims == nil || claims.Type != TokenRefresh {
		return ErrInvalidToken
	}
	id, err := IdentityFromClaims(claims)
	if err != nil {
		return err
	}
	return s.tokens.IssueAccessToken(id, sink)
}

// HandleSocialLogin resolves the local user behind an external identity and
// issues a session for it. A known (provider, account id) pair wins over an
// email match; an email match links a new account to the existing user;
// otherwise a user and account are created together.
func (s *AuthService) HandleSocialLogin(ctx context.Context, identity *oauth.Identity, sink CookieSink) error {
	if identity == nil {
		return fmt.Errorf("%w: provider identity is incomplete", ErrValidation)
	}
	normalized := *identity
	normalized.Email = strings.ToLower(strings.TrimSpace(identity.Email))
	normalized.ProviderAccountID = strings.TrimSpace(identity.ProviderAccountID)
	identity = &normalized
	// An empty email would match every other identity without one.
	if identity.Provider == "" || identity.ProviderAccountID == "" || identity.Email == "" {
		return fmt.Errorf("%w: provider identity is incomplete", ErrValidation)
	}

	var user *models.User
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		account, err := tx.FindAccountByProviderIdentity(ctx, identity.Provider, identity.ProviderAccountID)
		if err != nil {
			return err
		}
		if account != nil {
			user = &account.User
			return nil
		}

		user, err = tx.FindUserByEmail(ctx, identity.Email)
		if err != nil {
			return err
		}
		if user == nil {
			if user, err = s.createSocialUser(ctx, tx, identity); err != nil {
				return err
			}
		} else {
			slog.Info("linking provider to existing user",
				"user_id", user.ID.String(), "provider", identity.Provider)
		}

		if err := tx.SaveAccount(ctx, newSocialAccount(identity, user)); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicateUser
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.tokens.IssuePair(IdentityOf(user), sink)
}

func (s *AuthService) createSocialUser(ctx context.Context, tx store.Tx, identity *oauth.Identity) (*models.User, error) {
	role, err := defaultRole(ctx, tx)
	if err != nil {
		return nil, err
	}

	email, name := identity.Email, identity.Name
	user := &models.User{
		Email:  &email,
		Name:   &name,
		Image:  identity.Image,
		RoleID: role.ID,
		Role:   *role,
	}
	if err := tx.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	slog.Info("user created from provider", "user_id", user.ID.String(), "provider", identity.Provider)
	return user, nil
}

func newSocialAccount(identity *oauth.Identity, user *models.User) *models.Account {
	return &models.Account{
		Type:              models.AccountTypeSocial,
		Provider:          identity.Provider,
		ProviderAccountID: identity.ProviderAccountID,
		AccessToken:       identity.AccessToken,
		RefreshToken:      identity.RefreshToken,
		IDToken:           identity.IDToken,
		TokenType:         identity.TokenType,
		Scope:             identity.Scope,
		ExpiresAt:         identity.ExpiresAt,
		UserID:            user.ID,
	}
}

func defaultRole(ctx context.Context, tx store.Tx) (*models.Role, error) {
	role, err := tx.FindRoleByName(ctx, models.DefaultRole)
	if err != nil {
		return nil, err
	}
	if role == nil {
		slog.Error("default role missing", "role", models.DefaultRole)
		return nil, fmt.Errorf("%w: role %s does not exist", ErrMisconfigured, models.DefaultRole)
	}
	return role, nil
}
