package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/config"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/models"
)

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	// RefreshAccessPath is the only path the refresh cookie is sent to.
	RefreshAccessPath = "/api/auth/refresh-access"

	accessCookieMaxAge  = 15 * time.Minute
	refreshCookieMaxAge = 24 * time.Hour
)

// TokenClaims is the payload of both session tokens.
type TokenClaims struct {
	ID    string    `json:"id"`
	Role  string    `json:"role"`
	Type  TokenKind `json:"type"`
	Image *string   `json:"image"`
	jwt.RegisteredClaims
}

// Identity is what a session token asserts about its holder.
type Identity struct {
	ID    uuid.UUID
	Role  string
	Image *string
}

func IdentityOf(u *models.User) Identity {
	return Identity{ID: u.ID, Role: u.Role.Name, Image: u.Image}
}

// IdentityFromClaims rebuilds an Identity from verified claims.
func IdentityFromClaims(c *TokenClaims) (Identity, error) {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return Identity{ID: id, Role: c.Role, Image: c.Image}, nil
}

// CookieSink receives response cookies. *fiber.Ctx satisfies it.
type CookieSink interface {
	Cookie(cookie *fiber.Cookie)
}

type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	secure        bool
	sameSite      string
	now           func() time.Time
}

func NewTokenService(cfg *config.Config) (*TokenService, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, errors.New("access and refresh token secrets are required")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}

	s := &TokenService{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenExpiry,
		refreshTTL:    cfg.RefreshTokenExpiry,
		sameSite:      fiber.CookieSameSiteLaxMode,
		now:           time.Now,
	}
	if cfg.IsProduction() {
		s.secure = true
		s.sameSite = fiber.CookieSameSiteNoneMode
	}
	return s, nil
}

func (s *TokenService) SignAccessToken(id Identity) (string, error) {
	return s.sign(id, TokenAccess, s.accessSecret, s.accessTTL)
}

func (s *TokenService) SignRefreshToken(id Identity) (string, error) {
	return s.sign(id, TokenRefresh, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) sign(id Identity, kind TokenKind, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &TokenClaims{
		ID:    id.ID.String(),
		Role:  id.Role,
		Type:  kind,
		Image: id.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return token, nil
}

func (s *TokenService) ParseAccessToken(raw string) (*TokenClaims, error) {
	return s.parse(raw, TokenAccess, s.accessSecret)
}

func (s *TokenService) ParseRefreshToken(raw string) (*TokenClaims, error) {
	return s.parse(raw, TokenRefresh, s.refreshSecret)
}

func (s *TokenService) parse(raw string, kind TokenKind, secret []byte) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AccessSecret and RefreshSecret feed the cookie guards.
func (s *TokenService) AccessSecret() []byte  { return s.accessSecret }
func (s *TokenService) RefreshSecret() []byte { return s.refreshSecret }

// IssuePair signs both tokens concurrently and sets the cookies only once
// both signatures succeeded.
func (s *TokenService) IssuePair(id Identity, sink CookieSink) error {
	var access, refresh string
	var g errgroup.Group
	g.Go(func() error {
		var err error
		access, err = s.SignAccessToken(id)
		return err
	})
	g.Go(func() error {
		var err error
		refresh, err = s.SignRefreshToken(id)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	sink.Cookie(s.accessCookie(access))
	sink.Cookie(s.refreshCookie(refresh))
	return nil
}

func (s *TokenService) IssueAccessToken(id Identity, sink CookieSink) error {
	access, err := s.SignAccessToken(id)
	if err != nil {
		return err
	}
	sink.Cookie(s.accessCookie(access))
	return nil
}

// ClearCookies expires both cookies. Path and flags must match the issued
// cookies or the browser keeps the old ones.
func (s *TokenService) ClearCookies(sink CookieSink) {
	for _, c := range []*fiber.Cookie{s.accessCookie(""), s.refreshCookie("")} {
		c.MaxAge = 0
		c.Expires = fasthttp.CookieExpireDelete
		sink.Cookie(c)
	}
}

func (s *TokenService) accessCookie(value string) *fiber.Cookie {
	return s.cookie(AccessTokenCookie, value, "/", accessCookieMaxAge)
}

func (s *TokenService) refreshCookie(value string) *fiber.Cookie {
	return s.cookie(RefreshTokenCookie, value, RefreshAccessPath, refreshCookieMaxAge)
}

func (s *TokenService) cookie(name, value, path string, maxAge time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: s.sameSite,
	}
}
