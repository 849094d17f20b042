package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/services"
)

const userKey = "user"

// AccessTokenRequired reads the access token from its cookie.
func AccessTokenRequired(tokens *services.TokenService) fiber.Handler {
	return cookieJWT(services.AccessTokenCookie, services.TokenAccess, tokens.AccessSecret())
}

// RefreshTokenRequired reads the refresh token from its cookie. The cookie is
// only sent to the refresh path.
func RefreshTokenRequired(tokens *services.TokenService) fiber.Handler {
	return cookieJWT(services.RefreshTokenCookie, services.TokenRefresh, tokens.RefreshSecret())
}

func cookieJWT(cookie string, kind services.TokenKind, secret []byte) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: secret},
		TokenLookup: "cookie:" + cookie,
		ContextKey:  userKey,
		Claims:      &services.TokenClaims{},
		SuccessHandler: func(c *fiber.Ctx) error {
			claims, ok := CurrentClaims(c)
			if !ok || claims.Type != kind {
				return unauthorized(c)
			}
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Unauthorized: invalid or expired token",
	})
}

// CurrentClaims returns the verified token claims stored by a token guard.
func CurrentClaims(c *fiber.Ctx) (*services.TokenClaims, bool) {
	token, ok := c.Locals(userKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(*services.TokenClaims)
	return claims, ok
}

// CurrentUserID extracts the user UUID from the verified claims.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, ok := CurrentClaims(c)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}
	return uuid.Parse(claims.ID)
}
