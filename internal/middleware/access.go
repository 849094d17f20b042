package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/services"
)

// Access says which session token a route requires.
type Access int

const (
	Public Access = iota
	AccessToken
	RefreshToken
)

func (a Access) String() string {
	switch a {
	case AccessToken:
		return "access-token"
	case RefreshToken:
		return "refresh-token"
	default:
		return "public"
	}
}

// Guards returns the handlers that enforce access and, when given, roles.
func Guards(tokens *services.TokenService, access Access, roles ...string) []fiber.Handler {
	var hs []fiber.Handler
	switch access {
	case AccessToken:
		hs = append(hs, AccessTokenRequired(tokens))
	case RefreshToken:
		hs = append(hs, RefreshTokenRequired(tokens))
	}
	if len(roles) > 0 {
		hs = append(hs, RoleRequired(roles...))
	}
	return hs
}
