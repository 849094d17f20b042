package routes

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/config"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/models"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/services"
)

const apiPrefix = "/api"

// route is one entry of the API table. Paths are relative to /api.
type route struct {
	method  string
	path    string
	access  middleware.Access
	roles   []string
	handler fiber.Handler
}

func table(auth *handlers.AuthHandler, user *handlers.UserHandler, health *handlers.HealthHandler) []route {
	return []route{
		{method: fiber.MethodGet, path: "/health", access: middleware.Public, handler: health.Check},

		{method: fiber.MethodPost, path: "/auth/sign-up", access: middleware.Public, handler: auth.SignUp},
		{method: fiber.MethodPost, path: "/auth/sign-in", access: middleware.Public, handler: auth.SignIn},
		{method: fiber.MethodPost, path: "/auth/sign-out", access: middleware.Public, handler: auth.SignOut},
		// The refresh cookie is scoped to this exact path.
		{method: fiber.MethodPost, path: strings.TrimPrefix(services.RefreshAccessPath, apiPrefix), access: middleware.RefreshToken, handler: auth.RefreshAccess},
		{method: fiber.MethodGet, path: "/auth/:provider", access: middleware.Public, handler: auth.ProviderLogin},
		{method: fiber.MethodGet, path: "/auth/:provider/callback", access: middleware.Public, handler: auth.ProviderCallback},

		{method: fiber.MethodGet, path: "/user/profile", access: middleware.AccessToken, handler: user.Profile},
		{method: fiber.MethodPatch, path: "/user/profile", access: middleware.AccessToken, handler: user.UpdateProfile},

		{method: fiber.MethodGet, path: "/admin/users/:id", access: middleware.AccessToken, roles: []string{models.RoleAdmin}, handler: user.GetUser},
	}
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	tokens *services.TokenService,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group(apiPrefix)

	// General API rate limit per IP
	api.Use(ipLimiter(cfg.APIRateLimit))

	// Stricter limit on the auth endpoints
	api.Group("/auth").Use(ipLimiter(cfg.AuthRateLimit))

	for _, r := range table(authHandler, userHandler, healthHandler) {
		api.Add(r.method, r.path, handlerChain(tokens, r)...)
	}
}

// handlerChain returns a fresh slice holding the route's guards followed by
// its handler.
func handlerChain(tokens *services.TokenService, r route) []fiber.Handler {
	guards := middleware.Guards(tokens, r.access, r.roles...)
	chain := make([]fiber.Handler, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, r.handler)
}

func ipLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}
