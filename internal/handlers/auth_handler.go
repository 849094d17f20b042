package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/config"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/oauth"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/services"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStatePath   = "/api/auth"
	oauthStateMaxAge = 10 * time.Minute
)

type AuthHandler struct {
	authService *services.AuthService
	providers   *oauth.Registry
	frontendURL string
	secure      bool
}

func NewAuthHandler(authService *services.AuthService, providers *oauth.Registry, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		providers:   providers,
		frontendURL: cfg.FrontendURL,
		secure:      cfg.IsProduction(),
	}
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.SignUp(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authService.SignIn(c.UserContext(), &req, c); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Signed in successfully"})
}

func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	h.authService.SignOut(c)
	return c.JSON(dto.MessageResponse{Message: "Signed out successfully"})
}

func (h *AuthHandler) RefreshAccess(c *fiber.Ctx) error {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return respondError(c, services.ErrInvalidToken)
	}
	if err := h.authService.RefreshAccess(claims, c); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Access token refreshed"})
}

// ProviderLogin starts the authorization-code flow for :provider.
func (h *AuthHandler) ProviderLogin(c *fiber.Ctx) error {
	provider, ok := h.providers.Get(c.Params("provider"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown login provider",
		})
	}

	state, err := newState()
	if err != nil {
		return err
	}
	c.Cookie(h.stateCookie(state, oauthStateMaxAge))
	return c.Redirect(provider.AuthCodeURL(state), fiber.StatusFound)
}

// ProviderCallback finishes the flow, signs the user in and sends them back
// to the frontend.
func (h *AuthHandler) ProviderCallback(c *fiber.Ctx) error {
	provider, ok := h.providers.Get(c.Params("provider"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown login provider",
		})
	}

	expected := c.Cookies(oauthStateCookie)
	c.Cookie(h.stateCookie("", 0))

	if reason := c.Query("error"); reason != "" {
		slog.Info("social login declined", "provider", provider.Name(), "reason", reason)
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Social login was cancelled",
		})
	}

	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid OAuth state",
		})
	}

	code := c.Query("code")
	if code == "" {
		return badRequest(c, "Authorization code is required")
	}

	identity, err := provider.Exchange(c.UserContext(), code)
	if err != nil {
		slog.Warn("oauth exchange failed", "provider", provider.Name(), "error", err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to authenticate with provider",
		})
	}

	if err := h.authService.HandleSocialLogin(c.UserContext(), identity, c); err != nil {
		return respondError(c, err)
	}
	return c.Redirect(h.frontendURL, fiber.StatusFound)
}

func (h *AuthHandler) stateCookie(value string, maxAge time.Duration) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    value,
		Path:     oauthStatePath,
		MaxAge:   int(maxAge.Seconds()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if maxAge == 0 {
		cookie.Expires = fasthttp.CookieExpireDelete
	}
	return cookie
}

func newState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
