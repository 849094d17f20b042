package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/course-platform/internal/database"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/dto"
	"github.com/ahmetcoskunkizilkaya/course-platform/internal/oauth"
)

type HealthHandler struct {
	db        *gorm.DB
	providers *oauth.Registry
}

func NewHealthHandler(db *gorm.DB, providers *oauth.Registry) *HealthHandler {
	return &HealthHandler{db: db, providers: providers}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Providers: h.providers.Names(),
	})
}
