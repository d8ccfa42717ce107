package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

type HealthHandler struct {
	Store *repository.Store
	Hub   *realtime.Hub
}

func NewHealthHandler(store *repository.Store, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{Store: store, Hub: hub}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.Store.Ping(c.UserContext()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}
	feedClients := 0
	if h.Hub != nil {
		feedClients = h.Hub.ClientCount()
	}
	return c.JSON(fiber.Map{
		"status":       "ok",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"db":           dbStatus,
		"feed_clients": feedClients,
	})
}
