package handlers

import (
	"github.com/directoryhq/userdir/internal/services"
	"github.com/gofiber/fiber/v2"
)

// MaintenanceHandler exposes operator-triggered actions. Renumbering
// is deliberately never run as part of normal request handling.
type MaintenanceHandler struct {
	users *services.UserService
}

func NewMaintenanceHandler(users *services.UserService) *MaintenanceHandler {
	return &MaintenanceHandler{users: users}
}

// Renumber compacts sequential IDs to 1..N and relocates media folders
// accordingly. Must not run concurrently with other mutations; callers
// are expected to serialize invocations externally.
func (h *MaintenanceHandler) Renumber(c *fiber.Ctx) error {
	mapping, err := h.users.RenumberAll()
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Renumbering complete",
		"renumbered": len(mapping),
		"mapping":    mapping,
	})
}
