package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"megastore/internal/apperr"
	"megastore/internal/log"
	"megastore/internal/services"
	"megastore/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /availability?productId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, valid := validate.ID(c.Query("productId"))
	if !valid {
		if strings.TrimSpace(c.Query("productId")) != "" {
			log.Security(c, "validation.fail", map[string]any{"field": "productId"})
		}
		return writeError(c, "availability.fail", apperr.New(apperr.BadRequest, "missing or invalid productId"))
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID)
	if err != nil {
		return writeError(c, "availability.fail", err)
	}
	return c.JSON(avail)
}
