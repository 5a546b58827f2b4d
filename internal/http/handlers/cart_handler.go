package handlers

import (
	"megastore/internal/apperr"
	"megastore/internal/services"
	"megastore/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

// POST /cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var p validate.CartItemPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "cart.add.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "cart.add.fail", err)
	}
	u := currentUser(c)
	if err := h.Cart.Add(c.UserContext(), u.ID, p.ProductID, p.Qty); err != nil {
		return writeError(c, "cart.add.fail", err)
	}
	return h.view(c, fiber.StatusOK)
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	return h.view(c, fiber.StatusOK)
}

// DELETE /cart/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "cart.remove.fail", err)
	}
	if err := h.Cart.Remove(c.UserContext(), currentUser(c).ID, id); err != nil {
		return writeError(c, "cart.remove.fail", err)
	}
	return h.view(c, fiber.StatusOK)
}

func (h *CartHandler) view(c *fiber.Ctx, status int) error {
	cv, err := h.Cart.View(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return writeError(c, "cart.view.fail", err)
	}
	return respond(c, status, fiber.Map{"cart": cv})
}
