package handlers

import (
	"megastore/internal/apperr"
	"megastore/internal/domain"
	applog "megastore/internal/log"
	"megastore/internal/services"
	"megastore/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Order *services.OrderService
}

// POST /new-order places the caller's cart. Prices come from the cart, never
// from the request body.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var p validate.OrderPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "order.place.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "shippingInfo"})
		return writeError(c, "order.place.fail", err)
	}
	s := p.Shipping
	o, err := h.Order.Place(c.UserContext(), currentUser(c).ID,
		domain.Shipping{
			Address: s.Address, City: s.City, State: s.State,
			Country: s.Country, PostalCode: s.PostalCode, Phone: s.Phone,
		},
		domain.Payment{ID: p.PaymentInfo.ID, Status: p.PaymentInfo.Status},
	)
	if err != nil {
		if apperr.Is(err, apperr.Conflict) {
			applog.Security(c, "order.place.fail", map[string]any{"error": err.Error()})
		}
		return writeError(c, "order.place.fail", err)
	}
	applog.Audit(c, "order.place", map[string]any{"order_id": o.ID, "total": o.TotalPrice})
	return respond(c, fiber.StatusCreated, fiber.Map{"order": o})
}

// GET /order/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "order.get.fail", apperr.Wrap(apperr.NotFound, "Order not found", err))
	}
	o, err := h.Order.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return writeError(c, "order.get.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"order": o})
}

// GET /my-orders
func (h *OrderHandler) Mine(c *fiber.Ctx) error {
	orders, err := h.Order.Mine(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return writeError(c, "order.history.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"orders": orders})
}
