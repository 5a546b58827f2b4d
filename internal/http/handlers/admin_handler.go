package handlers

import (
	"megastore/internal/apperr"
	applog "megastore/internal/log"
	"megastore/internal/services"
	"megastore/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Accounts  *services.AccountService
	Orders    *services.OrderService
	Inventory *services.InventoryService
}

func pathID(c *fiber.Ctx) (string, error) {
	id, valid := validate.ID(c.Params("id"))
	if !valid {
		return "", apperr.New(apperr.BadRequest, "Invalid id")
	}
	return id, nil
}

// GET /admin/all-users
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.Accounts.List(c.UserContext())
	if err != nil {
		return writeError(c, "admin.users.list.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"users": users})
}

// GET /admin/user/:id
func (h *AdminHandler) User(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.users.get.fail", err)
	}
	u, err := h.Accounts.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, "admin.users.get.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"user": u})
}

// PATCH /admin/user/:id
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.users.role.fail", err)
	}
	var p validate.RolePayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "admin.users.role.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "admin.users.role.fail", err)
	}
	u, err := h.Accounts.UpdateRole(c.UserContext(), id, p.Role)
	if err != nil {
		return writeError(c, "admin.users.role.fail", err)
	}
	applog.Audit(c, "admin.users.role", map[string]any{"target": id, "role": p.Role})
	return respond(c, fiber.StatusOK, fiber.Map{"message": "User role updated", "user": u})
}

// DELETE /admin/user/:id removes the account; its orders stay, canceled.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.users.delete.fail", err)
	}
	if id == currentUser(c).ID {
		return writeError(c, "admin.users.delete.fail", apperr.New(apperr.BadRequest, "You cannot delete your own account here"))
	}
	if err := h.Accounts.Delete(c.UserContext(), id); err != nil {
		return writeError(c, "admin.users.delete.fail", err)
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"target": id})
	return respond(c, fiber.StatusOK, fiber.Map{"message": "User deleted"})
}

// GET /admin/all-orders
func (h *AdminHandler) AllOrders(c *fiber.Ctx) error {
	list, err := h.Orders.All(c.UserContext())
	if err != nil {
		return writeError(c, "admin.orders.list.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"orders": list.Orders, "totalAmount": list.TotalAmount})
}

// PATCH /admin/order/:id
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.orders.update.fail", err)
	}
	var p validate.OrderStatusPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "admin.orders.update.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "admin.orders.update.fail", err)
	}
	o, err := h.Orders.UpdateStatus(c.UserContext(), id, p.Status)
	if err != nil {
		return writeError(c, "admin.orders.update.fail", err)
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": p.Status})
	return respond(c, fiber.StatusOK, fiber.Map{"order": o})
}

// DELETE /admin/order/:id
func (h *AdminHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.orders.delete.fail", err)
	}
	if err := h.Orders.Delete(c.UserContext(), id); err != nil {
		return writeError(c, "admin.orders.delete.fail", err)
	}
	applog.Audit(c, "admin.orders.delete", map[string]any{"order_id": id})
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Order deleted"})
}

// GET /admin/inventory
func (h *AdminHandler) InventoryList(c *fiber.Ctx) error {
	rows, err := h.Inventory.List(c.UserContext())
	if err != nil {
		return writeError(c, "admin.inventory.list.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"inventory": rows})
}

// PUT /admin/inventory/:id
func (h *AdminHandler) SetStock(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.inventory.save.fail", err)
	}
	var p validate.StockPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "admin.inventory.save.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "admin.inventory.save.fail", err)
	}
	if err := h.Inventory.SetQty(c.UserContext(), id, p.Qty); err != nil {
		return writeError(c, "admin.inventory.save.fail", err)
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product": id, "qty": p.Qty})
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Stock updated", "qty": p.Qty})
}
