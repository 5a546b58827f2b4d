package handlers

import (
	"megastore/internal/apperr"
	"megastore/internal/log"
	"megastore/internal/services"
	"megastore/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	Accounts *services.AccountService
}

// GET /current-user
func (h *AccountHandler) Current(c *fiber.Ctx) error {
	u, err := h.Accounts.Get(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return writeError(c, "account.get.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"user": u})
}

// PATCH /update-account
func (h *AccountHandler) UpdateDetails(c *fiber.Ctx) error {
	var p validate.UpdateAccountPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "account.update.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "account.update.fail", err)
	}
	u, err := h.Accounts.UpdateDetails(c.UserContext(), currentUser(c).ID, p.FullName, p.Email)
	if err != nil {
		return writeError(c, "account.update.fail", err)
	}
	log.Audit(c, "account.update", map[string]any{"email": u.Email})
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Account details updated", "user": u})
}

// PATCH /update-avatar
func (h *AccountHandler) UpdateAvatar(c *fiber.Ctx) error {
	up, done, err := formUpload(c, "avatar")
	if err != nil {
		return writeError(c, "account.avatar.fail", err)
	}
	defer done()
	u, err := h.Accounts.UpdateAvatar(c.UserContext(), currentUser(c).ID, up)
	if err != nil {
		return writeError(c, "account.avatar.fail", err)
	}
	log.Audit(c, "account.avatar", nil)
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Avatar updated", "user": u})
}
