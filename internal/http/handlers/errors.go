package handlers

import (
	"errors"

	"megastore/internal/apperr"
	applog "megastore/internal/log"

	"github.com/gofiber/fiber/v2"
)

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.BadRequest, apperr.Invalid:
		return fiber.StatusBadRequest
	case apperr.Unauthorized:
		return fiber.StatusUnauthorized
	case apperr.Forbidden:
		return fiber.StatusForbidden
	case apperr.NotFound:
		return fiber.StatusNotFound
	case apperr.Conflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError is the only place an error kind becomes an HTTP status.
func writeError(c *fiber.Ctx, action string, err error) error {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	c.Status(status)
	if status == fiber.StatusInternalServerError {
		applog.Error(c, action, err, nil)
	}
	return c.JSON(fiber.Map{"success": false, "message": apperr.Message(err)})
}

// ErrorHandler is the fiber.Config hook for errors that escape a handler:
// fiber's own errors keep their status, everything else goes through
// writeError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			applog.Error(c, "server.error", err, nil)
		}
		return c.Status(fe.Code).JSON(fiber.Map{"success": false, "message": fe.Message})
	}
	return writeError(c, "server.error", err)
}

func respond(c *fiber.Ctx, status int, body fiber.Map) error {
	if body == nil {
		body = fiber.Map{}
	}
	body["success"] = true
	return c.Status(status).JSON(body)
}
