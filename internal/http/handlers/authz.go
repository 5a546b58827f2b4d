package handlers

import (
	"slices"
	"strings"

	"megastore/internal/apperr"
	"megastore/internal/domain"
	applog "megastore/internal/log"
	"megastore/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

func bearer(c *fiber.Ctx) string {
	if tok := c.Cookies(accessCookie); tok != "" {
		return tok
	}
	h := c.Get(fiber.HeaderAuthorization)
	if tok, found := strings.CutPrefix(h, "Bearer "); found {
		return strings.TrimSpace(tok)
	}
	return ""
}

// Authenticate resolves the access token to a user and stores it in
// c.Locals("user"). Requests without a valid token stop here with 401.
func Authenticate(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := sessions.Authenticate(c.UserContext(), bearer(c))
		if err != nil {
			if apperr.KindOf(err) == apperr.Unauthorized {
				applog.Security(c, "auth.token.reject", map[string]any{"reason": err.Error()})
			}
			return writeError(c, "auth.token.fail", err)
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// Authorize must run after Authenticate.
func Authorize(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil || !slices.Contains(roles, u.Role) {
			applog.Security(c, "access.denied", map[string]any{"need": roles})
			return writeError(c, "access.denied",
				apperr.New(apperr.Forbidden, "You are not allowed to access this resource"))
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
