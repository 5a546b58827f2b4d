package handlers

import (
	"mime/multipart"
	"time"

	"megastore/internal/apperr"
	"megastore/internal/config"
	"megastore/internal/log"
	"megastore/internal/services"
	"megastore/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// CookieConfig controls the session cookies. Both cookies are always set and
// cleared together.
type CookieConfig struct {
	Secure     bool
	SameSite   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthHandler struct {
	Registration *services.RegistrationService
	Sessions     *services.SessionService
	Passwords    *services.PasswordService
	Cookies      CookieConfig
	Mode         string
	// LinkBase prefixes the links mailed for activation and reset,
	// e.g. https://shop.example.com/api/v1/users.
	LinkBase string
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: h.Cookies.SameSite,
		Expires:  expires,
	})
}

func (h *AuthHandler) setSession(c *fiber.Ctx, pair *services.TokenPair) {
	now := time.Now()
	h.setCookie(c, accessCookie, pair.AccessToken, now.Add(h.Cookies.AccessTTL))
	h.setCookie(c, refreshCookie, pair.RefreshToken, now.Add(h.Cookies.RefreshTTL))
}

func (h *AuthHandler) clearSession(c *fiber.Ctx) {
	past := time.Now().Add(-1 * time.Hour)
	h.setCookie(c, accessCookie, "", past)
	h.setCookie(c, refreshCookie, "", past)
}

// formUpload returns nil when the request carries no file under field.
func formUpload(c *fiber.Ctx, field string) (*services.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, apperr.Wrap(apperr.BadRequest, "Could not read uploaded file", err)
	}
	return uploadOf(fh, f), func() { _ = f.Close() }, nil
}

func uploadOf(fh *multipart.FileHeader, f multipart.File) *services.Upload {
	return &services.Upload{Filename: fh.Filename, ContentType: fh.Header.Get(fiber.HeaderContentType), Body: f}
}

// POST /register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var p validate.RegisterPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "auth.register.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "auth.register.fail", err)
	}
	avatar, done, err := formUpload(c, "avatar")
	if err != nil {
		return writeError(c, "auth.register.fail", err)
	}
	defer done()

	in := services.RegistrationInput{FullName: p.FullName, Email: p.Email, Password: p.Password, Avatar: avatar}
	if h.Mode == config.RegistrationDirect {
		u, err := h.Registration.Register(c.UserContext(), in)
		if err != nil {
			return writeError(c, "auth.register.fail", err)
		}
		log.Audit(c, "auth.register", map[string]any{"email": u.Email, "mode": h.Mode})
		return respond(c, fiber.StatusCreated, fiber.Map{"message": "Account created", "user": u})
	}

	if err := h.Registration.RequestActivation(c.UserContext(), in, h.LinkBase); err != nil {
		return writeError(c, "auth.register.fail", err)
	}
	log.Audit(c, "auth.activation.sent", map[string]any{"email": validate.NormalizeEmail(p.Email)})
	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "Please check your email " + validate.NormalizeEmail(p.Email) + " to activate your account",
	})
}

// POST /activation/:token
func (h *AuthHandler) Activate(c *fiber.Ctx) error {
	u, err := h.Registration.Activate(c.UserContext(), c.Params("token"))
	if err != nil {
		if apperr.Is(err, apperr.Unauthorized) {
			log.Security(c, "auth.activation.reject", nil)
		}
		return writeError(c, "auth.activation.fail", err)
	}
	log.Audit(c, "auth.activation", map[string]any{"email": u.Email})
	return respond(c, fiber.StatusCreated, fiber.Map{"message": "Account activated", "user": u})
}

// POST /login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var p validate.LoginPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "auth.login.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "auth.login.fail", err)
	}
	email := validate.NormalizeEmail(p.Email)

	sess, err := h.Sessions.Login(c.UserContext(), email, p.Password)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.NotFound, apperr.Unauthorized:
			log.Security(c, "auth.login.fail", map[string]any{"email": email})
			return writeError(c, "auth.login.fail", apperr.New(apperr.Unauthorized, services.MsgBadCredentials))
		}
		return writeError(c, "auth.login.fail", err)
	}

	h.setSession(c, &sess.TokenPair)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return respond(c, fiber.StatusOK, fiber.Map{
		"user":         sess.User,
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
	})
}

// POST /logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	u := currentUser(c)
	if err := h.Sessions.Logout(c.UserContext(), u.ID); err != nil {
		return writeError(c, "auth.logout.fail", err)
	}
	h.clearSession(c)
	log.Audit(c, "auth.logout", nil)
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Logged out"})
}

// POST /refresh-token
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	presented := c.Cookies(refreshCookie)
	if presented == "" {
		var p validate.RefreshPayload
		_ = c.BodyParser(&p)
		presented = p.RefreshToken
	}
	pair, err := h.Sessions.Refresh(c.UserContext(), presented)
	if err != nil {
		if apperr.Is(err, apperr.Unauthorized) {
			log.Security(c, "auth.refresh.reject", map[string]any{"reason": err.Error()})
			h.clearSession(c)
		}
		return writeError(c, "auth.refresh.fail", err)
	}
	h.setSession(c, pair)
	return respond(c, fiber.StatusOK, fiber.Map{
		"message":      "Access token refreshed",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// POST /forgot-password answers the same way whether or not the address is
// registered.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var p validate.ForgotPasswordPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "auth.forgot.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "auth.forgot.fail", err)
	}
	email := validate.NormalizeEmail(p.Email)
	err := h.Passwords.RequestReset(c.UserContext(), email, h.LinkBase)
	switch {
	case err == nil:
		log.Audit(c, "auth.reset.sent", map[string]any{"email": email})
	case apperr.Is(err, apperr.NotFound):
		log.Security(c, "auth.reset.unknown", map[string]any{"email": email})
	default:
		return writeError(c, "auth.forgot.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"message": "If an account exists for " + email + ", a reset link has been sent",
	})
}

// PUT /reset-password/:token
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var p validate.ResetPasswordPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "auth.reset.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "auth.reset.fail", err)
	}
	if err := h.Passwords.ResetPassword(c.UserContext(), c.Params("token"), p.NewPassword, p.ConfirmNewPassword); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			log.Security(c, "auth.reset.reject", nil)
		}
		return writeError(c, "auth.reset.fail", err)
	}
	log.Audit(c, "auth.reset", nil)
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Password has been reset"})
}

// POST /change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var p validate.ChangePasswordPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "auth.password.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "auth.password.fail", err)
	}
	u := currentUser(c)
	if err := h.Passwords.ChangePassword(c.UserContext(), u.ID, p.OldPassword, p.NewPassword, p.ConfirmNewPassword); err != nil {
		if apperr.Is(err, apperr.Unauthorized) {
			log.Security(c, "auth.password.wrong_old", nil)
		}
		return writeError(c, "auth.password.fail", err)
	}
	log.Audit(c, "auth.password.changed", nil)
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Password changed"})
}
