package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"megastore/internal/apperr"
	"megastore/internal/auth"
	"megastore/internal/domain"
	applog "megastore/internal/log"
	"megastore/internal/notify"
	"megastore/internal/repos"
)

type PasswordService struct {
	Users    *repos.UserRepo
	Hasher   auth.Hasher
	Tokens   *auth.Issuer
	Notifier notify.Notifier
	Renderer *notify.Renderer
	Now      func() time.Time
}

// RequestReset stores the digest of a fresh reset secret and mails the
// secret itself. If the mail cannot be sent the stored digest is removed.
func (s *PasswordService) RequestReset(ctx context.Context, email, baseURL string) error {
	u, err := s.Users.ByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return notFoundOr(err, "User not found")
	}
	rs, err := s.Tokens.IssueReset()
	if err != nil {
		return internal(err)
	}
	if err := s.Users.SetResetToken(ctx, u.ID, rs.Hash, rs.ExpiresAt.Unix()); err != nil {
		return internal(err)
	}

	link := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(baseURL, "/"), rs.Secret)
	body, err := s.Renderer.Render(notify.TemplateReset, notify.LinkData{Name: u.FullName, URL: link, ValidFor: "15 minutes"})
	if err == nil {
		err = s.Notifier.Send(ctx, notify.Message{To: u.Email, Subject: "Reset your password", HTML: body})
	}
	if err != nil {
		if cerr := s.Users.ClearResetToken(ctx, u.ID); cerr != nil {
			applog.Event("reset_rollback_failed", cerr, map[string]any{"user_id": u.ID})
		}
		applog.Event("reset_mail_failed", err, map[string]any{"user_id": u.ID})
		return apperr.Wrap(apperr.Invalid, "Could not send the reset email, please try again", err)
	}
	return nil
}

// ResetPassword sets a new password for the holder of an unexpired reset
// secret. It consumes the secret and ends existing sessions.
func (s *PasswordService) ResetPassword(ctx context.Context, secret, newPassword, confirm string) error {
	if newPassword == "" {
		return apperr.New(apperr.BadRequest, "New password is required")
	}
	if newPassword != confirm {
		return apperr.New(apperr.Invalid, "Passwords do not match")
	}
	u, err := s.Users.ByResetHash(ctx, auth.HashResetSecret(secret), clock(s.Now).Unix())
	if err != nil {
		return notFoundOr(err, "Reset link is invalid or has expired")
	}
	u.Password = newPassword
	if err := applyPassword(s.Hasher, u); err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, u.ID, u.PasswordHash, true); err != nil {
		return internal(err)
	}
	return nil
}

// ChangePassword replaces the password of a signed-in user after checking
// the current one.
func (s *PasswordService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirm string) error {
	if newPassword == "" {
		return apperr.New(apperr.BadRequest, "New password is required")
	}
	if newPassword != confirm {
		return apperr.New(apperr.BadRequest, "Passwords do not match")
	}
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, "User not found")
	}
	ok, err := s.Hasher.Verify(oldPassword, u.PasswordHash)
	if err != nil {
		return internal(err)
	}
	if !ok {
		return apperr.New(apperr.Unauthorized, "Old password is incorrect")
	}
	pending := &domain.User{Password: newPassword}
	if err := applyPassword(s.Hasher, pending); err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, u.ID, pending.PasswordHash, false); err != nil {
		return internal(err)
	}
	return nil
}
