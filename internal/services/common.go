package services

import (
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"megastore/internal/apperr"
	"megastore/internal/auth"
	"megastore/internal/domain"
	"megastore/internal/repos"
)

// Upload is a file received from a client, not yet stored anywhere.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func internal(err error) error {
	return apperr.Wrap(apperr.Internal, "internal error", err)
}

// notFoundOr maps repos.ErrNotFound to a NotFound with msg and anything else
// to Internal.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, repos.ErrNotFound) {
		return apperr.Wrap(apperr.NotFound, msg, err)
	}
	return internal(err)
}

// applyPassword hashes a pending plaintext into PasswordHash and clears it.
// Without a pending plaintext it does nothing, so an existing hash is never
// hashed again.
func applyPassword(h auth.Hasher, u *domain.User) error {
	if u.Password == "" {
		return nil
	}
	digest, err := h.Hash(u.Password)
	if err != nil {
		return internal(err)
	}
	u.PasswordHash = digest
	u.Password = ""
	return nil
}

// sanitize drops every credential field from a loaded user.
func sanitize(u *domain.User) *domain.User {
	u.PasswordHash = ""
	u.Password = ""
	u.RefreshToken.String, u.RefreshToken.Valid = "", false
	u.ResetTokenHash.String, u.ResetTokenHash.Valid = "", false
	u.ResetExpire.Int64, u.ResetExpire.Valid = 0, false
	return u
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
