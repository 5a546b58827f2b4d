package services

import (
	"context"
	"errors"

	"megastore/internal/apperr"
	"megastore/internal/auth"
	"megastore/internal/domain"
	"megastore/internal/repos"
)

// MsgBadCredentials is shared by both login failures so responses do not
// reveal whether an email is registered.
const MsgBadCredentials = "Invalid email or password"

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Session struct {
	TokenPair
	User domain.PublicUser `json:"user"`
}

type SessionService struct {
	Users  *repos.UserRepo
	Hasher auth.Hasher
	Tokens *auth.Issuer
}

func NewSessionService(users *repos.UserRepo, hasher auth.Hasher, tokens *auth.Issuer) *SessionService {
	return &SessionService{Users: users, Hasher: hasher, Tokens: tokens}
}

// Login checks the credentials and starts a new session, replacing any
// refresh token the user held before.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.ByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, notFoundOr(err, MsgBadCredentials)
	}
	ok, err := s.Hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, internal(err)
	}
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, MsgBadCredentials)
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return nil, internal(err)
	}
	return &Session{TokenPair: *pair, User: u.Public()}, nil
}

// Refresh exchanges the stored refresh token for a new pair. A token that is
// not the one currently stored is rejected, which ends the session of
// whoever held the older token.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, apperr.New(apperr.Unauthorized, "Refresh token is required")
	}
	claims, err := s.Tokens.VerifyRefresh(presented)
	if err != nil {
		if auth.IsExpired(err) {
			return nil, apperr.Wrap(apperr.Unauthorized, "Refresh token has expired", err)
		}
		return nil, apperr.Wrap(apperr.Unauthorized, "Invalid refresh token", err)
	}
	u, err := s.Users.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, apperr.Wrap(apperr.Unauthorized, "Invalid refresh token", err)
		}
		return nil, internal(err)
	}
	if !u.RefreshToken.Valid || u.RefreshToken.String != presented {
		return nil, apperr.New(apperr.Unauthorized, "Refresh token is expired or used")
	}

	pair, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	if err := s.Users.RotateRefreshToken(ctx, u.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, repos.ErrConflict) {
			return nil, apperr.Wrap(apperr.Unauthorized, "Refresh token is expired or used", err)
		}
		return nil, internal(err)
	}
	return pair, nil
}

// Logout clears the stored refresh token. Calling it twice is fine.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	err := s.Users.SetRefreshToken(ctx, userID, "")
	if err != nil && !errors.Is(err, repos.ErrNotFound) {
		return internal(err)
	}
	return nil
}

// Authenticate resolves an access token to a sanitized user. A token whose
// user has since been deleted is rejected.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, apperr.New(apperr.Unauthorized, "Unauthorized request")
	}
	claims, err := s.Tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "Invalid access token", err)
	}
	u, err := s.Users.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, apperr.Wrap(apperr.Unauthorized, "Invalid access token", err)
		}
		return nil, internal(err)
	}
	return sanitize(u), nil
}

func (s *SessionService) issuePair(u *domain.User) (*TokenPair, error) {
	access, err := s.Tokens.IssueAccess(u.ID, u.Email, u.FullName)
	if err != nil {
		return nil, internal(err)
	}
	refresh, err := s.Tokens.IssueRefresh(u.ID)
	if err != nil {
		return nil, internal(err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
