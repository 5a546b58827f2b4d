package services

import (
	"context"
	"errors"
	"strings"

	"megastore/internal/apperr"
	"megastore/internal/blob"
	"megastore/internal/domain"
	applog "megastore/internal/log"
	"megastore/internal/repos"
)

type AccountService struct {
	Users *repos.UserRepo
	Store blob.Store
}

func NewAccountService(users *repos.UserRepo, store blob.Store) *AccountService {
	return &AccountService{Users: users, Store: store}
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.PublicUser, error) {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	pub := u.Public()
	return &pub, nil
}

func (s *AccountService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	out := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

func (s *AccountService) UpdateDetails(ctx context.Context, id, fullName, email string) (*domain.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" {
		return nil, apperr.New(apperr.BadRequest, "All fields are required")
	}
	if err := s.Users.UpdateDetails(ctx, id, fullName, email); err != nil {
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.Conflict, "Email is already in use", err)
		}
		return nil, notFoundOr(err, "User not found")
	}
	return s.Get(ctx, id)
}

// UpdateAvatar stores the new image first and only then drops the old one.
func (s *AccountService) UpdateAvatar(ctx context.Context, id string, up *Upload) (*domain.PublicUser, error) {
	if up == nil {
		return nil, apperr.New(apperr.BadRequest, "Avatar file is missing")
	}
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	obj, err := s.Store.Upload(ctx, avatarFolder, up.Filename, up.Body, up.ContentType)
	if err != nil {
		return nil, apperr.Wrap(apperr.Invalid, "Avatar upload failed", err)
	}
	if err := s.Users.UpdateAvatar(ctx, id, obj.ID, obj.URL); err != nil {
		_ = s.Store.Delete(ctx, obj.ID)
		return nil, notFoundOr(err, "User not found")
	}
	s.deleteBlob(ctx, u.AvatarID)
	return s.Get(ctx, id)
}

func (s *AccountService) UpdateRole(ctx context.Context, id, role string) (*domain.PublicUser, error) {
	if !domain.ValidRole(role) {
		return nil, apperr.New(apperr.BadRequest, "Role must be user or admin")
	}
	if err := s.Users.UpdateRole(ctx, id, role); err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return s.Get(ctx, id)
}

// Delete removes the account and its avatar. Orders stay, canceled unless
// already delivered.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "User not found")
	}
	if err := s.Users.DeleteUserCascade(ctx, id); err != nil {
		return notFoundOr(err, "User not found")
	}
	s.deleteBlob(ctx, u.AvatarID)
	return nil
}

func (s *AccountService) deleteBlob(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		applog.Event("blob_delete_failed", err, map[string]any{"blob": id})
	}
}
