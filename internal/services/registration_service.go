package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"megastore/internal/apperr"
	"megastore/internal/auth"
	"megastore/internal/blob"
	"megastore/internal/domain"
	applog "megastore/internal/log"
	"megastore/internal/notify"
	"megastore/internal/repos"

	"github.com/google/uuid"
)

const avatarFolder = "avatars"

type RegistrationInput struct {
	FullName string
	Email    string
	Password string
	Avatar   *Upload
}

// RegistrationService creates accounts. The canonical path defers creation
// until the emailed activation token comes back; Register is the direct
// variant.
type RegistrationService struct {
	Users    *repos.UserRepo
	Hasher   auth.Hasher
	Tokens   *auth.Issuer
	Stager   *blob.Stager
	Store    blob.Store
	Notifier notify.Notifier
	Renderer *notify.Renderer
}

func (in *RegistrationInput) normalize() error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	if in.FullName == "" || in.Email == "" || in.Password == "" {
		return apperr.New(apperr.BadRequest, "All fields are required")
	}
	return nil
}

func (s *RegistrationService) ensureEmailFree(ctx context.Context, email string) error {
	taken, err := s.Users.EmailTaken(ctx, email)
	if err != nil {
		return internal(err)
	}
	if taken {
		return apperr.New(apperr.Conflict, "User with this email already exists")
	}
	return nil
}

// RequestActivation stages the avatar, packs the pending account into an
// activation token and mails the activation link. Nothing is written to the
// user table.
func (s *RegistrationService) RequestActivation(ctx context.Context, in RegistrationInput, baseURL string) error {
	if err := in.normalize(); err != nil {
		return err
	}
	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return err
	}
	digest, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return internal(err)
	}

	var ref string
	if in.Avatar != nil {
		ref, err = s.Stager.Stage(in.Avatar.Body, blob.StagedMeta{Filename: in.Avatar.Filename, ContentType: in.Avatar.ContentType})
		if err != nil {
			return apperr.Wrap(apperr.Invalid, "Avatar upload failed", err)
		}
	}
	discard := func() {
		if ref != "" {
			_ = s.Stager.Discard(ref)
		}
	}

	token, err := s.Tokens.IssueActivation(auth.PendingUser{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: digest,
		AvatarRef:    ref,
	})
	if err != nil {
		discard()
		return internal(err)
	}

	link := fmt.Sprintf("%s/activation/%s", strings.TrimRight(baseURL, "/"), token)
	body, err := s.Renderer.Render(notify.TemplateActivation, notify.LinkData{Name: in.FullName, URL: link, ValidFor: "5 minutes"})
	if err != nil {
		discard()
		return internal(err)
	}
	if err := s.Notifier.Send(ctx, notify.Message{To: in.Email, Subject: "Activate your account", HTML: body}); err != nil {
		discard()
		applog.Event("activation_mail_failed", err, map[string]any{"email": in.Email})
		return apperr.Wrap(apperr.Invalid, "Could not send the activation email, please try again", err)
	}
	return nil
}

// Activate turns a valid activation token into a stored user.
func (s *RegistrationService) Activate(ctx context.Context, token string) (*domain.PublicUser, error) {
	pending, err := s.Tokens.VerifyActivation(token)
	if err != nil {
		if auth.IsExpired(err) {
			return nil, apperr.Wrap(apperr.Unauthorized, "Activation link has expired, please register again", err)
		}
		return nil, apperr.Wrap(apperr.Unauthorized, "Invalid activation link", err)
	}
	if err := s.ensureEmailFree(ctx, pending.Email); err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		FullName:     pending.FullName,
		Email:        pending.Email,
		Role:         domain.RoleUser,
		PasswordHash: pending.PasswordHash,
	}
	if pending.AvatarRef != "" {
		obj, err := blob.Promote(ctx, s.Stager, s.Store, pending.AvatarRef, avatarFolder)
		if err != nil {
			return nil, apperr.Wrap(apperr.Invalid, "Avatar upload failed", err)
		}
		u.AvatarID, u.AvatarURL = obj.ID, obj.URL
	}
	return s.create(ctx, u)
}

// Register creates the account immediately, without e-mail confirmation.
func (s *RegistrationService) Register(ctx context.Context, in RegistrationInput) (*domain.PublicUser, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:       uuid.NewString(),
		FullName: in.FullName,
		Email:    in.Email,
		Role:     domain.RoleUser,
		Password: in.Password,
	}
	if in.Avatar != nil {
		obj, err := s.Store.Upload(ctx, avatarFolder, in.Avatar.Filename, in.Avatar.Body, in.Avatar.ContentType)
		if err != nil {
			return nil, apperr.Wrap(apperr.Invalid, "Avatar upload failed", err)
		}
		u.AvatarID, u.AvatarURL = obj.ID, obj.URL
	}
	return s.create(ctx, u)
}

func (s *RegistrationService) create(ctx context.Context, u *domain.User) (*domain.PublicUser, error) {
	if err := applyPassword(s.Hasher, u); err != nil {
		s.dropAvatar(ctx, u)
		return nil, err
	}
	if err := s.Users.Create(ctx, u); err != nil {
		s.dropAvatar(ctx, u)
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.Conflict, "User with this email already exists", err)
		}
		return nil, internal(err)
	}
	pub := u.Public()
	return &pub, nil
}

func (s *RegistrationService) dropAvatar(ctx context.Context, u *domain.User) {
	if u.AvatarID == "" {
		return
	}
	if err := s.Store.Delete(ctx, u.AvatarID); err != nil {
		applog.Event("avatar_cleanup_failed", err, map[string]any{"blob": u.AvatarID})
	}
}
