package repos

import (
	"context"
	"database/sql"
	"errors"

	"megastore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, full_name, email, role, password_hash, refresh_token,
  reset_password_token_hash, reset_password_expire, avatar_id, avatar_url,
  created_at, updated_at`

func (r *UserRepo) get(ctx context.Context, where string, args ...any) (*domain.User, error) {
	var u domain.User
	q := r.DB.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where)
	if err := r.DB.GetContext(ctx, &u, q, args...); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts u. The caller must have set PasswordHash; an empty hash is
// refused so that no account is ever stored without one.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.PasswordHash == "" {
		return errors.New("user has no password hash")
	}
	if u.CreatedAt == "" {
		u.CreatedAt = now()
	}
	u.UpdatedAt = u.CreatedAt
	_, err := r.DB.NamedExecContext(ctx, `
		INSERT INTO users(id, full_name, email, role, password_hash, avatar_id, avatar_url, created_at, updated_at)
		VALUES(:id, :full_name, :email, :role, :password_hash, :avatar_id, :avatar_url, :created_at, :updated_at)`, u)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `email = ?`, email)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `id = ?`, id)
}

func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, r.DB.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`), email)
	return n > 0, err
}

// ByResetHash finds the user holding an unexpired reset secret digest.
func (r *UserRepo) ByResetHash(ctx context.Context, hash string, nowUnix int64) (*domain.User, error) {
	return r.get(ctx, `reset_password_token_hash = ? AND reset_password_expire > ?`, hash, nowUnix)
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := r.DB.SelectContext(ctx, &out, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	return out, err
}

// SetRefreshToken overwrites the stored refresh token. Passing "" clears it.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	val := sql.NullString{String: token, Valid: token != ""}
	return mustAffect(r.DB.ExecContext(ctx,
		r.DB.Rebind(`UPDATE users SET refresh_token = ? WHERE id = ?`), val, id))
}

// RotateRefreshToken swaps prev for next only if prev is still the stored
// value. ErrConflict means another request rotated or cleared it first.
func (r *UserRepo) RotateRefreshToken(ctx context.Context, id, prev, next string) error {
	err := mustAffect(r.DB.ExecContext(ctx,
		r.DB.Rebind(`UPDATE users SET refresh_token = ? WHERE id = ? AND refresh_token = ?`), next, id, prev))
	if errors.Is(err, ErrNotFound) {
		return ErrConflict
	}
	return err
}

func (r *UserRepo) SetResetToken(ctx context.Context, id, hash string, expireUnix int64) error {
	return mustAffect(r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE users SET reset_password_token_hash = ?, reset_password_expire = ?, updated_at = ?
		WHERE id = ?`), hash, expireUnix, now(), id))
}

func (r *UserRepo) ClearResetToken(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE users SET reset_password_token_hash = NULL, reset_password_expire = NULL
		WHERE id = ?`), id)
	return err
}

// UpdatePassword stores a new digest. When clearReset is set the reset fields
// and the refresh token are dropped in the same statement.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string, clearReset bool) error {
	if hash == "" {
		return errors.New("refusing to store an empty password hash")
	}
	q := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	if clearReset {
		q = `UPDATE users SET password_hash = ?, updated_at = ?,
		       reset_password_token_hash = NULL, reset_password_expire = NULL, refresh_token = NULL
		     WHERE id = ?`
	}
	return mustAffect(r.DB.ExecContext(ctx, r.DB.Rebind(q), hash, now(), id))
}

func (r *UserRepo) UpdateDetails(ctx context.Context, id, fullName, email string) error {
	err := mustAffect(r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE users SET full_name = ?, email = ?, updated_at = ? WHERE id = ?`), fullName, email, now(), id))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepo) UpdateAvatar(ctx context.Context, id, avatarID, avatarURL string) error {
	return mustAffect(r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE users SET avatar_id = ?, avatar_url = ?, updated_at = ? WHERE id = ?`), avatarID, avatarURL, now(), id))
}

func (r *UserRepo) UpdateRole(ctx context.Context, id, role string) error {
	return mustAffect(r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE users SET role = ?, updated_at = ? WHERE id = ?`), role, now(), id))
}

// DeleteUserCascade cancels the user's undelivered orders and returns their
// stock, drops the cart and then the account. Orders are kept for audit.
func (r *UserRepo) DeleteUserCascade(ctx context.Context, userID string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var open []string
	if err := tx.SelectContext(ctx, &open, tx.Rebind(`
		SELECT id FROM orders WHERE user_id = ? AND status NOT IN (?, ?)`),
		userID, domain.OrderDelivered, domain.OrderCanceled); err != nil {
		return err
	}
	for _, id := range open {
		if err := restock(ctx, tx, id); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE orders SET status = ? WHERE user_id = ? AND status <> ?`),
		domain.OrderCanceled, userID, domain.OrderDelivered); err != nil {
		return err
	}
	var cartIDs []string
	if err := tx.SelectContext(ctx, &cartIDs, tx.Rebind(`SELECT id FROM carts WHERE user_id = ?`), userID); err != nil {
		return err
	}
	if len(cartIDs) > 0 {
		query, args, err := sqlx.In(`DELETE FROM cart_items WHERE cart_id IN (?)`, cartIDs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM carts WHERE user_id = ?`), userID); err != nil {
			return err
		}
	}
	if err := mustAffect(tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), userID)); err != nil {
		return err
	}
	return tx.Commit()
}
