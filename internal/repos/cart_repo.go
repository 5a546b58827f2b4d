package repos

import (
	"context"
	"errors"

	"megastore/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// EnsureCart returns the user's cart id, creating the cart on first use.
func (r *CartRepo) EnsureCart(ctx context.Context, userID string) (string, error) {
	var cartID string
	err := r.db.GetContext(ctx, &cartID, r.db.Rebind(`SELECT id FROM carts WHERE user_id = ?`), userID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(notFound(err), ErrNotFound) {
		return "", err
	}
	cartID = uuid.NewString()
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO carts(id, user_id, updated_at) VALUES(?, ?, ?)`),
		cartID, userID, now())
	if isUniqueViolation(err) {
		// lost a race with a concurrent first add
		err = r.db.GetContext(ctx, &cartID, r.db.Rebind(`SELECT id FROM carts WHERE user_id = ?`), userID)
	}
	if err != nil {
		return "", err
	}
	return cartID, nil
}

func (r *CartRepo) UpsertItem(ctx context.Context, cartID, productID string, qty int, price float64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO cart_items(cart_id, product_id, qty, price_at_add, created_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(cart_id, product_id) DO UPDATE
		SET qty = cart_items.qty + excluded.qty, price_at_add = excluded.price_at_add`),
		cartID, productID, qty, price, now())
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`UPDATE carts SET updated_at = ? WHERE id = ?`), now(), cartID)
	return err
}

func (r *CartRepo) Items(ctx context.Context, cartID string) ([]domain.CartLine, error) {
	rows := []domain.CartLine{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT ci.product_id, p.title, ci.qty, ci.price_at_add,
		       (ci.qty * ci.price_at_add) AS subtotal
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY p.title`), cartID)
	return rows, err
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID string) error {
	return mustAffect(r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`), cartID, productID))
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM cart_items WHERE cart_id = ?`), cartID)
	return err
}
