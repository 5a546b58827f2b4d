package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

var ErrInsufficientStock = errors.New("insufficient stock")

// InventoryRow is one line of the admin stock listing.
type InventoryRow struct {
	ProductID string `db:"product_id" json:"productId"`
	Title     string `db:"title" json:"title"`
	Qty       int    `db:"qty" json:"qty"`
}

func (r *InventoryRepo) ListAll(ctx context.Context) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT p.id AS product_id, p.title, COALESCE(i.qty, 0) AS qty
		FROM products p
		LEFT JOIN inventory i ON i.product_id = p.id
		ORDER BY p.title`)
	return rows, err
}

// Qty returns current stock. A product with no inventory row has none.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, r.db.Rebind(`SELECT qty FROM inventory WHERE product_id = ?`), productID)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return qty, nil
}

// Decrement atomically subtracts by units if enough stock exists.
func (r *InventoryRepo) Decrement(ctx context.Context, productID string, by int) error {
	return decrement(ctx, r.db, productID, by)
}

func decrement(ctx context.Context, ex sqlx.ExtContext, productID string, by int) error {
	res, err := ex.ExecContext(ctx, ex.Rebind(`
		UPDATE inventory SET qty = qty - ?, updated_at = ?
		WHERE product_id = ? AND qty >= ?`), by, now(), productID, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w for %s", ErrInsufficientStock, productID)
	}
	return nil
}

// UpsertQty sets qty for productID, creating the row if needed.
func (r *InventoryRepo) UpsertQty(ctx context.Context, productID string, qty int) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO inventory(product_id, qty, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET qty = excluded.qty, updated_at = excluded.updated_at`),
		productID, qty, now())
	return err
}
