package repos

import (
	"context"

	"megastore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, user_id, ship_address, ship_city, ship_state, ship_country,
  ship_postal_code, ship_phone, payment_id, payment_status, items_price, tax_price,
  shipping_price, total_price, status, paid_at, delivered_at, created_at`

// Place stores the order and its items, takes the stock for every line and
// empties the cart, all in one transaction. A line without enough stock
// aborts everything with ErrInsufficientStock.
func (r *OrderRepo) Place(ctx context.Context, o *domain.Order, cartID string) error {
	if o.CreatedAt == "" {
		o.CreatedAt = now()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, it := range o.Items {
		if err := decrement(ctx, tx, it.ProductID, it.Qty); err != nil {
			return err
		}
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO orders(`+orderColumns+`)
		VALUES(:id, :user_id, :ship_address, :ship_city, :ship_state, :ship_country,
		       :ship_postal_code, :ship_phone, :payment_id, :payment_status, :items_price, :tax_price,
		       :shipping_price, :total_price, :status, :paid_at, :delivered_at, :created_at)`, o); err != nil {
		return err
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO order_items(order_id, product_id, title, qty, price)
			VALUES(:order_id, :product_id, :title, :qty, :price)`, o.Items[i]); err != nil {
			return err
		}
	}
	if cartID != "" {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM cart_items WHERE cart_id = ?`), cartID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.GetContext(ctx, &o, r.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id); err != nil {
		return nil, notFound(err)
	}
	o.Items = []domain.OrderItem{}
	if err := r.db.SelectContext(ctx, &o.Items, r.db.Rebind(`
		SELECT order_id, product_id, title, qty, price
		FROM order_items WHERE order_id = ?
		ORDER BY title`), id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+orderColumns+` FROM orders WHERE user_id = ?
		ORDER BY created_at DESC`), userID)
	return out, err
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+orderColumns+` FROM orders
		ORDER BY created_at DESC
		LIMIT ?`), limit)
	return out, err
}

// UpdateStatus moves order id from status from to status to. The row must
// still be in from, otherwise ErrConflict. Cancelling puts the order's stock
// back and leaving CANCELED takes it again.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, from, to, deliveredAt string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE orders SET status = ?, delivered_at = ? WHERE id = ? AND status = ?`), to, deliveredAt, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM orders WHERE id = ?`), id); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}

	switch {
	case to == domain.OrderCanceled && from != domain.OrderCanceled:
		if err := restock(ctx, tx, id); err != nil {
			return err
		}
	case from == domain.OrderCanceled && to != domain.OrderCanceled:
		var items []domain.OrderItem
		if err := tx.SelectContext(ctx, &items, tx.Rebind(`
			SELECT order_id, product_id, title, qty, price FROM order_items WHERE order_id = ?`), id); err != nil {
			return err
		}
		for _, it := range items {
			if err := decrement(ctx, tx, it.ProductID, it.Qty); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Delete removes an order. An order that still holds stock (neither
// delivered nor canceled) gives it back first.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	if err := tx.GetContext(ctx, &status, tx.Rebind(`SELECT status FROM orders WHERE id = ?`), id); err != nil {
		return notFound(err)
	}
	if holdsStock(status) {
		if err := restock(ctx, tx, id); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM order_items WHERE order_id = ?`), id); err != nil {
		return err
	}
	if err := mustAffect(tx.ExecContext(ctx, tx.Rebind(`DELETE FROM orders WHERE id = ?`), id)); err != nil {
		return err
	}
	return tx.Commit()
}

func holdsStock(status string) bool {
	return status != domain.OrderDelivered && status != domain.OrderCanceled
}

// restock adds the quantities of every line of orderID back to inventory.
func restock(ctx context.Context, ex sqlx.ExtContext, orderID string) error {
	_, err := ex.ExecContext(ctx, ex.Rebind(`
		UPDATE inventory SET
		  qty = qty + (SELECT COALESCE(SUM(oi.qty), 0) FROM order_items oi
		               WHERE oi.order_id = ? AND oi.product_id = inventory.product_id),
		  updated_at = ?
		WHERE product_id IN (SELECT product_id FROM order_items WHERE order_id = ?)`),
		orderID, now(), orderID)
	return err
}
