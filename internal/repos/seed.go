package repos

import (
	"context"
	"log"

	"megastore/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SeedCatalog inserts demo categories, products and stock when the catalog
// is empty. Safe to run on every startup.
func SeedCatalog(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products/inventory")

	ts := now()
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range [][2]string{
		{"laptops", "Laptops"},
		{"phones", "Phones"},
		{"audio", "Audio"},
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO categories(id, name, created_at) VALUES(?, ?, ?)`),
			c[0], c[1], ts); err != nil {
			return err
		}
	}

	products := []struct {
		id, cat, title, desc string
		price                float64
		qty                  int
	}{
		{"lap-001", "laptops", "Ultrabook 14", "Lightweight 14 inch laptop", 899.00, 8},
		{"phn-001", "phones", "Pocket Phone X", "6.1 inch display, 128 GB", 499.00, 3},
		{"aud-001", "audio", "Studio Headphones", "Closed-back over-ear headphones", 129.99, 0},
	}
	for _, p := range products {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO products(id, category_id, title, description, price, images_json, created_at)
			VALUES(?, ?, ?, ?, ?, '[]', ?)`), p.id, p.cat, p.title, p.desc, p.price, ts); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO inventory(product_id, qty, updated_at) VALUES(?, ?, ?)`), p.id, p.qty, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SeedAdmin makes sure an admin account with the given email exists. The
// caller passes an already hashed password. An existing account is left as is.
func SeedAdmin(ctx context.Context, users *UserRepo, email, fullName, passwordHash string) error {
	taken, err := users.EmailTaken(ctx, email)
	if err != nil || taken {
		return err
	}
	err = users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		Role:         domain.RoleAdmin,
		PasswordHash: passwordHash,
	})
	if err == ErrDuplicate {
		return nil
	}
	return err
}
