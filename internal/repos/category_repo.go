package repos

import (
	"context"

	"megastore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, name, created_at, updated_at
		FROM categories
		ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM categories WHERE id = ?`), id)
	return n > 0, err
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) error {
	if c.CreatedAt == "" {
		c.CreatedAt = now()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO categories(id, name, created_at) VALUES(:id, :name, :created_at)`, c)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
