package repos

import (
	"context"

	"megastore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Upsert writes the user's single review for a product and refreshes the
// product's rating and review count in the same transaction.
func (r *ReviewRepo) Upsert(ctx context.Context, rv domain.Review) error {
	if rv.CreatedAt == "" {
		rv.CreatedAt = now()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO reviews(product_id, user_id, reviewer_name, rating, comment, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, user_id) DO UPDATE
		SET rating = excluded.rating, comment = excluded.comment, reviewer_name = excluded.reviewer_name`),
		rv.ProductID, rv.UserID, rv.ReviewerName, rv.Rating, rv.Comment, rv.CreatedAt); err != nil {
		return err
	}
	if err := recomputeRating(ctx, tx, rv.ProductID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ReviewRepo) Delete(ctx context.Context, productID, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := mustAffect(tx.ExecContext(ctx, tx.Rebind(`
		DELETE FROM reviews WHERE product_id = ? AND user_id = ?`), productID, userID)); err != nil {
		return err
	}
	if err := recomputeRating(ctx, tx, productID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	out := []domain.Review{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT product_id, user_id, reviewer_name, rating, comment, created_at
		FROM reviews WHERE product_id = ?
		ORDER BY created_at DESC`), productID)
	return out, err
}

func recomputeRating(ctx context.Context, tx *sqlx.Tx, productID string) error {
	var agg struct {
		N   int     `db:"n"`
		Avg float64 `db:"avg"`
	}
	if err := tx.GetContext(ctx, &agg, tx.Rebind(`
		SELECT COUNT(*) AS n, COALESCE(AVG(rating), 0) AS avg
		FROM reviews WHERE product_id = ?`), productID); err != nil {
		return err
	}
	return mustAffect(tx.ExecContext(ctx, tx.Rebind(`
		UPDATE products SET rating = ?, num_reviews = ? WHERE id = ?`), agg.Avg, agg.N, productID))
}
