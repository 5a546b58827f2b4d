package repos

import (
	"context"
	"strings"

	"megastore/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `id, category_id, title, description, price, rating, num_reviews,
  images_json, created_by, active, created_at, updated_at`

type ProductFilter struct {
	Query      string
	CategoryID string
	Limit      int
	Offset     int
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	p.DecodeImages()
	return &p, nil
}

// Search lists active products matching the filter, newest first, together
// with the total number of matches.
func (r *ProductRepo) Search(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	where := `active = 1`
	args := []any{}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		where += ` AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if f.CategoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM products WHERE `+where), args...); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 {
		f.Limit = 20
	}
	out := []domain.Product{}
	q := `SELECT ` + productColumns + ` FROM products WHERE ` + where + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), append(args, f.Limit, f.Offset)...); err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].DecodeImages()
	}
	return out, total, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	p.ImagesJSON = domain.EncodeImages(p.Images)
	if p.CreatedAt == "" {
		p.CreatedAt = now()
	}
	p.Active = true
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO products(id, category_id, title, description, price, images_json, created_by, active, created_at)
		VALUES(:id, :category_id, :title, :description, :price, :images_json, :created_by, 1, :created_at)`, p)
	return err
}

func (r *ProductRepo) UpdateDetails(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = now()
	return mustAffect(r.db.NamedExecContext(ctx, `
		UPDATE products
		SET category_id = :category_id, title = :title, description = :description,
		    price = :price, updated_at = :updated_at
		WHERE id = :id`, p))
}

func (r *ProductRepo) UpdateImages(ctx context.Context, id string, imgs []domain.Image) error {
	return mustAffect(r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET images_json = ?, updated_at = ? WHERE id = ?`),
		domain.EncodeImages(imgs), now(), id))
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return mustAffect(r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id))
}

// ListAll returns every product, hidden ones included, with its creator's
// email and name.
func (r *ProductRepo) ListAll(ctx context.Context) ([]domain.AdminProduct, error) {
	out := []domain.AdminProduct{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT p.id, p.category_id, p.title, p.description, p.price, p.rating, p.num_reviews,
		       p.images_json, p.created_by, p.active, p.created_at, p.updated_at,
		       u.email AS creator_email, u.full_name AS creator_name
		FROM products p
		LEFT JOIN users u ON u.id = p.created_by
		ORDER BY p.created_at DESC, p.id`)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].ResolveCreator()
	}
	return out, nil
}

// SetActive hides or shows a product in the public catalog.
func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool) error {
	flag := 0
	if active {
		flag = 1
	}
	return mustAffect(r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET active = ?, updated_at = ? WHERE id = ?`), flag, now(), id))
}
