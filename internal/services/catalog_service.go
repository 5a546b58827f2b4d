package services

import (
	"context"
	"strings"

	"megastore/internal/apperr"
	"megastore/internal/blob"
	"megastore/internal/domain"
	applog "megastore/internal/log"
	"megastore/internal/repos"

	"github.com/google/uuid"
)

const (
	productFolder   = "products"
	defaultPageSize = 12
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
	Inv   *repos.InventoryRepo
	Store blob.Store
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, inv *repos.InventoryRepo, store blob.Store) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Inv: inv, Store: store}
}

type ProductInput struct {
	Title       string
	Description string
	Price       float64
	CategoryID  string
	Stock       int
}

type ProductPage struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"productsCount"`
	Page     int              `json:"page"`
	PageSize int              `json:"resultPerPage"`
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.Cats.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return cats, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, q, category string, page int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	products, total, err := s.Prods.Search(ctx, repos.ProductFilter{
		Query:      q,
		CategoryID: category,
		Limit:      defaultPageSize,
		Offset:     (page - 1) * defaultPageSize,
	})
	if err != nil {
		return nil, internal(err)
	}
	return &ProductPage{Products: products, Total: total, Page: page, PageSize: defaultPageSize}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	return p, nil
}

// ShowProduct is GetProduct for the public catalog: hidden products are
// NotFound.
func (s *CatalogService) ShowProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, apperr.New(apperr.NotFound, "Product not found")
	}
	return p, nil
}

// AdminList lists every product with the account that created it.
func (s *CatalogService) AdminList(ctx context.Context) ([]domain.AdminProduct, error) {
	out, err := s.Prods.ListAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return out, nil
}

func (s *CatalogService) SetVisibility(ctx context.Context, id string, active bool) (*domain.Product, error) {
	if err := s.Prods.SetActive(ctx, id, active); err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	return s.GetProduct(ctx, id)
}

func (s *CatalogService) checkInput(ctx context.Context, in *ProductInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.Price < 0 || in.Stock < 0 {
		return apperr.New(apperr.BadRequest, "Title, a non-negative price and stock are required")
	}
	ok, err := s.Cats.Exists(ctx, in.CategoryID)
	if err != nil {
		return internal(err)
	}
	if !ok {
		return apperr.New(apperr.BadRequest, "Unknown category")
	}
	return nil
}

// CreateProduct records adminID as the product's creator.
func (s *CatalogService) CreateProduct(ctx context.Context, adminID string, in ProductInput, images []Upload) (*domain.Product, error) {
	if err := s.checkInput(ctx, &in); err != nil {
		return nil, err
	}
	imgs, err := s.upload(ctx, images)
	if err != nil {
		return nil, err
	}
	p := &domain.Product{
		ID:          uuid.NewString(),
		CategoryID:  in.CategoryID,
		Title:       in.Title,
		Description: in.Description,
		Price:       round2(in.Price),
		Images:      imgs,
		CreatedBy:   adminID,
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		s.deleteImages(ctx, imgs)
		return nil, internal(err)
	}
	if err := s.Inv.UpsertQty(ctx, p.ID, in.Stock); err != nil {
		return nil, internal(err)
	}
	return s.GetProduct(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := s.checkInput(ctx, &in); err != nil {
		return nil, err
	}
	p := &domain.Product{ID: id, CategoryID: in.CategoryID, Title: in.Title, Description: in.Description, Price: round2(in.Price)}
	if err := s.Prods.UpdateDetails(ctx, p); err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	return s.GetProduct(ctx, id)
}

// ReplaceImages swaps the product's images; old blobs are removed after the
// new ones are saved.
func (s *CatalogService) ReplaceImages(ctx context.Context, id string, images []Upload) (*domain.Product, error) {
	if len(images) == 0 {
		return nil, apperr.New(apperr.BadRequest, "At least one image is required")
	}
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	imgs, err := s.upload(ctx, images)
	if err != nil {
		return nil, err
	}
	if err := s.Prods.UpdateImages(ctx, id, imgs); err != nil {
		s.deleteImages(ctx, imgs)
		return nil, notFoundOr(err, "Product not found")
	}
	s.deleteImages(ctx, p.Images)
	return s.GetProduct(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Prods.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Product not found")
	}
	s.deleteImages(ctx, p.Images)
	return nil
}

func (s *CatalogService) upload(ctx context.Context, images []Upload) ([]domain.Image, error) {
	out := make([]domain.Image, 0, len(images))
	for _, up := range images {
		obj, err := s.Store.Upload(ctx, productFolder, up.Filename, up.Body, up.ContentType)
		if err != nil {
			s.deleteImages(ctx, out)
			return nil, apperr.Wrap(apperr.Invalid, "Image upload failed", err)
		}
		out = append(out, domain.Image{ID: obj.ID, URL: obj.URL})
	}
	return out, nil
}

func (s *CatalogService) deleteImages(ctx context.Context, imgs []domain.Image) {
	for _, img := range imgs {
		if err := s.Store.Delete(ctx, img.ID); err != nil {
			applog.Event("blob_delete_failed", err, map[string]any{"blob": img.ID})
		}
	}
}
