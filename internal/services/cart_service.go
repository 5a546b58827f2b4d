package services

import (
	"context"

	"megastore/internal/apperr"
	"megastore/internal/domain"
	"megastore/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

type CartView struct {
	Items []domain.CartLine `json:"items"`
	Total float64           `json:"total"`
}

func (s *CartService) Add(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return notFoundOr(err, "Product not found")
	}
	if !p.Active {
		return apperr.New(apperr.NotFound, "Product not found")
	}
	cartID, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return internal(err)
	}
	if err := s.Carts.UpsertItem(ctx, cartID, productID, qty, p.Price); err != nil {
		return internal(err)
	}
	return nil
}

func (s *CartService) View(ctx context.Context, userID string) (*CartView, error) {
	cartID, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	items, err := s.Carts.Items(ctx, cartID)
	if err != nil {
		return nil, internal(err)
	}
	total := 0.0
	for _, it := range items {
		total += it.Subtotal
	}
	return &CartView{Items: items, Total: round2(total)}, nil
}

func (s *CartService) Remove(ctx context.Context, userID, productID string) error {
	cartID, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return internal(err)
	}
	if err := s.Carts.RemoveItem(ctx, cartID, productID); err != nil {
		return notFoundOr(err, "Item is not in your cart")
	}
	return nil
}
