package services

import (
	"context"

	"megastore/internal/apperr"
	"megastore/internal/domain"
	"megastore/internal/repos"
)

type InventoryService struct {
	Inv   *repos.InventoryRepo
	Prods *repos.ProductRepo
}

func NewInventoryService(inv *repos.InventoryRepo, prods *repos.ProductRepo) *InventoryService {
	return &InventoryService{Inv: inv, Prods: prods}
}

// CheckAvailability converts qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return domain.Availability{}, notFoundOr(err, "Product not found")
	}
	qty, err := s.Inv.Qty(ctx, productID)
	if err != nil {
		return domain.Availability{}, internal(err)
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}

func (s *InventoryService) SetQty(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return apperr.New(apperr.BadRequest, "Quantity cannot be negative")
	}
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return notFoundOr(err, "Product not found")
	}
	if err := s.Inv.UpsertQty(ctx, productID, qty); err != nil {
		return internal(err)
	}
	return nil
}

func (s *InventoryService) List(ctx context.Context) ([]repos.InventoryRow, error) {
	rows, err := s.Inv.ListAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return rows, nil
}
