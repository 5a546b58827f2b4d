package services

import (
	"context"
	"strings"

	"megastore/internal/apperr"
	"megastore/internal/domain"
	"megastore/internal/repos"
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Prods   *repos.ProductRepo
}

func NewReviewService(reviews *repos.ReviewRepo, prods *repos.ProductRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Prods: prods}
}

// Upsert creates or replaces the caller's review of a product.
func (s *ReviewService) Upsert(ctx context.Context, user *domain.User, productID string, rating int, comment string) (*domain.Product, error) {
	if rating < 0 || rating > 5 {
		return nil, apperr.New(apperr.BadRequest, "Rating must be between 0 and 5")
	}
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	err := s.Reviews.Upsert(ctx, domain.Review{
		ProductID:    productID,
		UserID:       user.ID,
		ReviewerName: user.FullName,
		Rating:       rating,
		Comment:      strings.TrimSpace(comment),
	})
	if err != nil {
		return nil, internal(err)
	}
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	return p, nil
}

func (s *ReviewService) List(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	out, err := s.Reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, internal(err)
	}
	return out, nil
}

func (s *ReviewService) Delete(ctx context.Context, userID, productID string) error {
	if err := s.Reviews.Delete(ctx, productID, userID); err != nil {
		return notFoundOr(err, "Review not found")
	}
	return nil
}
