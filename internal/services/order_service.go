package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"megastore/internal/apperr"
	"megastore/internal/domain"
	"megastore/internal/repos"

	"github.com/google/uuid"
)

const (
	taxRate           = 0.18
	freeShippingAbove = 500.0
	shippingFee       = 50.0
)

type OrderService struct {
	Carts  *repos.CartRepo
	Inv    *repos.InventoryRepo
	Orders *repos.OrderRepo
	Now    func() time.Time
}

func NewOrderService(carts *repos.CartRepo, inv *repos.InventoryRepo, orders *repos.OrderRepo) *OrderService {
	return &OrderService{Carts: carts, Inv: inv, Orders: orders}
}

// Totals computes the price breakdown for an order with the given items
// subtotal.
func Totals(items float64) (tax, shipping, total float64) {
	items = round2(items)
	tax = round2(items * taxRate)
	shipping = shippingFee
	if items > freeShippingAbove {
		shipping = 0
	}
	return tax, shipping, round2(items + tax + shipping)
}

// Place turns the user's cart into an order attributed to that user.
func (s *OrderService) Place(ctx context.Context, userID string, ship domain.Shipping, pay domain.Payment) (*domain.Order, error) {
	cartID, err := s.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	lines, err := s.Carts.Items(ctx, cartID)
	if err != nil {
		return nil, internal(err)
	}
	if len(lines) == 0 {
		return nil, apperr.New(apperr.BadRequest, "Your cart is empty")
	}

	// pre-check stock for a readable error; Place re-checks atomically
	for _, it := range lines {
		qty, err := s.Inv.Qty(ctx, it.ProductID)
		if err != nil {
			return nil, internal(err)
		}
		if qty < it.Qty {
			return nil, apperr.New(apperr.Conflict, fmt.Sprintf("Insufficient stock for %s (need %d, have %d)", it.Title, it.Qty, qty))
		}
	}

	now := clock(s.Now).UTC().Format(time.RFC3339)
	o := &domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Shipping:  ship,
		Payment:   pay,
		Status:    domain.OrderProcessing,
		CreatedAt: now,
	}
	if pay.ID != "" {
		o.PaidAt = now
	}
	items := 0.0
	for _, it := range lines {
		o.Items = append(o.Items, domain.OrderItem{ProductID: it.ProductID, Title: it.Title, Qty: it.Qty, Price: it.PriceAtAdd})
		items += it.PriceAtAdd * float64(it.Qty)
	}
	o.ItemsPrice = round2(items)
	o.TaxPrice, o.ShippingPrice, o.TotalPrice = Totals(items)

	if err := s.Orders.Place(ctx, o, cartID); err != nil {
		if errors.Is(err, repos.ErrInsufficientStock) {
			return nil, apperr.Wrap(apperr.Conflict, "Some items just went out of stock", err)
		}
		return nil, internal(err)
	}
	return o, nil
}

func (s *OrderService) Mine(ctx context.Context, userID string) ([]domain.Order, error) {
	out, err := s.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return out, nil
}

// Get returns an order to its owner or to an admin. Anyone else sees
// NotFound.
func (s *OrderService) Get(ctx context.Context, requester *domain.User, id string) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}
	if o.UserID != requester.ID && !requester.IsAdmin() {
		return nil, apperr.New(apperr.NotFound, "Order not found")
	}
	return o, nil
}

type OrderList struct {
	Orders      []domain.Order `json:"orders"`
	TotalAmount float64        `json:"totalAmount"`
}

func (s *OrderService) All(ctx context.Context) (*OrderList, error) {
	orders, err := s.Orders.ListLatest(ctx, 500)
	if err != nil {
		return nil, internal(err)
	}
	sum := 0.0
	for _, o := range orders {
		sum += o.TotalPrice
	}
	return &OrderList{Orders: orders, TotalAmount: round2(sum)}, nil
}

// UpdateStatus moves an order along. Delivered orders are final.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, apperr.New(apperr.BadRequest, "Unknown order status")
	}
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}
	if o.Status == domain.OrderDelivered {
		return nil, apperr.New(apperr.BadRequest, "This order has already been delivered")
	}
	delivered := o.DeliveredAt
	if status == domain.OrderDelivered {
		delivered = clock(s.Now).UTC().Format(time.RFC3339)
	}
	if err := s.Orders.UpdateStatus(ctx, id, o.Status, status, delivered); err != nil {
		switch {
		case errors.Is(err, repos.ErrInsufficientStock):
			return nil, apperr.Wrap(apperr.Conflict, "Not enough stock to reopen this order", err)
		case errors.Is(err, repos.ErrConflict):
			return nil, apperr.Wrap(apperr.Conflict, "The order changed, please retry", err)
		}
		return nil, notFoundOr(err, "Order not found")
	}
	o.Status, o.DeliveredAt = status, delivered
	return o, nil
}

// Delete removes an order; stock still held by it is returned.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.Orders.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Order not found")
	}
	return nil
}
