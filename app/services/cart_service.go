package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/pkg/metrics"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
	"github.com/shashiranjanraj/littlelemon/pkg/validate"
)

type AddToCartInput struct {
	MenuItemID uint `json:"menuitem_id" validate:"required"`
	Quantity   int  `json:"quantity" validate:"required,gte=1,lte=1000"`
}

// CartService manages the caller's own pending lines. Any authenticated
// principal may use it.
type CartService struct {
	carts   *repositories.CartRepository
	catalog *CatalogService
}

func NewCartService(carts *repositories.CartRepository, catalog *CatalogService) *CartService {
	return &CartService{carts: carts, catalog: catalog}
}

// Lines returns the caller's cart.
func (s *CartService) Lines(ctx context.Context, p rbac.Principal) ([]models.Cart, error) {
	return s.carts.Lines(ctx, p.UserID)
}

// Total sums the price of lines.
func Total(lines []models.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price)
	}
	return total
}

// Add snapshots the item's current price into a new line. Adding the same
// item twice yields two lines.
func (s *CartService) Add(ctx context.Context, p rbac.Principal, in AddToCartInput) (models.Cart, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Cart{}, &ValidationError{Fields: errs}
	}

	item, err := s.catalog.MenuItem(ctx, in.MenuItemID)
	if err != nil {
		return models.Cart{}, err
	}

	line := models.Cart{
		UserID:     p.UserID,
		MenuItemID: item.ID,
		Quantity:   in.Quantity,
		UnitPrice:  item.Price,
		Price:      item.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
	}
	if err := s.carts.Add(ctx, &line); err != nil {
		return models.Cart{}, fmt.Errorf("add to cart: %w", err)
	}
	line.MenuItem = item
	metrics.CartLinesAdded.Inc()
	return line, nil
}

// Clear empties the caller's cart. An empty cart is not an error.
func (s *CartService) Clear(ctx context.Context, p rbac.Principal) error {
	if _, err := s.carts.Clear(ctx, p.UserID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
