package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/orm"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
	"github.com/shashiranjanraj/littlelemon/pkg/validate"
)

type CategoryInput struct {
	Slug  string `json:"slug" validate:"required,max=255,slug"`
	Title string `json:"title" validate:"required,max=255"`
}

// MenuItemInput is used by create (PUT semantics) and by PATCH, where a nil
// field is left unchanged.
type MenuItemInput struct {
	Title    *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Price    *decimal.Decimal `json:"price"`
	Category *uint            `json:"category"`
	Featured *bool            `json:"featured"`
}

// maxPrice is the first value a decimal(6,2) column cannot hold.
var maxPrice = decimal.NewFromInt(10000)

// Invalidator drops cached entries whose key matches pattern.
type Invalidator interface {
	Flush(ctx context.Context, pattern string) error
}

type CatalogService struct {
	catalog *repositories.CatalogRepository
	cache   Invalidator
}

// NewCatalogService builds the service. cache may be nil.
func NewCatalogService(catalog *repositories.CatalogRepository, cache Invalidator) *CatalogService {
	return &CatalogService{catalog: catalog, cache: cache}
}

// ─── Categories ───────────────────────────────────────────────────────────────

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.catalog.Categories(ctx)
}

// CreateCategory requires Administrator or Manager. Slugs are unique.
func (s *CatalogService) CreateCategory(ctx context.Context, p rbac.Principal, in CategoryInput) (models.Category, error) {
	if err := authorize(p, rbac.Administrator, rbac.Manager); err != nil {
		return models.Category{}, err
	}

	in.Slug = strings.TrimSpace(in.Slug)
	in.Title = strings.TrimSpace(in.Title)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Category{}, &ValidationError{Fields: errs}
	}

	taken, err := s.catalog.SlugTaken(ctx, in.Slug)
	if err != nil {
		return models.Category{}, err
	}
	if taken {
		return models.Category{}, invalid("slug", "category with this slug already exists.")
	}

	cat := models.Category{Slug: in.Slug, Title: in.Title}
	if err := s.catalog.CreateCategory(ctx, &cat); err != nil {
		return models.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx)
	return cat, nil
}

// ─── Menu items ───────────────────────────────────────────────────────────────

// MenuItems lists one page of the menu. It is public.
func (s *CatalogService) MenuItems(ctx context.Context, f repositories.MenuFilter, p orm.PageRequest) ([]models.MenuItem, orm.Pagination, error) {
	if !repositories.ValidOrdering(f.Ordering) {
		return nil, orm.Pagination{}, invalid("ordering", "Ordering must be one of price, -price, title, -title.")
	}
	return s.catalog.MenuItems(ctx, f, p)
}

// Menu lists every item matching f, unpaginated.
func (s *CatalogService) Menu(ctx context.Context, f repositories.MenuFilter) ([]models.MenuItem, error) {
	if !repositories.ValidOrdering(f.Ordering) {
		return nil, invalid("ordering", "Ordering must be one of price, -price, title, -title.")
	}
	return s.catalog.AllMenuItems(ctx, f)
}

// MenuItem loads one item or fails with ErrNotFound.
func (s *CatalogService) MenuItem(ctx context.Context, id uint) (models.MenuItem, error) {
	item, err := s.catalog.FindMenuItem(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.MenuItem{}, notFound("menu item")
	}
	return item, err
}

// CreateMenuItem requires Administrator or Manager. Every field but
// featured is required.
func (s *CatalogService) CreateMenuItem(ctx context.Context, p rbac.Principal, in MenuItemInput) (models.MenuItem, error) {
	if err := authorize(p, rbac.Administrator, rbac.Manager); err != nil {
		return models.MenuItem{}, err
	}
	if err := s.checkMenuItem(ctx, in, false); err != nil {
		return models.MenuItem{}, err
	}

	item := models.MenuItem{}
	apply(&item, in)
	if err := s.catalog.CreateMenuItem(ctx, &item); err != nil {
		return models.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	s.invalidate(ctx)
	return s.MenuItem(ctx, item.ID)
}

// UpdateMenuItem requires Manager. With partial set only the fields present
// in the input change; otherwise it is a full replacement.
func (s *CatalogService) UpdateMenuItem(ctx context.Context, p rbac.Principal, id uint, in MenuItemInput, partial bool) (models.MenuItem, error) {
	if err := authorize(p, rbac.Manager); err != nil {
		return models.MenuItem{}, err
	}

	item, err := s.MenuItem(ctx, id)
	if err != nil {
		return models.MenuItem{}, err
	}
	if err := s.checkMenuItem(ctx, in, partial); err != nil {
		return models.MenuItem{}, err
	}

	if !partial && in.Featured == nil {
		in.Featured = new(bool)
	}
	apply(&item, in)
	if err := s.catalog.SaveMenuItem(ctx, &item); err != nil {
		return models.MenuItem{}, fmt.Errorf("update menu item %d: %w", id, err)
	}
	s.invalidate(ctx)
	return s.MenuItem(ctx, id)
}

// DeleteMenuItem requires Manager. Items referenced by a placed order stay,
// since the order snapshot points at them.
func (s *CatalogService) DeleteMenuItem(ctx context.Context, p rbac.Principal, id uint) error {
	if err := authorize(p, rbac.Manager); err != nil {
		return err
	}
	if _, err := s.MenuItem(ctx, id); err != nil {
		return err
	}

	ordered, err := s.catalog.MenuItemOrdered(ctx, id)
	if err != nil {
		return err
	}
	if ordered {
		return &BusinessRuleError{Message: "menu item is referenced by existing orders"}
	}

	if err := s.catalog.DeleteMenuItem(ctx, id); err != nil {
		return fmt.Errorf("delete menu item %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) checkMenuItem(ctx context.Context, in MenuItemInput, partial bool) error {
	errs := validate.Struct(in)
	if !partial {
		if in.Title == nil {
			errs["title"] = "The title field is required."
		}
		if in.Price == nil {
			errs["price"] = "The price field is required."
		}
		if in.Category == nil {
			errs["category"] = "The category field is required."
		}
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		errs["title"] = "The title field is required."
	}
	if in.Price != nil {
		switch {
		case !in.Price.IsPositive():
			errs["price"] = "The price must be greater than 0."
		case in.Price.GreaterThanOrEqual(maxPrice):
			errs["price"] = "The price must be less than 10000."
		case !in.Price.Equal(in.Price.Round(2)):
			errs["price"] = "The price must not have more than 2 decimal places."
		}
	}

	if _, bad := errs["category"]; !bad && in.Category != nil {
		_, err := s.catalog.FindCategory(ctx, *in.Category)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			errs["category"] = fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *in.Category)
		case err != nil:
			return err
		}
	}

	if validate.HasErrors(errs) {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func apply(item *models.MenuItem, in MenuItemInput) {
	if in.Title != nil {
		item.Title = strings.TrimSpace(*in.Title)
	}
	if in.Price != nil {
		item.Price = *in.Price
	}
	if in.Category != nil {
		item.CategoryID = *in.Category
		item.Category = models.Category{}
	}
	if in.Featured != nil {
		item.Featured = *in.Featured
	}
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Flush(ctx, repositories.CacheKeyPattern); err != nil {
		logger.WithCtx(ctx).Warn("catalog cache flush failed", "error", err)
	}
}
