package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/config"
	"github.com/shashiranjanraj/littlelemon/pkg/orm"
)

// MenuFilter narrows and orders a menu listing. Zero values mean "no filter".
type MenuFilter struct {
	CategorySlug string
	Search       string // substring of the category title
	Featured     *bool
	Ordering     string // price, -price, title, -title
}

// CacheKey identifies the listing for filter and page.
func (f MenuFilter) CacheKey(p orm.PageRequest) string {
	featured := "any"
	if f.Featured != nil {
		featured = fmt.Sprint(*f.Featured)
	}
	return fmt.Sprintf("menu:items:c=%s:s=%s:f=%s:o=%s:p=%d:pp=%d",
		f.CategorySlug, strings.ToLower(f.Search), featured, f.Ordering, p.Page, p.PerPage)
}

var menuOrderings = map[string]string{
	"price":  "menu_items.price ASC, menu_items.id ASC",
	"-price": "menu_items.price DESC, menu_items.id ASC",
	"title":  "menu_items.title ASC, menu_items.id ASC",
	"-title": "menu_items.title DESC, menu_items.id ASC",
}

// ValidOrdering reports whether o is a supported ordering ("" included).
func ValidOrdering(o string) bool {
	_, ok := menuOrderings[o]
	return ok || o == ""
}

// CatalogRepository reads through orm.CacheStore for listings. Keys share
// the "menu:" prefix so one flush invalidates them all.
type CatalogRepository struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db, ttl: config.CacheTTL()}
}

// CacheKeyPattern matches every key this repository caches under.
const CacheKeyPattern = "menu:*"

// ─── Categories ───────────────────────────────────────────────────────────────

func (r *CatalogRepository) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := orm.New(ctx, r.db).Order("id").Cache("menu:categories", r.ttl, &cats)
	return cats, err
}

func (r *CatalogRepository) FindCategory(ctx context.Context, id uint) (models.Category, error) {
	var c models.Category
	err := orm.New(ctx, r.db).Where("id = ?", id).First(&c)
	return c, err
}

func (r *CatalogRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// ─── Menu items ───────────────────────────────────────────────────────────────

func (r *CatalogRepository) menuQuery(ctx context.Context, f MenuFilter) *orm.Query {
	q := orm.New(ctx, r.db).Model(&models.MenuItem{}).Preload("Category")

	if f.CategorySlug != "" || f.Search != "" {
		q = q.Joins("JOIN categories ON categories.id = menu_items.category_id")
	}
	if f.CategorySlug != "" {
		q = q.Where("categories.slug = ?", f.CategorySlug)
	}
	if f.Search != "" {
		q = q.Where("LOWER(categories.title) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if f.Featured != nil {
		q = q.Where("menu_items.featured = ?", *f.Featured)
	}

	order, ok := menuOrderings[f.Ordering]
	if !ok {
		order = "menu_items.id ASC"
	}
	return q.Order(order)
}

// MenuItems returns one page of menu items matching f.
func (r *CatalogRepository) MenuItems(ctx context.Context, f MenuFilter, p orm.PageRequest) ([]models.MenuItem, orm.Pagination, error) {
	var items []models.MenuItem
	page, err := r.menuQuery(ctx, f).CachePaginate(f.CacheKey(p), r.ttl, &items, p)
	return items, page, err
}

// AllMenuItems returns every menu item matching f, unpaginated.
func (r *CatalogRepository) AllMenuItems(ctx context.Context, f MenuFilter) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.menuQuery(ctx, f).Get(&items)
	return items, err
}

func (r *CatalogRepository) FindMenuItem(ctx context.Context, id uint) (models.MenuItem, error) {
	var m models.MenuItem
	err := orm.New(ctx, r.db).Preload("Category").Where("id = ?", id).First(&m)
	return m, err
}

func (r *CatalogRepository) CreateMenuItem(ctx context.Context, m *models.MenuItem) error {
	return r.db.WithContext(ctx).Omit("Category").Create(m).Error
}

func (r *CatalogRepository) SaveMenuItem(ctx context.Context, m *models.MenuItem) error {
	return r.db.WithContext(ctx).Omit("Category").Save(m).Error
}

// MenuItemOrdered reports whether any order line references the item.
func (r *CatalogRepository) MenuItemOrdered(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&n).Error
	return n > 0, err
}

// DeleteMenuItem removes the item and any cart lines holding it.
func (r *CatalogRepository) DeleteMenuItem(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("menu_item_id = ?", id).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.MenuItem{}, id).Error
	})
}
