package controllers

import (
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/app/resources"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/pkg/ctx"
	"github.com/shashiranjanraj/littlelemon/pkg/resource"
)

type CatalogController struct {
	service *services.CatalogService
}

func NewCatalogController(service *services.CatalogService) *CatalogController {
	return &CatalogController{service: service}
}

// ─── Categories ───────────────────────────────────────────────────────────────

func (cc *CatalogController) Categories(c *ctx.Context) {
	cats, err := cc.service.Categories(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.Category, cats))
}

func (cc *CatalogController) StoreCategory(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in services.CategoryInput
	if !c.BindJSON(&in) {
		return
	}
	cat, err := cc.service.CreateCategory(c.Context(), p, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(resources.Category(cat))
}

// ─── Menu items ───────────────────────────────────────────────────────────────

// MenuItems handles GET /menu-items with ?category, ?search, ?featured,
// ?ordering and ?page/?perpage.
func (cc *CatalogController) MenuItems(c *ctx.Context) {
	f := repositories.MenuFilter{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
		Ordering:     c.Query("ordering"),
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			c.ValidationError(map[string]string{"featured": "Must be a valid boolean."})
			return
		}
		f.Featured = &featured
	}

	items, page, err := cc.service.MenuItems(c.Context(), f, c.Page())
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(resource.Many(resources.MenuItem, items), page)
}

func (cc *CatalogController) ShowMenuItem(c *ctx.Context) {
	itemID, ok := id(c)
	if !ok {
		return
	}
	item, err := cc.service.MenuItem(c.Context(), itemID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.MenuItem(item))
}

func (cc *CatalogController) StoreMenuItem(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var in services.MenuItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := cc.service.CreateMenuItem(c.Context(), p, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(resources.MenuItem(item))
}

// UpdateMenuItem serves both PUT and PATCH.
func (cc *CatalogController) UpdateMenuItem(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	itemID, ok := id(c)
	if !ok {
		return
	}
	var in services.MenuItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := cc.service.UpdateMenuItem(c.Context(), p, itemID, in, c.Method() == http.MethodPatch)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.MenuItem(item))
}

func (cc *CatalogController) DestroyMenuItem(c *ctx.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	itemID, ok := id(c)
	if !ok {
		return
	}
	if err := cc.service.DeleteMenuItem(c.Context(), p, itemID); err != nil {
		fail(c, err)
		return
	}
	c.NoContent()
}
