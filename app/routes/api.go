// Package routes mounts the API.
package routes

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/controllers"
	appgraphql "github.com/shashiranjanraj/littlelemon/app/graphql"
	"github.com/shashiranjanraj/littlelemon/app/listeners"
	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/pkg/ctx"
	"github.com/shashiranjanraj/littlelemon/pkg/event"
	"github.com/shashiranjanraj/littlelemon/pkg/graphql"
	"github.com/shashiranjanraj/littlelemon/pkg/middleware"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
	"github.com/shashiranjanraj/littlelemon/pkg/router"
	"github.com/shashiranjanraj/littlelemon/pkg/sse"
	"github.com/shashiranjanraj/littlelemon/pkg/ws"
)

// Deps are the collaborators the routes are built from. Everything but DB
// may be nil; a nil transport leaves its feed route unmounted.
type Deps struct {
	DB     *gorm.DB
	Cache  services.Invalidator
	Bus    *event.Bus
	Hub    *ws.Hub
	Stream *sse.Broker
}

var (
	staff    = rbac.Require(rbac.Administrator, rbac.Manager, rbac.DeliveryCrew)
	managers = rbac.Require(rbac.Administrator, rbac.Manager)
	manager  = rbac.Require(rbac.Manager)
)

// RegisterAPI mounts every endpoint under /api and the GraphQL endpoint at
// /graphql.
func RegisterAPI(r *router.Router, d Deps) error {
	users := repositories.NewUserRepository(d.DB)
	catalog := services.NewCatalogService(repositories.NewCatalogRepository(d.DB), d.Cache)

	authC := controllers.NewAuthController(services.NewAuthService(users))
	catalogC := controllers.NewCatalogController(catalog)
	roleC := controllers.NewRoleController(services.NewRoleService(users))
	cartC := controllers.NewCartController(services.NewCartService(repositories.NewCartRepository(d.DB), catalog))
	orderC := controllers.NewOrderController(services.NewOrderService(d.DB, d.Bus))

	authenticated := middleware.Authenticate(users)

	api := r.Group("/api")

	// Identity
	api.Post("/auth/users", "auth.register", ctx.Wrap(authC.Register))
	api.Post("/auth/token/login", "auth.login", ctx.Wrap(authC.Login))
	api.Get("/auth/users/me", "auth.me", ctx.Wrap(authC.Me), authenticated)

	// Catalog: reads are public
	api.Get("/category", "category.index", ctx.Wrap(catalogC.Categories))
	api.Post("/category", "category.store", ctx.Wrap(catalogC.StoreCategory), authenticated, managers)
	api.Get("/menu-items", "menu-items.index", ctx.Wrap(catalogC.MenuItems))
	api.Post("/menu-items", "menu-items.store", ctx.Wrap(catalogC.StoreMenuItem), authenticated, managers)
	api.Get("/menu-items/{id}", "menu-items.show", ctx.Wrap(catalogC.ShowMenuItem))
	api.Put("/menu-items/{id}", "menu-items.update", ctx.Wrap(catalogC.UpdateMenuItem), authenticated, manager)
	api.Patch("/menu-items/{id}", "menu-items.patch", ctx.Wrap(catalogC.UpdateMenuItem), authenticated, manager)
	api.Delete("/menu-items/{id}", "menu-items.destroy", ctx.Wrap(catalogC.DestroyMenuItem), authenticated, manager)

	// Role membership
	groups := api.Group("/groups", authenticated, managers)
	groups.Get("/", "groups.index", ctx.Wrap(roleC.Groups))
	groups.Get("/{role}/users", "groups.members", ctx.Wrap(roleC.Members))
	groups.Post("/{role}/users", "groups.members.add", ctx.Wrap(roleC.Add))
	groups.Delete("/{role}/users", "groups.members.remove", ctx.Wrap(roleC.Remove))

	// Cart
	cart := api.Group("/cart/menu-items", authenticated)
	cart.Get("/", "cart.index", ctx.Wrap(cartC.Index))
	cart.Post("/", "cart.store", ctx.Wrap(cartC.Store))
	cart.Delete("/", "cart.clear", ctx.Wrap(cartC.Clear))

	// Orders
	orders := api.Group("/orders", authenticated)
	orders.Get("/", "orders.index", ctx.Wrap(orderC.Index))
	orders.Post("/", "orders.store", ctx.Wrap(orderC.Store))
	var transports []listeners.Publisher
	if d.Hub != nil {
		transports = append(transports, d.Hub)
		orders.Get("/feed", "orders.feed", func(w http.ResponseWriter, r *http.Request) {
			p, _ := rbac.FromCtx(r.Context())
			ws.Upgrade(w, r, d.Hub, p)
		}, staff)
	}
	if d.Stream != nil {
		transports = append(transports, d.Stream)
		orders.Get("/stream", "orders.stream", func(w http.ResponseWriter, r *http.Request) {
			p, _ := rbac.FromCtx(r.Context())
			d.Stream.Serve(w, r, p)
		}, staff)
	}
	if d.Bus != nil && len(transports) > 0 {
		listeners.RegisterOrderFeed(d.Bus, transports...)
	}
	orders.Get("/{id}", "orders.show", ctx.Wrap(orderC.Show))
	orders.Put("/{id}", "orders.update", ctx.Wrap(orderC.Update), staff)
	orders.Patch("/{id}", "orders.patch", ctx.Wrap(orderC.Update), staff)
	orders.Delete("/{id}", "orders.destroy", ctx.Wrap(orderC.Destroy), manager)

	// GraphQL
	schema, err := appgraphql.Schema(catalog)
	if err != nil {
		return err
	}
	r.Post("/graphql", "graphql", graphql.Handler(schema))
	return nil
}
