package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/internal/testdb"
	"github.com/shashiranjanraj/littlelemon/pkg/event"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

type env struct {
	db      *gorm.DB
	bus     *event.Bus
	users   *repositories.UserRepository
	roles   *services.RoleService
	catalog *services.CatalogService
	cart    *services.CartService
	orders  *services.OrderService
	auth    *services.AuthService
}

func newEnv(t testing.TB) *env {
	t.Helper()
	db := testdb.New(t)
	bus := event.NewBus()
	users := repositories.NewUserRepository(db)
	catalog := services.NewCatalogService(repositories.NewCatalogRepository(db), nil)
	return &env{
		db:      db,
		bus:     bus,
		users:   users,
		roles:   services.NewRoleService(users),
		catalog: catalog,
		cart:    services.NewCartService(repositories.NewCartRepository(db), catalog),
		orders:  services.NewOrderService(db, bus),
		auth:    services.NewAuthService(users),
	}
}

// principal resolves u the way the auth middleware does.
func (e *env) principal(t testing.TB, u models.User) rbac.Principal {
	t.Helper()
	p, err := e.users.Principal(context.Background(), u.ID)
	require.NoError(t, err)
	return p
}

func (e *env) addToCart(t testing.TB, p rbac.Principal, item models.MenuItem, qty int) models.Cart {
	t.Helper()
	line, err := e.cart.Add(context.Background(), p, services.AddToCartInput{MenuItemID: item.ID, Quantity: qty})
	require.NoError(t, err)
	return line
}

func (e *env) count(t testing.TB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func ptr[T any](v T) *T { return &v }
