package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/internal/testdb"
	"github.com/shashiranjanraj/littlelemon/pkg/event"
	"github.com/shashiranjanraj/littlelemon/pkg/metrics"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

type OrderServiceSuite struct {
	suite.Suite
	env *env
	ctx context.Context

	customer models.User
	crew     models.User
	manager  models.User
	pasta    models.MenuItem
	salad    models.MenuItem
}

func TestOrderService(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	t := s.T()
	s.env = newEnv(t)
	s.ctx = context.Background()

	db := s.env.db
	s.customer = testdb.User(t, db, "alice")
	s.crew = testdb.User(t, db, "dino", rbac.RoleDeliveryCrew)
	s.manager = testdb.User(t, db, "mario", rbac.RoleManager)

	mains := testdb.Category(t, db, "mains", "Main Courses")
	s.pasta = testdb.MenuItem(t, db, mains, "Pasta", "10.00")
	s.salad = testdb.MenuItem(t, db, mains, "Greek Salad", "5.00")
}

func (s *OrderServiceSuite) p(u models.User) rbac.Principal {
	return s.env.principal(s.T(), u)
}

func (s *OrderServiceSuite) fillCart(u models.User) {
	s.env.addToCart(s.T(), s.p(u), s.pasta, 2)
	s.env.addToCart(s.T(), s.p(u), s.salad, 1)
}

func (s *OrderServiceSuite) TestPlaceCopiesCartIntoOrder() {
	s.fillCart(s.customer)

	order, err := s.env.orders.Place(s.ctx, s.p(s.customer), services.PlaceOrderInput{})
	s.Require().NoError(err)

	s.Equal("25.00", order.Total.StringFixed(2))
	s.Equal(models.OrderPending, order.Status)
	s.Equal(s.customer.ID, order.UserID)
	s.Nil(order.DeliveryCrewID)
	s.Require().Len(order.Items, 2)

	s.Equal(s.pasta.ID, order.Items[0].MenuItemID)
	s.Equal(2, order.Items[0].Quantity)
	s.Equal("10.00", order.Items[0].UnitPrice.StringFixed(2))
	s.Equal("20.00", order.Items[0].Price.StringFixed(2))

	s.Equal(s.salad.ID, order.Items[1].MenuItemID)
	s.Equal(1, order.Items[1].Quantity)
	s.Equal("5.00", order.Items[1].Price.StringFixed(2))

	lines, err := s.env.cart.Lines(s.ctx, s.p(s.customer))
	s.Require().NoError(err)
	s.Empty(lines)
}

func (s *OrderServiceSuite) TestPlaceEmptyCart() {
	_, err := s.env.orders.Place(s.ctx, s.p(s.customer), services.PlaceOrderInput{})

	var rule *services.BusinessRuleError
	s.Require().ErrorAs(err, &rule)
	s.Equal("no item in cart", rule.Message)
	s.Zero(s.env.count(s.T(), &models.Order{}))
}

func (s *OrderServiceSuite) TestPlaceLeavesOtherCartsAlone() {
	s.fillCart(s.customer)
	s.env.addToCart(s.T(), s.p(s.crew), s.pasta, 3)

	_, err := s.env.orders.Place(s.ctx, s.p(s.customer), services.PlaceOrderInput{})
	s.Require().NoError(err)

	lines, err := s.env.cart.Lines(s.ctx, s.p(s.crew))
	s.Require().NoError(err)
	s.Len(lines, 1)
}

func (s *OrderServiceSuite) TestOrderIsASnapshot() {
	s.fillCart(s.customer)
	order, err := s.env.orders.Place(s.ctx, s.p(s.customer), services.PlaceOrderInput{})
	s.Require().NoError(err)

	_, err = s.env.catalog.UpdateMenuItem(s.ctx, s.p(s.manager), s.pasta.ID,
		services.MenuItemInput{Price: ptr(decimal.RequireFromString("99.00"))}, true)
	s.Require().NoError(err)
	s.env.addToCart(s.T(), s.p(s.customer), s.pasta, 5)

	again, err := s.env.orders.Get(s.ctx, s.p(s.customer), order.ID)
	s.Require().NoError(err)
	s.Equal("25.00", again.Total.StringFixed(2))
	s.Require().Len(again.Items, 2)
	s.Equal("10.00", again.Items[0].UnitPrice.StringFixed(2))
}

func (s *OrderServiceSuite) TestConcurrentPlacementNeverDoubleCounts() {
	s.fillCart(s.customer)
	p := s.p(s.customer)

	const callers = 5
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		placed int
		empty  int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.env.orders.Place(s.ctx, p, services.PlaceOrderInput{})
			var rule *services.BusinessRuleError
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.As(err, &rule):
				empty++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, placed)
	s.Equal(callers-1, empty)
	s.Equal(int64(1), s.env.count(s.T(), &models.Order{}))
	s.Equal(int64(2), s.env.count(s.T(), &models.OrderItem{}))
	s.Zero(s.env.count(s.T(), &models.Cart{}))
}

func (s *OrderServiceSuite) TestPlacementRetriesWhenCartChangesUnderneath() {
	s.fillCart(s.customer)
	lines, err := s.env.cart.Lines(s.ctx, s.p(s.customer))
	s.Require().NoError(err)
	stolen := lines[0].ID

	// The first cart delete of the placement finds one line already gone,
	// as if a concurrent placement had consumed it.
	var once sync.Once
	s.Require().NoError(s.env.db.Callback().Delete().Before("gorm:delete").Register("test:steal_line", func(tx *gorm.DB) {
		if tx.Statement.Table != "carts" {
			return
		}
		once.Do(func() {
			tx.Session(&gorm.Session{NewDB: true}).Exec("DELETE FROM carts WHERE id = ?", stolen)
		})
	}))

	before := testutil.ToFloat64(metrics.PlacementConflicts)
	order, err := s.env.orders.Place(s.ctx, s.p(s.customer), services.PlaceOrderInput{})
	s.Require().NoError(err)

	s.Equal(before+1, testutil.ToFloat64(metrics.PlacementConflicts))
	s.Len(order.Items, 2, "the rolled back attempt must leave the cart untouched")
	s.Equal("25.00", order.Total.StringFixed(2))
	s.Equal(int64(1), s.env.count(s.T(), &models.Order{}))
}

func (s *OrderServiceSuite) TestPlaceWithDeliveryCrew() {
	s.fillCart(s.customer)
	_, err := s.env.orders.Place(s.ctx, s.p(s.customer), services.PlaceOrderInput{DeliveryCrew: &s.crew.ID})
	s.ErrorIs(err, services.ErrForbidden)

	s.fillCart(s.manager)
	_, err = s.env.orders.Place(s.ctx, s.p(s.manager), services.PlaceOrderInput{DeliveryCrew: &s.customer.ID})
	var verr *services.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "delivery_crew")

	order, err := s.env.orders.Place(s.ctx, s.p(s.manager), services.PlaceOrderInput{DeliveryCrew: &s.crew.ID})
	s.Require().NoError(err)
	s.Require().NotNil(order.DeliveryCrewID)
	s.Equal(s.crew.ID, *order.DeliveryCrewID)
	s.Equal("dino", order.DeliveryCrew.Username)
}

func (s *OrderServiceSuite) TestPlaceRechecksCrewInsideTransaction() {
	s.fillCart(s.manager)

	// The crew member loses the role once the placement transaction has
	// started reading the cart.
	var once sync.Once
	s.Require().NoError(s.env.db.Callback().Query().Before("gorm:query").Register("test:demote_crew", func(tx *gorm.DB) {
		if tx.Statement.Table != "carts" {
			return
		}
		once.Do(func() {
			tx.Session(&gorm.Session{NewDB: true}).Exec("DELETE FROM user_groups WHERE user_id = ?", s.crew.ID)
		})
	}))

	_, err := s.env.orders.Place(s.ctx, s.p(s.manager), services.PlaceOrderInput{DeliveryCrew: &s.crew.ID})
	var verr *services.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "delivery_crew")
	s.Zero(s.env.count(s.T(), &models.Order{}))
	s.Equal(int64(2), s.env.count(s.T(), &models.Cart{}))
}

func (s *OrderServiceSuite) TestPlaceAtLargestAmounts() {
	mains := testdb.Category(s.T(), s.env.db, "specials", "Specials")
	caviar := testdb.MenuItem(s.T(), s.env.db, mains, "Caviar", "9999.99")
	p := s.p(s.customer)

	line := s.env.addToCart(s.T(), p, caviar, 1000)
	s.Equal("9999990.00", line.Price.StringFixed(2))
	s.env.addToCart(s.T(), p, caviar, 1000)

	order, err := s.env.orders.Place(s.ctx, p, services.PlaceOrderInput{})
	s.Require().NoError(err)
	s.Equal("19999980.00", order.Total.StringFixed(2))
	s.Require().Len(order.Items, 2)
	s.Equal("9999990.00", order.Items[1].Price.StringFixed(2))
}

func (s *OrderServiceSuite) place(u models.User, crew *uint) models.Order {
	p := s.p(u)
	s.env.addToCart(s.T(), p, s.salad, 1)
	order, err := s.env.orders.Place(s.ctx, p, services.PlaceOrderInput{DeliveryCrew: crew})
	s.Require().NoError(err)
	return order
}

func (s *OrderServiceSuite) ids(orders []models.Order) []uint {
	out := make([]uint, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func (s *OrderServiceSuite) TestListFollowsEffectiveRole() {
	own := s.place(s.customer, nil)
	assigned := s.place(s.manager, &s.crew.ID)
	other := s.place(s.crew, nil)

	list := func(u models.User) []uint {
		orders, err := s.env.orders.List(s.ctx, s.p(u), nil)
		s.Require().NoError(err)
		return s.ids(orders)
	}

	s.Equal([]uint{own.ID}, list(s.customer))
	s.Equal([]uint{assigned.ID}, list(s.crew))
	s.Equal([]uint{other.ID, assigned.ID, own.ID}, list(s.manager))

	both := testdb.User(s.T(), s.env.db, "luigi", rbac.RoleManager, rbac.RoleDeliveryCrew)
	s.Len(list(both), 3, "manager precedes delivery crew")

	admin := testdb.Superuser(s.T(), s.env.db, "root")
	s.Len(list(admin), 3)

	delivered := models.OrderDelivered
	orders, err := s.env.orders.List(s.ctx, s.p(s.manager), &delivered)
	s.Require().NoError(err)
	s.Empty(orders)
}

func (s *OrderServiceSuite) TestGetOutsideVisibilityIsNotFound() {
	order := s.place(s.customer, nil)
	stranger := testdb.User(s.T(), s.env.db, "bob")

	_, err := s.env.orders.Get(s.ctx, s.p(stranger), order.ID)
	s.ErrorIs(err, services.ErrNotFound)

	_, err = s.env.orders.Get(s.ctx, s.p(s.crew), order.ID)
	s.ErrorIs(err, services.ErrNotFound)

	got, err := s.env.orders.Get(s.ctx, s.p(s.manager), order.ID)
	s.Require().NoError(err)
	s.Equal(order.ID, got.ID)
}

func (s *OrderServiceSuite) TestCustomerCannotUpdateOwnOrder() {
	order := s.place(s.customer, nil)

	_, err := s.env.orders.Update(s.ctx, s.p(s.customer), order.ID,
		services.UpdateOrderInput{Status: ptr(1)}, true)
	s.ErrorIs(err, services.ErrForbidden)
}

func (s *OrderServiceSuite) TestStaffUpdatesStatusAndCrew() {
	order := s.place(s.customer, nil)

	updated, err := s.env.orders.Update(s.ctx, s.p(s.manager), order.ID, services.UpdateOrderInput{
		DeliveryCrew: services.NullableID{Set: true, Value: &s.crew.ID},
	}, true)
	s.Require().NoError(err)
	s.Equal(models.OrderPending, updated.Status)
	s.Require().NotNil(updated.DeliveryCrewID)

	updated, err = s.env.orders.Update(s.ctx, s.p(s.crew), order.ID,
		services.UpdateOrderInput{Status: ptr(1)}, true)
	s.Require().NoError(err)
	s.Equal(models.OrderDelivered, updated.Status)
	s.Require().NotNil(updated.DeliveryCrewID, "PATCH keeps the omitted crew")
	s.Equal(order.Total.String(), updated.Total.String())

	updated, err = s.env.orders.Update(s.ctx, s.p(s.manager), order.ID,
		services.UpdateOrderInput{Status: ptr(0)}, false)
	s.Require().NoError(err)
	s.Nil(updated.DeliveryCrewID, "PUT clears an omitted crew")
}

func (s *OrderServiceSuite) TestUpdateValidation() {
	order := s.place(s.customer, nil)

	_, err := s.env.orders.Update(s.ctx, s.p(s.manager), order.ID, services.UpdateOrderInput{}, false)
	var verr *services.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "status")

	_, err = s.env.orders.Update(s.ctx, s.p(s.manager), order.ID, services.UpdateOrderInput{
		Status:       ptr(7),
		DeliveryCrew: services.NullableID{Set: true, Value: &s.customer.ID},
	}, true)
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "status")
	s.Contains(verr.Fields, "delivery_crew")

	_, err = s.env.orders.Update(s.ctx, s.p(s.manager), 9999, services.UpdateOrderInput{Status: ptr(1)}, true)
	s.ErrorIs(err, services.ErrNotFound)
}

func (s *OrderServiceSuite) TestDeleteIsManagerOnly() {
	order := s.place(s.customer, nil)

	s.ErrorIs(s.env.orders.Delete(s.ctx, s.p(s.crew), order.ID), services.ErrForbidden)
	s.ErrorIs(s.env.orders.Delete(s.ctx, s.p(testdb.Superuser(s.T(), s.env.db, "root")), order.ID), services.ErrForbidden)

	s.Require().NoError(s.env.orders.Delete(s.ctx, s.p(s.manager), order.ID))
	s.Zero(s.env.count(s.T(), &models.Order{}))
	s.Zero(s.env.count(s.T(), &models.OrderItem{}))

	s.ErrorIs(s.env.orders.Delete(s.ctx, s.p(s.manager), order.ID), services.ErrNotFound)
}

func TestOrderEventsFireAfterCommit(t *testing.T) {
	e := newEnv(t)
	got := make(chan event.Event, 1)
	e.bus.Listen(services.OrderPlaced, func(_ context.Context, ev event.Event) { got <- ev })

	u := testdb.User(t, e.db, "alice")
	item := testdb.MenuItem(t, e.db, testdb.Category(t, e.db, "mains", "Mains"), "Pasta", "10.00")
	e.addToCart(t, e.principal(t, u), item, 1)

	order, err := e.orders.Place(context.Background(), e.principal(t, u), services.PlaceOrderInput{})
	require.NoError(t, err)

	select {
	case ev := <-got:
		placed, ok := ev.Payload.(models.Order)
		require.True(t, ok)
		assert.Equal(t, order.ID, placed.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("order.placed was not fired")
	}
}
