package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/pkg/event"
	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/metrics"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

// Order events fired after the change commits. The payload is the
// models.Order as stored (OrderDeleted carries the last loaded state).
const (
	OrderPlaced  = "order.placed"
	OrderUpdated = "order.updated"
	OrderDeleted = "order.deleted"
)

const maxPlacementAttempts = 3

var errCartChanged = errors.New("cart changed during placement")

// NullableID tells an absent JSON key apart from an explicit null.
type NullableID struct {
	Set   bool
	Value *uint
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// PlaceOrderInput is the optional body of an order placement. Everything
// else (status, total, user, date) is derived.
type PlaceOrderInput struct {
	DeliveryCrew *uint `json:"delivery_crew"`
}

// UpdateOrderInput carries the two mutable order fields.
type UpdateOrderInput struct {
	Status       *int       `json:"status"`
	DeliveryCrew NullableID `json:"delivery_crew"`
}

type OrderService struct {
	db     *gorm.DB
	orders *repositories.OrderRepository
	carts  *repositories.CartRepository
	users  *repositories.UserRepository
	bus    *event.Bus
	now    func() time.Time
}

// NewOrderService builds the service. bus may be nil.
func NewOrderService(db *gorm.DB, bus *event.Bus) *OrderService {
	return &OrderService{
		db:     db,
		orders: repositories.NewOrderRepository(db),
		carts:  repositories.NewCartRepository(db),
		users:  repositories.NewUserRepository(db),
		bus:    bus,
		now:    time.Now,
	}
}

// ─── Placement ────────────────────────────────────────────────────────────────

// Place converts the caller's cart into an order in one transaction. Either
// every line becomes an order item and the cart is emptied, or nothing
// changes. A placement that loses a race with another placement of the same
// cart is retried; if the cart is then empty the caller gets the empty-cart
// error. The delivery crew membership is checked inside the transaction.
func (s *OrderService) Place(ctx context.Context, p rbac.Principal, in PlaceOrderInput) (models.Order, error) {
	crewID := in.DeliveryCrew
	if crewID != nil {
		if err := authorize(p, rbac.Administrator, rbac.Manager); err != nil {
			return models.Order{}, err
		}
	}

	var (
		order models.Order
		err   error
	)
	for attempt := 1; ; attempt++ {
		order, err = s.placeOnce(ctx, p.UserID, crewID)
		if !errors.Is(err, errCartChanged) {
			break
		}
		metrics.PlacementConflicts.Inc()
		logger.WithCtx(ctx).Warn("order placement conflict", "user_id", p.UserID, "attempt", attempt)
		if attempt == maxPlacementAttempts {
			return models.Order{}, fmt.Errorf("place order: %w", ErrConflict)
		}
	}
	if err != nil {
		return models.Order{}, err
	}

	metrics.OrdersPlaced.Inc()
	logger.WithCtx(ctx).Info("order placed",
		"user_id", p.UserID,
		"order_id", order.ID,
		"items", len(order.Items),
		"total", order.Total.StringFixed(2),
	)

	placed, err := s.orders.Find(ctx, order.ID, repositories.OrderScope{})
	if err != nil {
		return models.Order{}, fmt.Errorf("reload order %d: %w", order.ID, err)
	}
	s.fire(ctx, OrderPlaced, placed)
	return placed, nil
}

func (s *OrderService) placeOnce(ctx context.Context, userID uint, crewID *uint) (models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		lines, err := carts.Lines(ctx, userID)
		if err != nil {
			return fmt.Errorf("read cart: %w", err)
		}
		if len(lines) == 0 {
			return &BusinessRuleError{Message: "no item in cart"}
		}
		if crewID != nil {
			if err := checkCrew(ctx, s.users.WithTx(tx), *crewID); err != nil {
				return err
			}
		}

		ids := make([]uint, len(lines))
		items := make([]models.OrderItem, len(lines))
		for i, l := range lines {
			ids[i] = l.ID
			items[i] = models.OrderItem{
				MenuItemID: l.MenuItemID,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice,
				Price:      l.Price,
			}
		}

		order = models.Order{
			UserID:         userID,
			DeliveryCrewID: crewID,
			Status:         models.OrderPending,
			Date:           s.now().UTC(),
			Total:          Total(lines),
			Items:          items,
		}
		if err := s.orders.WithTx(tx).Create(ctx, &order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		removed, err := carts.DeleteLines(ctx, userID, ids)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if removed != int64(len(ids)) {
			return errCartChanged
		}
		return nil
	})
	return order, err
}

// ─── Lifecycle ────────────────────────────────────────────────────────────────

// visibility scopes what p may see: Administrator and Manager see every
// order, Delivery Crew the orders assigned to them, Customers their own.
func visibility(p rbac.Principal) repositories.OrderScope {
	id := p.UserID
	switch p.Effective() {
	case rbac.Administrator, rbac.Manager:
		return repositories.OrderScope{}
	case rbac.DeliveryCrew:
		return repositories.OrderScope{DeliveryCrewID: &id}
	default:
		return repositories.OrderScope{UserID: &id}
	}
}

// List returns the orders visible to p, newest first, optionally narrowed
// to one status.
func (s *OrderService) List(ctx context.Context, p rbac.Principal, status *models.OrderStatus) ([]models.Order, error) {
	scope := visibility(p)
	scope.Status = status
	return s.orders.List(ctx, scope)
}

// Get loads one order. An order outside p's visibility is reported as not
// found.
func (s *OrderService) Get(ctx context.Context, p rbac.Principal, id uint) (models.Order, error) {
	o, err := s.orders.Find(ctx, id, visibility(p))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Order{}, notFound("order")
	}
	return o, err
}

// Update changes status and delivery crew. Customers may not update any
// order, their own included; every other role may update any order. PUT
// (partial false) requires status and clears an omitted delivery crew.
func (s *OrderService) Update(ctx context.Context, p rbac.Principal, id uint, in UpdateOrderInput, partial bool) (models.Order, error) {
	if !p.IsStaff() {
		return models.Order{}, ErrForbidden
	}

	o, err := s.orders.Find(ctx, id, repositories.OrderScope{})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Order{}, notFound("order")
	}
	if err != nil {
		return models.Order{}, err
	}

	status := o.Status
	crewID := o.DeliveryCrewID

	errs := map[string]string{}
	switch {
	case in.Status != nil:
		if st := models.OrderStatus(*in.Status); st.Valid() {
			status = st
		} else {
			errs["status"] = fmt.Sprintf("\"%d\" is not a valid choice.", *in.Status)
		}
	case !partial:
		errs["status"] = "The status field is required."
	}

	switch {
	case in.DeliveryCrew.Set && in.DeliveryCrew.Value != nil:
		if err := checkCrew(ctx, s.users, *in.DeliveryCrew.Value); err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return models.Order{}, err
			}
			for k, v := range verr.Fields {
				errs[k] = v
			}
		}
		crewID = in.DeliveryCrew.Value
	case in.DeliveryCrew.Set || !partial:
		crewID = nil
	}

	if len(errs) > 0 {
		return models.Order{}, &ValidationError{Fields: errs}
	}

	if err := s.orders.UpdateFields(ctx, id, status, crewID); err != nil {
		return models.Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	if status != o.Status {
		metrics.OrderStatusChanges.WithLabelValues(status.String()).Inc()
	}
	logger.WithCtx(ctx).Info("order updated", "order_id", id, "status", status.String(), "by", p.UserID)

	updated, err := s.orders.Find(ctx, id, repositories.OrderScope{})
	if err != nil {
		return models.Order{}, fmt.Errorf("reload order %d: %w", id, err)
	}
	s.fire(ctx, OrderUpdated, updated)
	return updated, nil
}

// Delete removes an order. Manager only.
func (s *OrderService) Delete(ctx context.Context, p rbac.Principal, id uint) error {
	if err := authorize(p, rbac.Manager); err != nil {
		return err
	}

	o, err := s.orders.Find(ctx, id, repositories.OrderScope{})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("order")
	}
	if err != nil {
		return err
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	logger.WithCtx(ctx).Info("order deleted", "order_id", id, "by", p.UserID)
	s.fire(ctx, OrderDeleted, o)
	return nil
}

func checkCrew(ctx context.Context, users *repositories.UserRepository, userID uint) error {
	ok, err := users.IsMember(ctx, userID, rbac.RoleDeliveryCrew.GroupName())
	if err != nil {
		return err
	}
	if !ok {
		return invalid("delivery_crew", fmt.Sprintf("User %d is not a delivery crew member.", userID))
	}
	return nil
}

func (s *OrderService) fire(ctx context.Context, name string, o models.Order) {
	if s.bus != nil {
		s.bus.FireAsync(ctx, name, o)
	}
}
