package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/pkg/orm"
)

// OrderScope restricts which orders a listing returns. A nil field is not
// applied.
type OrderScope struct {
	UserID         *uint
	DeliveryCrewID *uint
	Status         *models.OrderStatus
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) query(ctx context.Context, s OrderScope) *orm.Query {
	q := orm.New(ctx, r.db).
		Model(&models.Order{}).
		Preload("User").
		Preload("DeliveryCrew").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.MenuItem")
	if s.UserID != nil {
		q = q.Where("orders.user_id = ?", *s.UserID)
	}
	if s.DeliveryCrewID != nil {
		q = q.Where("orders.delivery_crew_id = ?", *s.DeliveryCrewID)
	}
	if s.Status != nil {
		q = q.Where("orders.status = ?", *s.Status)
	}
	return q
}

// List returns every order in scope, newest first.
func (r *OrderRepository) List(ctx context.Context, s OrderScope) ([]models.Order, error) {
	var orders []models.Order
	err := r.query(ctx, s).Order("orders.id DESC").Get(&orders)
	return orders, err
}

// Find loads one order in scope with its items, owner and delivery crew.
func (r *OrderRepository) Find(ctx context.Context, id uint, s OrderScope) (models.Order, error) {
	var o models.Order
	err := r.query(ctx, s).Where("orders.id = ?", id).First(&o)
	return o, err
}

// Create inserts the order and then its items.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	db := r.db.WithContext(ctx)
	items := o.Items
	if err := db.Omit("User", "DeliveryCrew", "Items").Create(o).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = o.ID
	}
	if len(items) > 0 {
		if err := db.Omit("MenuItem").Create(&items).Error; err != nil {
			return err
		}
	}
	o.Items = items
	return nil
}

// UpdateFields writes status and delivery crew. A nil crew clears it.
func (r *OrderRepository) UpdateFields(ctx context.Context, id uint, status models.OrderStatus, crewID *uint) error {
	return r.db.WithContext(ctx).Model(&models.Order{ID: id}).
		Select("Status", "DeliveryCrewID").
		Updates(models.Order{Status: status, DeliveryCrewID: crewID}).Error
}

// Delete removes the order and its items.
func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
}
