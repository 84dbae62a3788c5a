package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is one pending line in a user's cart. Lines are never merged:
// adding the same menu item twice yields two lines.
type Cart struct {
	ID         uint            `gorm:"primaryKey"`
	UserID     uint            `gorm:"index;not null"`
	User       User            `gorm:"constraint:OnDelete:CASCADE"`
	MenuItemID uint            `gorm:"index;not null"`
	MenuItem   MenuItem        `gorm:"constraint:OnDelete:CASCADE"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time
}

type OrderStatus int

const (
	OrderPending   OrderStatus = 0
	OrderDelivered OrderStatus = 1
)

func (s OrderStatus) Valid() bool {
	return s == OrderPending || s == OrderDelivered
}

func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "pending"
	case OrderDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// Order is the immutable snapshot of a cart at placement time. Only
// Status and DeliveryCrewID change afterwards.
type Order struct {
	ID             uint            `gorm:"primaryKey"`
	UserID         uint            `gorm:"index;not null"`
	User           User            `gorm:"constraint:OnDelete:RESTRICT"`
	DeliveryCrewID *uint           `gorm:"index"`
	DeliveryCrew   *User           `gorm:"constraint:OnDelete:SET NULL"`
	Status         OrderStatus     `gorm:"index;not null;default:0"`
	Date           time.Time       `gorm:"index;not null"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Items          []OrderItem     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItem is one cart line copied into an order.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey"`
	OrderID    uint            `gorm:"index;not null"`
	MenuItemID uint            `gorm:"index;not null"`
	MenuItem   MenuItem        `gorm:"constraint:OnDelete:RESTRICT"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}
