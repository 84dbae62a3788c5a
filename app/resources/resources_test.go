package resources_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/resources"
	"github.com/shashiranjanraj/littlelemon/pkg/resource"
)

func TestOrderShape(t *testing.T) {
	crew := uint(4)
	order := models.Order{
		ID:             9,
		UserID:         2,
		DeliveryCrewID: &crew,
		Status:         models.OrderDelivered,
		Date:           time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC),
		Total:          decimal.RequireFromString("25"),
		Items: []models.OrderItem{{
			OrderID:    9,
			MenuItemID: 1,
			MenuItem:   models.MenuItem{Title: "Pasta"},
			Quantity:   2,
			UnitPrice:  decimal.RequireFromString("10"),
			Price:      decimal.RequireFromString("20"),
		}},
	}

	raw, err := json.Marshal(resources.Order(order))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 9, "user": 2, "delivery_crew": 4, "status": 1,
		"date": "2024-03-01", "total": "25.00",
		"orderitem": [{"order": 9, "menuitem": 1, "title": "Pasta", "quantity": 2, "unit_price": "10.00", "price": "20.00"}]
	}`, string(raw))
}

func TestUnassignedOrderAndEmptyCollections(t *testing.T) {
	raw, err := json.Marshal(resources.Order(models.Order{}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"delivery_crew":null`)
	assert.Contains(t, string(raw), `"orderitem":[]`)

	raw, err = json.Marshal(resource.Many(resources.Category, nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestCartLineNestsMenuItem(t *testing.T) {
	line := models.Cart{
		ID:        3,
		MenuItem:  models.MenuItem{ID: 1, Title: "Pasta", Price: decimal.RequireFromString("12.5"), CategoryID: 2},
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("12.5"),
		Price:     decimal.RequireFromString("25"),
	}
	got := resources.CartLine(line)
	assert.Equal(t, "25.00", got["price"])
	assert.Equal(t, "12.50", got["menuitem"].(resource.Map)["price"])
}
