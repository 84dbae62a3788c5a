package models_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/shashiranjanraj/littlelemon/app/models"
)

// integerDigits is the number of digits left of the point that the column
// type "decimal(p,s)" can store.
func integerDigits(t *testing.T, model any, field string) int {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	f := s.LookUpField(field)
	require.NotNil(t, f, field)

	var precision, scale int
	_, err = fmt.Sscanf(string(f.DataType), "decimal(%d,%d)", &precision, &scale)
	require.NoError(t, err, f.DataType)
	require.Equal(t, 2, scale)
	return precision - scale
}

func TestMoneyColumnsHoldLargestAmounts(t *testing.T) {
	unit := decimal.RequireFromString("9999.99")
	line := unit.Mul(decimal.NewFromInt(1000))  // largest price at the largest quantity
	total := line.Mul(decimal.NewFromInt(1000)) // a thousand such lines

	cases := []struct {
		model any
		field string
		value decimal.Decimal
	}{
		{&models.MenuItem{}, "Price", unit},
		{&models.Cart{}, "UnitPrice", unit},
		{&models.Cart{}, "Price", line},
		{&models.OrderItem{}, "UnitPrice", unit},
		{&models.OrderItem{}, "Price", line},
		{&models.Order{}, "Total", total},
	}
	for _, c := range cases {
		digits := len(c.value.Truncate(0).String())
		assert.LessOrEqual(t, digits, integerDigits(t, c.model, c.field), "%T.%s must hold %s", c.model, c.field, c.value.StringFixed(2))
	}
}
