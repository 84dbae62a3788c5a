// Package resource shapes models into API output.
//
// A transformer is a plain function from a model to a Map:
//
//	func Category(c models.Category) resource.Map {
//	    return resource.Map{"id": c.ID, "slug": c.Slug, "title": c.Title}
//	}
//
//	c.Success(resource.One(Category, cat))
//	c.Success(resource.Many(Category, cats))
package resource

import (
	"time"

	"github.com/shopspring/decimal"
)

// Map is the output of a transformer.
type Map = map[string]any

// Transformer converts one model into its API shape.
type Transformer[T any] func(T) Map

// One applies t to v.
func One[T any](t Transformer[T], v T) Map {
	return t(v)
}

// Many applies t to every item. The result is never nil, so an empty
// collection encodes as [] rather than null.
func Many[T any](t Transformer[T], items []T) []Map {
	out := make([]Map, 0, len(items))
	for _, it := range items {
		out = append(out, t(it))
	}
	return out
}

// Money renders an amount with exactly two decimals, e.g. "25.00".
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Date renders the calendar day of t as YYYY-MM-DD.
func Date(t time.Time) string {
	return t.Format(time.DateOnly)
}
