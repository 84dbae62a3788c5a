// Package orm is a thin chainable wrapper over *gorm.DB that adds
// pagination, read-through caching and query timing.
package orm

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/pkg/metrics"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Cacher is the cache contract Query.Cache needs. pkg/cache satisfies it;
// the wiring lives in pkg/app so neither package imports the other.
type Cacher interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheStore is nil until the application kernel wires a cache in.
var CacheStore Cacher

// PageRequest is a bounded page/per-page pair.
type PageRequest struct {
	Page    int
	PerPage int
}

// NewPageRequest clamps page >= 1 and 1 <= perPage <= MaxPerPage.
func NewPageRequest(page, perPage int) PageRequest {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}

// Pagination is the metadata returned alongside a page of results.
type Pagination struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	LastPage int   `json:"last_page"`
}

// Query is linear: each method returns a new Query and the receiver should
// not be reused. Preloads are applied to row loads only, never to counts.
type Query struct {
	db       *gorm.DB
	preloads []preload
}

type preload struct {
	query string
	args  []interface{}
}

// New starts a query on db bound to ctx.
func New(ctx context.Context, db *gorm.DB) *Query {
	return &Query{db: db.WithContext(ctx)}
}

func (q *Query) with(db *gorm.DB) *Query {
	return &Query{db: db, preloads: q.preloads}
}

func (q *Query) Model(v interface{}) *Query {
	return q.with(q.db.Model(v))
}

func (q *Query) Where(query interface{}, args ...interface{}) *Query {
	return q.with(q.db.Where(query, args...))
}

func (q *Query) Joins(query string, args ...interface{}) *Query {
	return q.with(q.db.Joins(query, args...))
}

func (q *Query) Preload(query string, args ...interface{}) *Query {
	preloads := append(q.preloads[:len(q.preloads):len(q.preloads)], preload{query: query, args: args})
	return &Query{db: q.db, preloads: preloads}
}

func (q *Query) Order(value interface{}) *Query {
	return q.with(q.db.Order(value))
}

func (q *Query) loader() *gorm.DB {
	db := q.db
	for _, p := range q.preloads {
		db = db.Preload(p.query, p.args...)
	}
	return db
}

func (q *Query) Get(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.loader().Find(dest).Error
}

func (q *Query) First(dest interface{}) error {
	defer metrics.ObserveDBQuery("select", time.Now())
	return q.loader().First(dest).Error
}

// Paginate counts the matching rows and loads one page of them into dest.
func (q *Query) Paginate(dest interface{}, p PageRequest) (Pagination, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var total int64
	if err := q.db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Pagination{}, err
	}

	offset := (p.Page - 1) * p.PerPage
	if err := q.loader().Offset(offset).Limit(p.PerPage).Find(dest).Error; err != nil {
		return Pagination{}, err
	}

	last := int(math.Ceil(float64(total) / float64(p.PerPage)))
	if last < 1 {
		last = 1
	}
	return Pagination{Total: total, Page: p.Page, PerPage: p.PerPage, LastPage: last}, nil
}

// Cache loads dest from CacheStore under key, falling back to the database
// and populating the cache on a miss.
func (q *Query) Cache(key string, ttl time.Duration, dest interface{}) error {
	ctx := q.db.Statement.Context
	if CacheStore != nil && CacheStore.Get(ctx, key, dest) {
		return nil
	}

	if err := q.Get(dest); err != nil {
		return err
	}

	if CacheStore != nil {
		_ = CacheStore.Set(ctx, key, dest, ttl)
	}
	return nil
}

type cachedPage struct {
	Items      json.RawMessage `json:"items"`
	Pagination Pagination      `json:"pagination"`
}

// CachePaginate is Paginate behind CacheStore. The page of rows and its
// metadata are cached together under key.
func (q *Query) CachePaginate(key string, ttl time.Duration, dest interface{}, p PageRequest) (Pagination, error) {
	ctx := q.db.Statement.Context
	if CacheStore != nil {
		var hit cachedPage
		if CacheStore.Get(ctx, key, &hit) && json.Unmarshal(hit.Items, dest) == nil {
			return hit.Pagination, nil
		}
	}

	page, err := q.Paginate(dest, p)
	if err != nil {
		return Pagination{}, err
	}

	if CacheStore != nil {
		if raw, err := json.Marshal(dest); err == nil {
			_ = CacheStore.Set(ctx, key, cachedPage{Items: raw, Pagination: page}, ttl)
		}
	}
	return page, nil
}
