// Package rbac models the authenticated caller and gates routes on the
// capabilities it holds.
//
// A principal holds zero or more role memberships plus the superuser flag.
// Its effective role is a deterministic function of those, with precedence
//
//	Administrator > Manager > DeliveryCrew > Customer
//
// Route gating is a disjunction:
//
//	g.Post("/category", "category.store", h, rbac.Require(rbac.Administrator, rbac.Manager))
package rbac

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/metrics"
	"github.com/shashiranjanraj/littlelemon/pkg/response"
)

// Role is a named group membership.
type Role string

const (
	RoleManager      Role = "manager"
	RoleDeliveryCrew Role = "delivery-crew"
)

var groupNames = map[Role]string{
	RoleManager:      "Manager",
	RoleDeliveryCrew: "Delivery Crew",
}

// Roles lists every managed role.
func Roles() []Role { return []Role{RoleManager, RoleDeliveryCrew} }

// GroupName is the stored group name for r ("Manager", "Delivery Crew").
func (r Role) GroupName() string { return groupNames[r] }

// ParseRole maps a URL slug to a Role.
func ParseRole(slug string) (Role, bool) {
	r := Role(slug)
	_, ok := groupNames[r]
	return r, ok
}

// RoleFromGroup maps a stored group name back to a Role.
func RoleFromGroup(name string) (Role, bool) {
	for r, n := range groupNames {
		if n == name {
			return r, true
		}
	}
	return "", false
}

// Capability is one disjunct of a gate.
type Capability int

const (
	Customer Capability = iota
	DeliveryCrew
	Manager
	Administrator
)

func (c Capability) String() string {
	switch c {
	case Administrator:
		return "administrator"
	case Manager:
		return "manager"
	case DeliveryCrew:
		return "delivery-crew"
	default:
		return "customer"
	}
}

// ErrUnknownPrincipal means a token names a user that no longer exists.
var ErrUnknownPrincipal = errors.New("rbac: unknown principal")

// Principal is the authenticated caller.
type Principal struct {
	UserID      uint
	Username    string
	IsSuperuser bool
	Roles       []Role
}

func (p Principal) hasRole(r Role) bool { return slices.Contains(p.Roles, r) }

func (p Principal) IsAdministrator() bool { return p.IsSuperuser }
func (p Principal) IsManager() bool       { return p.hasRole(RoleManager) }
func (p Principal) IsDeliveryCrew() bool  { return p.hasRole(RoleDeliveryCrew) }

// IsCustomer is true when the principal holds no role and is not a superuser.
func (p Principal) IsCustomer() bool { return p.Effective() == Customer }

// Has reports whether p holds c. Every principal holds Customer.
func (p Principal) Has(c Capability) bool {
	switch c {
	case Administrator:
		return p.IsAdministrator()
	case Manager:
		return p.IsManager()
	case DeliveryCrew:
		return p.IsDeliveryCrew()
	default:
		return true
	}
}

// HasAny reports whether p holds at least one of caps.
func (p Principal) HasAny(caps ...Capability) bool {
	for _, c := range caps {
		if p.Has(c) {
			return true
		}
	}
	return false
}

// Effective is the highest-precedence capability p holds.
func (p Principal) Effective() Capability {
	switch {
	case p.IsAdministrator():
		return Administrator
	case p.IsManager():
		return Manager
	case p.IsDeliveryCrew():
		return DeliveryCrew
	default:
		return Customer
	}
}

// IsStaff is true for anyone above Customer.
func (p Principal) IsStaff() bool { return p.Effective() != Customer }

// ─── Context ──────────────────────────────────────────────────────────────────

type ctxKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromCtx returns the principal stored by the authentication middleware.
func FromCtx(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// ─── Middleware ───────────────────────────────────────────────────────────────

// Require admits a request whose principal holds any of caps; otherwise it
// answers 403 without saying which capability was missing. A request with
// no principal gets 401.
func Require(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromCtx(r.Context())
			if !ok {
				metrics.AccessDenied.WithLabelValues("unauthenticated").Inc()
				response.Unauthorized(w)
				return
			}
			if !p.HasAny(caps...) {
				metrics.AccessDenied.WithLabelValues("forbidden").Inc()
				logger.WithCtx(r.Context()).Warn("access denied",
					"user_id", p.UserID,
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
