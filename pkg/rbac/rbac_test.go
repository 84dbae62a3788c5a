package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

func TestEffectivePrecedence(t *testing.T) {
	cases := []struct {
		name string
		p    rbac.Principal
		want rbac.Capability
	}{
		{"customer", rbac.Principal{UserID: 1}, rbac.Customer},
		{"crew", rbac.Principal{UserID: 1, Roles: []rbac.Role{rbac.RoleDeliveryCrew}}, rbac.DeliveryCrew},
		{"manager", rbac.Principal{UserID: 1, Roles: []rbac.Role{rbac.RoleManager}}, rbac.Manager},
		{"manager and crew", rbac.Principal{UserID: 1, Roles: []rbac.Role{rbac.RoleDeliveryCrew, rbac.RoleManager}}, rbac.Manager},
		{"superuser", rbac.Principal{UserID: 1, IsSuperuser: true, Roles: []rbac.Role{rbac.RoleDeliveryCrew}}, rbac.Administrator},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.p.Effective())
		})
	}
}

func TestPredicates(t *testing.T) {
	admin := rbac.Principal{IsSuperuser: true}
	assert.True(t, admin.IsAdministrator())
	assert.False(t, admin.IsManager())
	assert.False(t, admin.IsCustomer())

	crew := rbac.Principal{Roles: []rbac.Role{rbac.RoleDeliveryCrew}}
	assert.True(t, crew.IsDeliveryCrew())
	assert.True(t, crew.IsStaff())

	customer := rbac.Principal{}
	assert.True(t, customer.IsCustomer())
	assert.True(t, customer.Has(rbac.Customer))
	assert.False(t, customer.HasAny(rbac.Administrator, rbac.Manager))
}

func TestParseRole(t *testing.T) {
	r, ok := rbac.ParseRole("delivery-crew")
	assert.True(t, ok)
	assert.Equal(t, "Delivery Crew", r.GroupName())

	_, ok = rbac.ParseRole("chef")
	assert.False(t, ok)

	r, ok = rbac.RoleFromGroup("Manager")
	assert.True(t, ok)
	assert.Equal(t, rbac.RoleManager, r)
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	gate := rbac.Require(rbac.Administrator, rbac.Manager)(ok)

	serve := func(p *rbac.Principal) int {
		req := httptest.NewRequest(http.MethodPost, "/category", nil)
		if p != nil {
			req = req.WithContext(rbac.WithPrincipal(req.Context(), *p))
		}
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&rbac.Principal{UserID: 1}))
	assert.Equal(t, http.StatusForbidden, serve(&rbac.Principal{UserID: 1, Roles: []rbac.Role{rbac.RoleDeliveryCrew}}))
	assert.Equal(t, http.StatusTeapot, serve(&rbac.Principal{UserID: 1, Roles: []rbac.Role{rbac.RoleManager}}))
	assert.Equal(t, http.StatusTeapot, serve(&rbac.Principal{UserID: 1, IsSuperuser: true}))
}
