package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/internal/testdb"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

func TestRoleAddIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.principal(t, testdb.Superuser(t, e.db, "root"))
	testdb.User(t, e.db, "alice", rbac.RoleManager)

	_, err := e.roles.Add(ctx, admin, rbac.RoleManager, services.MembershipInput{Username: "alice"})
	require.NoError(t, err)

	members, err := e.roles.Members(ctx, admin, rbac.RoleManager)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].Username)
}

func TestRoleAddAndRemove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	manager := e.principal(t, testdb.User(t, e.db, "mario", rbac.RoleManager))
	bob := testdb.User(t, e.db, "bob")

	_, err := e.roles.Add(ctx, manager, rbac.RoleDeliveryCrew, services.MembershipInput{Username: " bob "})
	require.NoError(t, err)
	assert.True(t, e.principal(t, bob).IsDeliveryCrew())

	_, err = e.roles.Remove(ctx, manager, rbac.RoleDeliveryCrew, services.MembershipInput{Username: "bob"})
	require.NoError(t, err)
	assert.True(t, e.principal(t, bob).IsCustomer())

	_, err = e.roles.Remove(ctx, manager, rbac.RoleDeliveryCrew, services.MembershipInput{Username: "bob"})
	assert.NoError(t, err, "removing a non-member is a no-op")
}

func TestRoleErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	manager := e.principal(t, testdb.User(t, e.db, "mario", rbac.RoleManager))
	crew := e.principal(t, testdb.User(t, e.db, "dino", rbac.RoleDeliveryCrew))

	_, err := e.roles.Add(ctx, manager, rbac.RoleManager, services.MembershipInput{Username: "ghost"})
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = e.roles.Add(ctx, manager, rbac.RoleManager, services.MembershipInput{})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")

	_, err = e.roles.Add(ctx, crew, rbac.RoleManager, services.MembershipInput{Username: "dino"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = e.roles.Groups(ctx, crew)
	assert.ErrorIs(t, err, services.ErrForbidden)

	groups, err := e.roles.Groups(ctx, manager)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}
