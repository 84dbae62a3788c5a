// Package testdb gives tests a private, fully migrated in-memory SQLite
// database plus a few fixture helpers.
package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	_ "github.com/shashiranjanraj/littlelemon/database/migrations"
	"github.com/shashiranjanraj/littlelemon/database/seeders"
	"github.com/shashiranjanraj/littlelemon/pkg/auth"
	"github.com/shashiranjanraj/littlelemon/pkg/database"
	"github.com/shashiranjanraj/littlelemon/pkg/migration"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

// New opens a fresh database with every migration applied and the role
// groups seeded. It is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db).Run()
	require.NoError(t, err)
	require.NoError(t, seeders.SeedGroups(db))

	return db
}

// User creates a user with password "password" and the given roles.
func User(t testing.TB, db *gorm.DB, username string, roles ...rbac.Role) models.User {
	t.Helper()

	hash, err := auth.HashPassword("password")
	require.NoError(t, err)

	u := models.User{
		Username: username,
		Email:    username + "@littlelemon.test",
		Password: hash,
	}
	require.NoError(t, db.Create(&u).Error)

	for _, r := range roles {
		var g models.Group
		require.NoError(t, db.Where("name = ?", r.GroupName()).First(&g).Error)
		require.NoError(t, db.Model(&u).Association("Groups").Append(&g))
	}
	return u
}

// Superuser creates an administrator.
func Superuser(t testing.TB, db *gorm.DB, username string) models.User {
	t.Helper()
	u := User(t, db, username)
	require.NoError(t, db.Model(&u).Update("is_superuser", true).Error)
	u.IsSuperuser = true
	return u
}

// Principal builds the rbac view of u.
func Principal(u models.User, roles ...rbac.Role) rbac.Principal {
	return rbac.Principal{UserID: u.ID, Username: u.Username, IsSuperuser: u.IsSuperuser, Roles: roles}
}

// Category creates a category.
func Category(t testing.TB, db *gorm.DB, slug, title string) models.Category {
	t.Helper()
	c := models.Category{Slug: slug, Title: title}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// MenuItem creates a menu item in cat priced at price (e.g. "10.00").
func MenuItem(t testing.TB, db *gorm.DB, cat models.Category, title, price string) models.MenuItem {
	t.Helper()
	m := models.MenuItem{
		Title:      title,
		Price:      decimal.RequireFromString(price),
		CategoryID: cat.ID,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}
