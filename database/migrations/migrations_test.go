package migrations_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/littlelemon/app/models"
	_ "github.com/shashiranjanraj/littlelemon/database/migrations"
	"github.com/shashiranjanraj/littlelemon/database/seeders"
	"github.com/shashiranjanraj/littlelemon/pkg/database"
	"github.com/shashiranjanraj/littlelemon/pkg/migration"
)

var tables = []string{
	"auth_groups", "users", "user_groups",
	"categories", "menu_items", "carts", "orders", "order_items",
}

func TestSchemaUpDownUp(t *testing.T) {
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	runner := migration.New(db)

	applied, err := runner.Run()
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	for _, table := range tables {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	status, err := runner.Status()
	require.NoError(t, err)
	for _, s := range status {
		assert.True(t, s.Ran, s.Name)
		assert.Equal(t, 1, s.Batch, s.Name)
	}

	reverted, err := runner.Rollback()
	require.NoError(t, err)
	assert.ElementsMatch(t, applied, reverted)
	for _, table := range tables {
		assert.False(t, db.Migrator().HasTable(table), table)
	}

	_, err = runner.Run()
	require.NoError(t, err)
	for _, table := range tables {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	require.NoError(t, seeders.SeedGroups(db))
	require.NoError(t, seeders.SeedCatalog(db))

	var items int64
	require.NoError(t, db.Model(&models.MenuItem{}).Count(&items).Error)
	assert.Positive(t, items)
}
