package migration_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/pkg/database"
	"github.com/shashiranjanraj/littlelemon/pkg/migration"
)

type createTable struct {
	table string
	fail  bool
}

func (m createTable) Up(db *gorm.DB) error {
	if err := db.Exec(fmt.Sprintf("CREATE TABLE %s (id integer PRIMARY KEY)", m.table)).Error; err != nil {
		return err
	}
	if m.fail {
		return errors.New("boom")
	}
	return nil
}

func (m createTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.table)
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// The registry is process wide, so the whole lifecycle runs in one test.
func TestRunnerBatches(t *testing.T) {
	db := openDB(t)
	runner := migration.New(db)

	migration.Register("20990101000000_create_tables_a", createTable{table: "tables_a"})
	migration.Register("20990101000001_create_tables_b", createTable{table: "tables_b"})

	applied, err := runner.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"20990101000000_create_tables_a", "20990101000001_create_tables_b"}, applied)
	assert.True(t, db.Migrator().HasTable("tables_a"))
	assert.True(t, db.Migrator().HasTable("tables_b"))

	applied, err = runner.Run()
	require.NoError(t, err)
	assert.Empty(t, applied, "nothing pending")

	migration.Register("20990101000002_create_tables_c", createTable{table: "tables_c"})
	applied, err = runner.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"20990101000002_create_tables_c"}, applied)

	status, err := runner.Status()
	require.NoError(t, err)
	assert.Equal(t, []migration.Status{
		{Name: "20990101000000_create_tables_a", Ran: true, Batch: 1},
		{Name: "20990101000001_create_tables_b", Ran: true, Batch: 1},
		{Name: "20990101000002_create_tables_c", Ran: true, Batch: 2},
	}, status)

	reverted, err := runner.Rollback()
	require.NoError(t, err)
	assert.Equal(t, []string{"20990101000002_create_tables_c"}, reverted, "only the latest batch")
	assert.False(t, db.Migrator().HasTable("tables_c"))
	assert.True(t, db.Migrator().HasTable("tables_b"))

	reverted, err = runner.Rollback()
	require.NoError(t, err)
	assert.Equal(t, []string{"20990101000001_create_tables_b", "20990101000000_create_tables_a"}, reverted)
	assert.False(t, db.Migrator().HasTable("tables_a"))

	applied, err = runner.Run()
	require.NoError(t, err)
	assert.Len(t, applied, 3)

	status, err = runner.Status()
	require.NoError(t, err)
	for _, s := range status {
		assert.Equal(t, 1, s.Batch, s.Name)
	}

	// A failing migration leaves neither its table nor a tracking row.
	migration.Register("20990101000003_create_tables_d", createTable{table: "tables_d", fail: true})
	applied, err = runner.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "20990101000003_create_tables_d up: boom")
	assert.Empty(t, applied)
	assert.False(t, db.Migrator().HasTable("tables_d"))

	status, err = runner.Status()
	require.NoError(t, err)
	require.Len(t, status, 4)
	assert.False(t, status[3].Ran)
}
