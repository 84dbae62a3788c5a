package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/pkg/migration"
)

func init() {
	migration.Register("20240301000000_create_littlelemon_tables", &CreateLittleLemonTables{})
}

// CreateLittleLemonTables creates the whole schema in one AutoMigrate call,
// parents before children. Later migrations must alter tables explicitly
// rather than AutoMigrate a model again: AutoMigrate follows relations and
// would rebuild the related SQLite tables.
type CreateLittleLemonTables struct{}

func (m *CreateLittleLemonTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Group{},
		&models.User{},
		&models.Category{},
		&models.MenuItem{},
		&models.Cart{},
		&models.Order{},
		&models.OrderItem{},
	)
}

func (m *CreateLittleLemonTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(
		&models.OrderItem{},
		&models.Order{},
		&models.Cart{},
		&models.MenuItem{},
		&models.Category{},
		"user_groups",
		&models.User{},
		&models.Group{},
	)
}
