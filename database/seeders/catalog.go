package seeders

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
)

func init() {
	Register("catalog", SeedCatalog)
}

type seedItem struct {
	title    string
	price    string
	featured bool
}

var sampleCatalog = []struct {
	category models.Category
	items    []seedItem
}{
	{
		category: models.Category{Slug: "appetizers", Title: "Appetizers"},
		items: []seedItem{
			{"Bruschetta", "5.99", true},
			{"Greek Salad", "12.99", true},
		},
	},
	{
		category: models.Category{Slug: "mains", Title: "Main Courses"},
		items: []seedItem{
			{"Grilled Fish", "20.00", false},
			{"Pasta", "18.99", false},
		},
	},
	{
		category: models.Category{Slug: "desserts", Title: "Desserts"},
		items: []seedItem{
			{"Lemon Dessert", "4.99", true},
		},
	},
}

// SeedCatalog inserts the sample menu, skipping rows that already exist.
func SeedCatalog(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range sampleCatalog {
			cat := entry.category
			if err := tx.Where(models.Category{Slug: cat.Slug}).Attrs(models.Category{Title: cat.Title}).
				FirstOrCreate(&cat).Error; err != nil {
				return err
			}

			for _, it := range entry.items {
				item := models.MenuItem{
					Title:      it.title,
					Price:      decimal.RequireFromString(it.price),
					Featured:   it.featured,
					CategoryID: cat.ID,
				}
				if err := tx.Where("title = ? AND category_id = ?", item.Title, cat.ID).
					FirstOrCreate(&item).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
