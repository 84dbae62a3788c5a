package seeders

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

func init() {
	Register("groups", SeedGroups)
}

// SeedGroups creates one group per managed role.
func SeedGroups(db *gorm.DB) error {
	for _, r := range rbac.Roles() {
		g := models.Group{Name: r.GroupName()}
		if err := db.Where(models.Group{Name: g.Name}).FirstOrCreate(&g).Error; err != nil {
			return err
		}
	}
	return nil
}
