package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/pkg/orm"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *CartRepository) WithTx(tx *gorm.DB) *CartRepository {
	return &CartRepository{db: tx}
}

// Lines returns the user's cart lines, oldest first, with menu items loaded.
func (r *CartRepository) Lines(ctx context.Context, userID uint) ([]models.Cart, error) {
	var lines []models.Cart
	err := orm.New(ctx, r.db).
		Preload("MenuItem.Category").
		Where("user_id = ?", userID).
		Order("id").
		Get(&lines)
	return lines, err
}

// Add inserts a new line. Lines are never merged.
func (r *CartRepository) Add(ctx context.Context, line *models.Cart) error {
	return r.db.WithContext(ctx).Omit("User", "MenuItem").Create(line).Error
}

// Clear removes every line the user owns and reports how many went.
func (r *CartRepository) Clear(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}

// DeleteLines removes exactly the given lines of userID and reports how
// many rows were removed.
func (r *CartRepository) DeleteLines(ctx context.Context, userID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Delete(&models.Cart{})
	return res.RowsAffected, res.Error
}
