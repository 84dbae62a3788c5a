// Package repositories is the persistence layer: one repository per
// aggregate, each bound to a *gorm.DB (or a transaction) at construction.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/pkg/orm"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

// UserRepository handles users, groups and memberships.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := orm.New(ctx, r.db).Where("id = ?", id).First(&user)
	return user, err
}

// FindByUsername looks up a user by their unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := orm.New(ctx, r.db).Where("username = ?", username).First(&user)
	return user, err
}

// UsernameTaken reports whether username is already registered.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Principal resolves userID to its current memberships. It implements
// middleware.PrincipalProvider.
func (r *UserRepository) Principal(ctx context.Context, userID uint) (rbac.Principal, error) {
	var user models.User
	err := orm.New(ctx, r.db).Preload("Groups").Where("id = ?", userID).First(&user)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rbac.Principal{}, rbac.ErrUnknownPrincipal
	}
	if err != nil {
		return rbac.Principal{}, fmt.Errorf("load principal %d: %w", userID, err)
	}

	p := rbac.Principal{UserID: user.ID, Username: user.Username, IsSuperuser: user.IsSuperuser}
	for _, name := range user.GroupNames() {
		if role, ok := rbac.RoleFromGroup(name); ok {
			p.Roles = append(p.Roles, role)
		}
	}
	return p, nil
}

// ─── Groups ───────────────────────────────────────────────────────────────────

// Groups lists every group ordered by id.
func (r *UserRepository) Groups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := orm.New(ctx, r.db).Order("id").Get(&groups)
	return groups, err
}

// FindGroup looks up a group by name.
func (r *UserRepository) FindGroup(ctx context.Context, name string) (models.Group, error) {
	var g models.Group
	err := orm.New(ctx, r.db).Where("name = ?", name).First(&g)
	return g, err
}

// Members lists the users in the named group, ordered by id.
func (r *UserRepository) Members(ctx context.Context, groupName string) ([]models.User, error) {
	var users []models.User
	err := orm.New(ctx, r.db).
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Joins("JOIN auth_groups ON auth_groups.id = user_groups.group_id").
		Where("auth_groups.name = ?", groupName).
		Order("users.id").
		Get(&users)
	return users, err
}

// IsMember reports whether userID belongs to the named group.
func (r *UserRepository) IsMember(ctx context.Context, userID uint, groupName string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("user_groups").
		Joins("JOIN auth_groups ON auth_groups.id = user_groups.group_id").
		Where("user_groups.user_id = ? AND auth_groups.name = ?", userID, groupName).
		Count(&n).Error
	return n > 0, err
}

// AddMember puts user into group. Adding an existing member is a no-op.
func (r *UserRepository) AddMember(ctx context.Context, user *models.User, group *models.Group) error {
	return r.db.WithContext(ctx).Model(user).Association("Groups").Append(group)
}

// RemoveMember takes user out of group. Removing a non-member is a no-op.
func (r *UserRepository) RemoveMember(ctx context.Context, user *models.User, group *models.Group) error {
	return r.db.WithContext(ctx).Model(user).Association("Groups").Delete(group)
}
