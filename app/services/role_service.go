package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
	"github.com/shashiranjanraj/littlelemon/pkg/validate"
)

// MembershipInput names the user to add to or remove from a role.
type MembershipInput struct {
	Username string `json:"username" validate:"required,max=150"`
}

// RoleService manages Manager and Delivery Crew membership. Every operation
// requires Administrator or Manager.
type RoleService struct {
	users *repositories.UserRepository
}

func NewRoleService(users *repositories.UserRepository) *RoleService {
	return &RoleService{users: users}
}

var roleAdmins = []rbac.Capability{rbac.Administrator, rbac.Manager}

// Groups lists every group.
func (s *RoleService) Groups(ctx context.Context, p rbac.Principal) ([]models.Group, error) {
	if err := authorize(p, roleAdmins...); err != nil {
		return nil, err
	}
	return s.users.Groups(ctx)
}

// Members lists the users holding role.
func (s *RoleService) Members(ctx context.Context, p rbac.Principal, role rbac.Role) ([]models.User, error) {
	if err := authorize(p, roleAdmins...); err != nil {
		return nil, err
	}
	return s.users.Members(ctx, role.GroupName())
}

// Add puts the named user into role. Adding an existing member succeeds and
// changes nothing.
func (s *RoleService) Add(ctx context.Context, p rbac.Principal, role rbac.Role, in MembershipInput) (models.User, error) {
	user, group, err := s.resolve(ctx, p, role, in)
	if err != nil {
		return models.User{}, err
	}
	if err := s.users.AddMember(ctx, &user, &group); err != nil {
		return models.User{}, fmt.Errorf("add %s to %s: %w", user.Username, group.Name, err)
	}
	logger.WithCtx(ctx).Info("role granted", "username", user.Username, "group", group.Name, "by", p.UserID)
	return user, nil
}

// Remove takes the named user out of role. Removing a non-member succeeds
// and changes nothing.
func (s *RoleService) Remove(ctx context.Context, p rbac.Principal, role rbac.Role, in MembershipInput) (models.User, error) {
	user, group, err := s.resolve(ctx, p, role, in)
	if err != nil {
		return models.User{}, err
	}
	if err := s.users.RemoveMember(ctx, &user, &group); err != nil {
		return models.User{}, fmt.Errorf("remove %s from %s: %w", user.Username, group.Name, err)
	}
	logger.WithCtx(ctx).Info("role revoked", "username", user.Username, "group", group.Name, "by", p.UserID)
	return user, nil
}

func (s *RoleService) resolve(ctx context.Context, p rbac.Principal, role rbac.Role, in MembershipInput) (models.User, models.Group, error) {
	if err := authorize(p, roleAdmins...); err != nil {
		return models.User{}, models.Group{}, err
	}

	in.Username = strings.TrimSpace(in.Username)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.User{}, models.Group{}, &ValidationError{Fields: errs}
	}

	user, err := s.users.FindByUsername(ctx, in.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, models.Group{}, notFound("user")
	}
	if err != nil {
		return models.User{}, models.Group{}, err
	}

	group, err := s.users.FindGroup(ctx, role.GroupName())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, models.Group{}, notFound("group")
	}
	return user, group, err
}
