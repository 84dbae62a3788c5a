package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/pkg/auth"
	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
	"github.com/shashiranjanraj/littlelemon/pkg/validate"
)

type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// errBadCredentials deliberately does not say which half was wrong.
var errBadCredentials = &BusinessRuleError{Message: "Unable to log in with provided credentials."}

type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(users *repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates an ordinary user with no roles.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	return s.CreateUser(ctx, in, false)
}

// CreateUser creates a user, optionally flagged as an administrator.
func (s *AuthService) CreateUser(ctx context.Context, in RegisterInput, superuser bool) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.User{}, &ValidationError{Fields: errs}
	}

	taken, err := s.users.UsernameTaken(ctx, in.Username)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, invalid("username", "A user with that username already exists.")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:    in.Username,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Password:    hash,
		IsSuperuser: superuser,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	logger.WithCtx(ctx).Info("user registered", "user_id", user.ID, "superuser", superuser)
	return user, nil
}

// Login checks credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return "", &ValidationError{Fields: errs}
	}

	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errBadCredentials
	}
	if err != nil {
		return "", err
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return "", errBadCredentials
	}

	return auth.GenerateToken(user.ID)
}

// Me loads the caller's user record.
func (s *AuthService) Me(ctx context.Context, p rbac.Principal) (models.User, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, notFound("user")
	}
	return user, err
}
