package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/littlelemon/app/models"
	"github.com/shashiranjanraj/littlelemon/app/repositories"
	"github.com/shashiranjanraj/littlelemon/app/services"
	"github.com/shashiranjanraj/littlelemon/config"
	"github.com/shashiranjanraj/littlelemon/pkg/database"
	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

// userCreateCmd creates an account from the command line, which is the only
// way to make an Administrator.
func userCreateCmd() *cobra.Command {
	var (
		in        services.RegisterInput
		superuser bool
		roles     []string
	)

	cmd := &cobra.Command{
		Use:   "user:create",
		Short: "Create a user, optionally a superuser or a role member",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]rbac.Role, 0, len(roles))
			for _, slug := range roles {
				r, ok := rbac.ParseRole(slug)
				if !ok {
					return fmt.Errorf("unknown role %q (want manager or delivery-crew)", slug)
				}
				parsed = append(parsed, r)
			}

			if err := config.Load(); err != nil {
				return err
			}
			db, err := database.Connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			ctx := cmd.Context()
			users := repositories.NewUserRepository(db)
			user, err := services.NewAuthService(users).CreateUser(ctx, in, superuser)
			if err != nil {
				var verr *services.ValidationError
				if errors.As(err, &verr) {
					for field, msg := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
					}
				}
				return err
			}

			if err := joinRoles(ctx, users, &user, parsed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %q (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Username, "username", "", "login name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Password, "password", "", "password, 8 to 72 characters")
	f.BoolVar(&superuser, "superuser", false, "grant the Administrator role")
	f.StringSliceVar(&roles, "role", nil, "role to join: manager or delivery-crew (repeatable)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func joinRoles(ctx context.Context, users *repositories.UserRepository, user *models.User, roles []rbac.Role) error {
	for _, r := range roles {
		group, err := users.FindGroup(ctx, r.GroupName())
		if err != nil {
			return fmt.Errorf("group %q: %w (run the seed command first)", r.GroupName(), err)
		}
		if err := users.AddMember(ctx, user, &group); err != nil {
			return err
		}
	}
	return nil
}
