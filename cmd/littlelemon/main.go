// Command littlelemon serves the Little Lemon ordering API and manages its
// database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/littlelemon/app/routes"
	"github.com/shashiranjanraj/littlelemon/pkg/app"
	"github.com/shashiranjanraj/littlelemon/pkg/router"

	// Register migrations and seeders through their init funcs.
	_ "github.com/shashiranjanraj/littlelemon/database/migrations"
	_ "github.com/shashiranjanraj/littlelemon/database/seeders"
)

var rootCmd = &cobra.Command{
	Use:          "littlelemon",
	Short:        "Little Lemon restaurant ordering API",
	SilenceUsage: true,
}

func main() {
	application := app.New("littlelemon").Routes(func(r *router.Router, s *app.Services) error {
		return routes.RegisterAPI(r, routes.Deps{DB: s.DB, Cache: s.Cache, Bus: s.Bus, Hub: s.Hub, Stream: s.Stream})
	})

	rootCmd.AddCommand(application.Commands()...)
	rootCmd.AddCommand(userCreateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
