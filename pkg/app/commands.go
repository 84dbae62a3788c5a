package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/littlelemon/config"
	"github.com/shashiranjanraj/littlelemon/database/seeders"
	"github.com/shashiranjanraj/littlelemon/internal/server"
	"github.com/shashiranjanraj/littlelemon/pkg/database"
	"github.com/shashiranjanraj/littlelemon/pkg/event"
	"github.com/shashiranjanraj/littlelemon/pkg/migration"
	"github.com/shashiranjanraj/littlelemon/pkg/sse"
	"github.com/shashiranjanraj/littlelemon/pkg/ws"
)

// Commands returns serve, route:list and the database commands.
func (a *Application) Commands() []*cobra.Command {
	return []*cobra.Command{
		a.serveCmd(),
		a.routeListCmd(),
		migrateCmd(),
		migrateRollbackCmd(),
		migrateStatusCmd(),
		seedCmd(),
	}
}

func (a *Application) serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, closeAll, err := a.Boot(ctx)
			if err != nil {
				return err
			}
			defer closeAll()

			r, err := a.Router(s, Limiter(ctx, s))
			if err != nil {
				return err
			}

			if port == "" {
				port = config.AppPort()
			}
			return server.Start(ctx, ":"+port, r.Handler())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (default APP_PORT)")
	return cmd
}

func (a *Application) routeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route:list",
		Short: "List every registered route",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Routes are only mounted, never served, so no connections are needed.
			r, err := a.Router(&Services{Bus: event.NewBus(), Hub: ws.NewHub(), Stream: sse.NewBroker()}, nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tNAME")
			for _, rt := range r.Routes() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", rt.Method, rt.Path, rt.Name)
			}
			return w.Flush()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run all pending database migrations",
		RunE: withDB(func(cmd *cobra.Command, runner *migration.Runner) error {
			applied, err := runner.Run()
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "Migrated:", name)
			}
			if err == nil && len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
			}
			return err
		}),
	}
}

func migrateRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:rollback",
		Short: "Roll back the last batch of migrations",
		RunE: withDB(func(cmd *cobra.Command, runner *migration.Runner) error {
			reverted, err := runner.Rollback()
			for _, name := range reverted {
				fmt.Fprintln(cmd.OutOrStdout(), "Rolled back:", name)
			}
			if err == nil && len(reverted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to roll back.")
			}
			return err
		}),
	}
}

func migrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate:status",
		Short: "Show the status of each migration",
		RunE: withDB(func(cmd *cobra.Command, runner *migration.Runner) error {
			rows, err := runner.Status()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
			for _, s := range rows {
				ran, batch := "No", "-"
				if s.Ran {
					ran, batch = "Yes", fmt.Sprint(s.Batch)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
			}
			return w.Flush()
		}),
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [names...]",
		Short: "Run database seeders (all when no names are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := bootDB()
			if err != nil {
				return err
			}
			defer database.Close(db)
			return seeders.Run(db, cmd.OutOrStdout(), args...)
		},
	}
}

func withDB(fn func(cmd *cobra.Command, runner *migration.Runner) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		db, err := bootDB()
		if err != nil {
			return err
		}
		defer database.Close(db)
		return fn(cmd, migration.New(db))
	}
}
