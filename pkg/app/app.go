// Package app boots the application and exposes it as a cobra CLI.
//
//	a := app.New("littlelemon").Routes(func(r *router.Router, s *app.Services) error {
//	    return routes.RegisterAPI(r, routes.Deps{DB: s.DB, Cache: s.Cache, Bus: s.Bus, Hub: s.Hub, Stream: s.Stream})
//	})
//	root := &cobra.Command{Use: "littlelemon"}
//	root.AddCommand(a.Commands()...)
package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/littlelemon/config"
	"github.com/shashiranjanraj/littlelemon/pkg/cache"
	"github.com/shashiranjanraj/littlelemon/pkg/database"
	"github.com/shashiranjanraj/littlelemon/pkg/event"
	"github.com/shashiranjanraj/littlelemon/pkg/logger"
	"github.com/shashiranjanraj/littlelemon/pkg/orm"
	"github.com/shashiranjanraj/littlelemon/pkg/router"
	"github.com/shashiranjanraj/littlelemon/pkg/sse"
	"github.com/shashiranjanraj/littlelemon/pkg/workerpool"
	"github.com/shashiranjanraj/littlelemon/pkg/ws"
)

// Services are the shared collaborators built at boot.
type Services struct {
	DB     *gorm.DB
	Cache  *cache.Store
	Bus    *event.Bus
	Hub    *ws.Hub
	Stream *sse.Broker
}

// RoutesFunc mounts routes on r using s.
type RoutesFunc func(r *router.Router, s *Services) error

// Application is configured once, then driven by its commands.
type Application struct {
	name      string
	routesFns []RoutesFunc
}

func New(name string) *Application {
	return &Application{name: name}
}

// Routes adds a route-registration callback. Callbacks run in order.
func (a *Application) Routes(fn RoutesFunc) *Application {
	a.routesFns = append(a.routesFns, fn)
	return a
}

// Boot loads config, sets up logging and connects to the database and
// Redis. Redis is optional: when it is unreachable the cache is a no-op.
// The hub runs until ctx is done. cleanup drains pending event listeners and
// releases everything Boot opened.
func (a *Application) Boot(ctx context.Context) (s *Services, cleanup func(), err error) {
	if err := config.Load(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	flushLogs, err := logger.Setup()
	if err != nil {
		logger.Warn("mongo log sink disabled", "error", err)
	}
	logger.Info("booting", "app", a.name, "env", config.AppEnv(), "db_driver", config.DatabaseDriver())

	db, err := database.Connect()
	if err != nil {
		flushLogs()
		return nil, nil, err
	}

	store, err := cache.Connect(ctx)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
	}
	orm.CacheStore = store

	listeners := workerpool.New(config.EventWorkers(), 256)
	bus := event.NewBus()
	bus.UsePool(listeners)

	s = &Services{DB: db, Cache: store, Bus: bus, Hub: ws.NewHub(), Stream: sse.NewBroker()}
	go s.Hub.Run(ctx)

	cleanup = func() {
		listeners.Shutdown()
		errs := errors.Join(store.Close(), database.Close(db))
		if errs != nil {
			logger.Warn("shutdown", "error", errs)
		}
		flushLogs()
	}
	return s, cleanup, nil
}

// bootDB is Boot for commands that only need the database.
func bootDB() (*gorm.DB, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return database.Connect()
}
