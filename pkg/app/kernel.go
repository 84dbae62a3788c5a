package app

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shashiranjanraj/littlelemon/config"
	"github.com/shashiranjanraj/littlelemon/pkg/database"
	"github.com/shashiranjanraj/littlelemon/pkg/metrics"
	"github.com/shashiranjanraj/littlelemon/pkg/middleware"
	"github.com/shashiranjanraj/littlelemon/pkg/reqid"
	"github.com/shashiranjanraj/littlelemon/pkg/response"
	"github.com/shashiranjanraj/littlelemon/pkg/router"
)

// Router builds the router with the global middleware stack, the
// operational endpoints and every registered route. limiter may be nil to
// disable rate limiting.
//
// Global middleware, outermost first:
//  1. Prometheus metrics, for total latency
//  2. Recovery
//  3. Request ID, before anything logs
//  4. Logger
//  5. CORS
//  6. Rate limiter
func (a *Application) Router(s *Services, limiter middleware.Limiter) (*router.Router, error) {
	r := router.New()

	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter))
	}
	r.Use(chimw.StripSlashes)

	r.HandleFunc("/metrics", metrics.Handler())
	r.Get("/healthz", "healthz", health(s))

	for _, fn := range a.routesFns {
		if err := fn(r, s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Limiter picks the rate limiter for s: Redis-backed when Redis is
// connected so that every instance shares one budget, in-memory otherwise.
func Limiter(ctx context.Context, s *Services) middleware.Limiter {
	perMinute := config.RateLimitPerMinute()
	if rdb := s.Cache.Client(); rdb != nil {
		return middleware.NewRedisLimiter(rdb, perMinute, time.Minute)
	}
	return middleware.NewMemoryLimiter(ctx, perMinute, time.Minute)
}

func health(s *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if s.DB == nil {
			response.Error(w, http.StatusServiceUnavailable, "database not configured")
			return
		}
		if err := database.Ping(ctx, s.DB); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		response.Success(w, map[string]string{"database": "ok"})
	}
}
