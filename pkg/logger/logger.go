// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns the per-request
// logger injected by the Logger middleware, so every line from a handler or
// service carries the request_id:
//
//	log := logger.WithCtx(ctx)
//	log.Info("order placed", "order_id", order.ID)
//	// → time=... level=INFO msg="order placed" request_id=3f0c... order_id=7
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/shashiranjanraj/littlelemon/config"
)

var L *slog.Logger

func init() {
	L = slog.New(pipeline().Handler(consoleHandler(os.Stdout)))
	slog.SetDefault(L)
}

func consoleHandler(w io.Writer) slog.Handler {
	switch config.AppEnv() {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// pipeline flattens error attrs to their message before any sink sees them;
// the Mongo sink would otherwise store an empty document for most errors.
func pipeline() *slogmulti.PipeBuilder {
	return slogmulti.Pipe(slogmulti.NewHandleInlineMiddleware(formatErrors))
}

func formatErrors(ctx context.Context, record slog.Record, next func(context.Context, slog.Record) error) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		if err, ok := a.Value.Any().(error); ok && err != nil {
			a = slog.String(a.Key, err.Error())
		}
		out.AddAttrs(a)
		return true
	})
	return next(ctx, out)
}

// Setup rebuilds the global logger from config. When LOG_MONGO_URI is set,
// records are fanned out to stdout and an asynchronous MongoDB sink. The
// returned func flushes and closes the sink; call it on shutdown.
func Setup() (func(), error) {
	console := consoleHandler(os.Stdout)

	uri := config.LogMongoURI()
	if uri == "" {
		L = slog.New(pipeline().Handler(console))
		slog.SetDefault(L)
		return func() {}, nil
	}

	mh, err := NewMongoHandler(uri, config.LogMongoDB(), config.LogMongoCollection())
	if err != nil {
		L = slog.New(pipeline().Handler(console))
		slog.SetDefault(L)
		return func() {}, err
	}

	L = slog.New(pipeline().Handler(slogmulti.Fanout(console, mh)))
	slog.SetDefault(L)
	return mh.Close, nil
}

// SetOutput points the global logger at w. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	L = slog.New(pipeline().Handler(consoleHandler(w)))
	slog.SetDefault(L)
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or L.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
