// Package logger configures the process-wide slog logger for room-chat.
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var def atomic.Pointer[slog.Logger]

// Init собирает handler под окружение, ставит его в slog.SetDefault и возвращает логгер.
func Init(cfg Config) *slog.Logger {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "room-chat"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	cfg.InstanceID = ensureInstanceID(cfg.InstanceID)

	if cfg.Backend == "" {
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		} else {
			cfg.Backend = BackendZap
		}
	}

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		h = newZapHandler(cfg)
	default:
		h = newStdHandler(cfg)
	}

	base := slog.New(h.WithAttrs(commonAttrs(cfg)))
	slog.SetDefault(base)
	def.Store(base)

	return base
}

func L() *slog.Logger {
	if l := def.Load(); l != nil {
		return l
	}
	return Init(Config{})
}

// Ctx returns the default logger enriched with trace ids carried by ctx.
func Ctx(ctx context.Context) *slog.Logger {
	attrs := AttrsFromCtx(ctx)
	if len(attrs) == 0 {
		return L()
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return L().With(args...)
}
