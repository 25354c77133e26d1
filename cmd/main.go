package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwrk-planet/room-chat/config"
	"github.com/cwrk-planet/room-chat/internal/avatar"
	"github.com/cwrk-planet/room-chat/internal/chat"
	"github.com/cwrk-planet/room-chat/internal/postgres"
	"github.com/cwrk-planet/room-chat/internal/registry"
	"github.com/cwrk-planet/room-chat/internal/security"
	grpcx "github.com/cwrk-planet/room-chat/internal/transport/grpc"
	httpx "github.com/cwrk-planet/room-chat/internal/transport/http"
	"github.com/cwrk-planet/room-chat/internal/transport/ws"
	"github.com/cwrk-planet/room-chat/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	lg.Info("starting room-chat",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- avatars ---
	store, closeStore, err := newAvatarStore(ctx, cfg)
	if err != nil {
		lg.Error("avatar store", "backend", cfg.Avatar.Backend, "err", err)
		os.Exit(1)
	}
	defer closeStore()
	avatars := avatar.NewService(store, avatar.Config{
		MaxBytes:      cfg.Avatar.MaxBytes,
		PublicBaseURL: cfg.Avatar.PublicBaseURL,
	})

	// --- chat engine ---
	reg := registry.New(registry.Options{NewCode: security.NewCodeGenerator().Generate})
	engine := chat.New(chat.Options{
		Registry:      reg,
		TypingTimeout: cfg.Chat.TypingTimeout,
		Logger:        lg,
	})
	engineCtx, stopEngine := context.WithCancel(context.Background())
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		_ = engine.Run(engineCtx)
	}()

	// --- WS + HTTP ---
	wsServer := ws.NewServer(engine, ws.Config{
		SendBuffer:     cfg.Chat.SendBuffer,
		PingInterval:   cfg.Chat.PingInterval,
		MaxFrameBytes:  cfg.Chat.MaxFrameBytes,
		RateBurst:      cfg.Chat.RateLimit.Burst,
		RateInterval:   cfg.Chat.RateLimit.Interval,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})
	router := httpx.NewRouter(httpx.Deps{
		Handler:        httpx.NewHandler(engine, avatars),
		WS:             wsServer.HandleWS,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		lg.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- gRPC health ---
	var grpcSrv *grpcx.Server
	if cfg.GRPC.Addr != "" {
		grpcSrv = grpcx.NewServer(engine, grpcx.Options{Logger: lg})
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			lg.Error("grpc listen", "addr", cfg.GRPC.Addr, "err", err)
			os.Exit(1)
		}
		go grpcSrv.Watch(ctx)
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		lg.Info("shutdown signal")
	case err := <-errCh:
		lg.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.Shutdown(ctxShutdown)
	}
	if err := httpSrv.Shutdown(ctxShutdown); err != nil {
		lg.Warn("http shutdown", "err", err)
	}
	// websocket-соединения закрывает движок
	stopEngine()
	<-engineDone
	lg.Info("stopped")
}

// newAvatarStore picks the configured backend. The returned func releases it.
func newAvatarStore(ctx context.Context, cfg *config.Config) (avatar.Store, func(), error) {
	switch cfg.Avatar.Backend {
	case config.AvatarBackendPostgres:
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        cfg.Postgres.MaxConns,
			MinConns:        cfg.Postgres.MinConns,
			ApplicationName: cfg.Postgres.ApplicationName,
		})
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewAvatarRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		slog.Info("avatars stored in postgres")
		return repo, pool.Close, nil
	default:
		disk, err := avatar.NewDiskStore(cfg.Avatar.Dir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("avatars stored on disk", "dir", cfg.Avatar.Dir)
		return disk, func() {}, nil
	}
}
