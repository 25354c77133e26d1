// Package grpcx exposes the standard gRPC health and reflection services so
// orchestrators can probe the chat engine.
package grpcx

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/cwrk-planet/room-chat/internal/chat"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name health clients ask about; "" covers the whole server.
const ServiceName = "roomchat.Chat"

type Prober interface {
	Stats(ctx context.Context) (chat.Stats, error)
}

type Options struct {
	ProbeInterval time.Duration
	Logger        *slog.Logger
}

type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	prober   Prober
	interval time.Duration
	log      *slog.Logger
}

func NewServer(prober Prober, opts Options) *Server {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger.With("component", "grpc")

	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(log)),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(log)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{grpc: gs, health: hs, prober: prober, interval: opts.ProbeInterval, log: log}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)

	return s
}

func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("grpc listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Watch probes the engine until ctx is done and mirrors the result into the
// health service.
func (s *Server) Watch(ctx context.Context) {
	s.probe(ctx)

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.probe(ctx)
		}
	}
}

func (s *Server) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if _, err := s.prober.Stats(ctx); err != nil {
		s.log.Warn("engine probe failed", "err", err)
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Shutdown marks the server as not serving and drains it. If ctx ends first
// the remaining calls are cut off.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}
