// Package chat is the single writer of all room state.
//
// Engine.Run owns the registry, the broadcast groups, the session table and
// the typing coordinator. Every public method submits a closure to the loop
// and waits for it, so operations never interleave and broadcasts of one room
// are delivered in processing order.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/room-chat/internal/presence"
	"github.com/cwrk-planet/room-chat/internal/registry"
	"github.com/cwrk-planet/room-chat/pkg/errs"
)

var ErrEngineStopped = fmt.Errorf("chat engine stopped: %w", errs.ErrUnavailable)

const defaultTypingTimeout = 5 * time.Second

// Peer is one live connection. Send must not block: it returns false when the
// connection cannot take more events. Close must be idempotent.
type Peer interface {
	Send(ev Event) bool
	Close()
}

type Options struct {
	Registry      *registry.Registry
	TypingTimeout time.Duration
	Logger        *slog.Logger
}

type Engine struct {
	reg    *registry.Registry
	hub    *hub
	typing *presence.Typing
	conns  map[Peer]*Session // nil value: connected, not joined yet
	log    *slog.Logger

	ops  chan func()
	done chan struct{}
}

func New(opts Options) *Engine {
	if opts.Registry == nil {
		panic("chat: registry is required")
	}
	if opts.TypingTimeout <= 0 {
		opts.TypingTimeout = defaultTypingTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		reg:   opts.Registry,
		hub:   newHub(),
		conns: make(map[Peer]*Session),
		log:   opts.Logger.With("component", "chat"),
		ops:   make(chan func()),
		done:  make(chan struct{}),
	}
	e.typing = presence.New(opts.TypingTimeout, e.post, e.onTypingExpired)

	return e
}

// Run processes operations until ctx is cancelled. On exit every connection
// is closed and further calls fail with ErrEngineStopped.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("chat engine started")
	defer func() {
		close(e.done)
		for p := range e.conns {
			p.Close()
		}
		e.log.Info("chat engine stopped", "connections", len(e.conns))
	}()

	for {
		select {
		case fn := <-e.ops:
			fn()
		case <-ctx.Done():
			return nil
		}
	}
}

// do runs fn on the loop and waits for it. ops is unbuffered, so a closure
// that was accepted always runs to completion.
func (e *Engine) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		fn()
	}

	select {
	case e.ops <- op:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished

	return nil
}

// post schedules fn without waiting. Used by timers.
func (e *Engine) post(fn func()) {
	select {
	case e.ops <- fn:
	case <-e.done:
	}
}

func call[T any](ctx context.Context, e *Engine, fn func() (T, error)) (T, error) {
	var (
		out   T
		opErr error
	)
	if err := e.do(ctx, func() { out, opErr = fn() }); err != nil {
		var zero T
		return zero, err
	}
	return out, opErr
}

// Stats is a point-in-time view of the engine.
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	return call(ctx, e, func() (Stats, error) {
		return Stats{Rooms: e.reg.RoomCount(), Connections: len(e.conns)}, nil
	})
}
