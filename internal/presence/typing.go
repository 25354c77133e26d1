// Package presence tracks per-room typing state.
//
// Typing is owned by a single goroutine. Timers never touch the state
// directly: on expiry they hand a closure to post, which must run it on the
// owning goroutine. Every arm bumps a generation counter so an expiry that
// raced with a renewal is recognised as stale and dropped.
package presence

import (
	"time"
)

// Key identifies one identity in one room.
type Key struct {
	Room     string
	Identity string
}

type entry struct {
	timer *time.Timer
	gen   uint64
}

type Typing struct {
	timeout  time.Duration
	post     func(func())
	onExpire func(Key)

	entries map[Key]*entry
	gen     uint64
}

// New creates a coordinator. post schedules a closure on the owner goroutine,
// onExpire is invoked there when a typing window lapses without renewal.
func New(timeout time.Duration, post func(func()), onExpire func(Key)) *Typing {
	return &Typing{
		timeout:  timeout,
		post:     post,
		onExpire: onExpire,
		entries:  make(map[Key]*entry),
	}
}

// Start arms or re-arms the expiry window for k and reports whether k was
// idle before the call.
func (t *Typing) Start(k Key) bool {
	t.gen++
	gen := t.gen

	e, ok := t.entries[k]
	if ok {
		e.timer.Stop()
	} else {
		e = &entry{}
		t.entries[k] = e
	}
	e.gen = gen
	e.timer = time.AfterFunc(t.timeout, func() {
		t.post(func() { t.expire(k, gen) })
	})

	return !ok
}

// Stop cancels the window for k. It reports whether k was typing.
func (t *Typing) Stop(k Key) bool {
	e, ok := t.entries[k]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(t.entries, k)

	return true
}

// ClearRoom drops every typing entry of room and returns the cleared keys.
func (t *Typing) ClearRoom(room string) []Key {
	var cleared []Key
	for k, e := range t.entries {
		if k.Room != room {
			continue
		}
		e.timer.Stop()
		delete(t.entries, k)
		cleared = append(cleared, k)
	}
	return cleared
}

func (t *Typing) IsTyping(k Key) bool {
	_, ok := t.entries[k]
	return ok
}

func (t *Typing) Len() int {
	return len(t.entries)
}

func (t *Typing) expire(k Key, gen uint64) {
	e, ok := t.entries[k]
	if !ok || e.gen != gen {
		// renewed or stopped after the timer fired
		return
	}
	delete(t.entries, k)
	if t.onExpire != nil {
		t.onExpire(k)
	}
}
