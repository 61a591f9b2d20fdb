// Package dispatch bridges the OS keyboard hook thread to the goroutine that
// reads the store and drives the overlay.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notecognito/pkg/core"
	"github.com/aretw0/notecognito/pkg/hotkey"
)

// Capacity is the size of the hook-to-consumer queue.
const Capacity = 32

// Reader is the read side of the store the consumer needs.
type Reader interface {
	Get(id core.NotecardID) (core.Notecard, bool)
	Snapshot() core.Config
}

// Shower displays a notecard; satisfied by *overlay.Controller.
type Shower interface {
	Show(id core.NotecardID, content string, props core.DisplayProperties) error
}

// Dispatcher owns a bounded queue of notecard ids. The producer side never
// blocks; when the queue is full the event is dropped.
type Dispatcher struct {
	queue  chan core.NotecardID
	store  Reader
	shower Shower
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once

	delivered atomic.Uint64
	dropped   atomic.Uint64
	shown     atomic.Uint64
	skipped   atomic.Uint64
}

func New(store Reader, shower Shower, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:  make(chan core.NotecardID, Capacity),
		store:  store,
		shower: shower,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Sender is a copyable handle to the producer side.
type Sender struct {
	d *Dispatcher
}

// Sender returns a producer handle. Any number of copies may be held.
func (d *Dispatcher) Sender() Sender {
	return Sender{d: d}
}

// Send enqueues id without blocking and reports whether it was accepted.
func (s Sender) Send(id core.NotecardID) bool {
	return s.d.send(id)
}

func (d *Dispatcher) send(id core.NotecardID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return false
	}
	select {
	case d.queue <- id:
		d.delivered.Add(1)
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warn("hotkey event dropped, queue full", "id", id.String(), "capacity", Capacity)
		return false
	}
}

// HookCallback returns the callback handed to the KeyHook: matched events
// are queued and consumed, everything else passes through.
func (d *Dispatcher) HookCallback(reg *hotkey.Registry) hotkey.Callback {
	sender := d.Sender()
	return hotkey.MatchCallback(reg, func(id core.NotecardID) {
		sender.Send(id)
	})
}

// Run starts the consumer. It exits when Close is called (after draining
// what is queued) or when ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				return nil
			case id, ok := <-d.queue:
				if !ok {
					return nil
				}
				d.handle(ctx, id)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		d.logger.Error("dispatcher stopped unexpectedly", "error", err)
	}))
}

func (d *Dispatcher) handle(ctx context.Context, id core.NotecardID) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("dispatch panic: %v", recovered)
			if d.logger.Enabled(ctx, slog.LevelDebug) {
				d.logger.Error("dispatch panic", "id", id.String(), "error", err, "stack", string(debug.Stack()))
			} else {
				d.logger.Error("dispatch panic", "id", id.String(), "error", err)
			}
		}
	}()

	card, ok := d.store.Get(id)
	if !ok {
		d.logger.Warn("hotkey for unknown notecard", "id", id.String())
		return
	}
	if card.IsEmpty() {
		d.skipped.Add(1)
		d.logger.Debug("hotkey for empty notecard ignored", "id", id.String())
		return
	}

	props := d.store.Snapshot().DefaultDisplayProperties
	if err := d.shower.Show(id, card.Content, props); err != nil {
		d.logger.Error("failed to show notecard", "id", id.String(), "error", err)
		return
	}
	d.shown.Add(1)
}

// Close closes the producer side. Sends after Close are dropped.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
}

// Wait blocks until the consumer has exited or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DispatcherState exposes internal state for observability.
type DispatcherState struct {
	Queued    int    `json:"queued"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Shown     uint64 `json:"shown"`
	Skipped   uint64 `json:"skipped"`
	Closed    bool   `json:"closed"`
}

// State implements introspection.Introspectable.
func (d *Dispatcher) State() any {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	return DispatcherState{
		Queued:    len(d.queue),
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Shown:     d.shown.Load(),
		Skipped:   d.skipped.Load(),
		Closed:    closed,
	}
}

// ComponentType implements introspection.Component.
func (d *Dispatcher) ComponentType() string {
	return "hotkey-dispatcher"
}

var _ introspection.Introspectable = (*Dispatcher)(nil)
var _ introspection.Component = (*Dispatcher)(nil)
