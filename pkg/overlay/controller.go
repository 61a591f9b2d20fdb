// Package overlay turns "show notecard N" requests into calls on the
// platform's overlay renderer.
package overlay

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/notecognito/pkg/core"
)

// Sink is the platform overlay renderer.
type Sink interface {
	// Show displays the notecard, replacing any overlay already shown for id.
	Show(id core.NotecardID, content string, props core.DisplayProperties) error
	// Hide dismisses the overlay for id; no-op when none is shown.
	Hide(id core.NotecardID) error
	// SetLaunchOnStartup toggles OS auto-launch.
	SetLaunchOnStartup(enabled bool) error
}

// MainThreadFunc runs fn on the thread the Sink requires. It may run fn
// asynchronously but must run it exactly once; when called from that thread
// already it must run fn inline.
type MainThreadFunc func(fn func())

// Inline runs fn on the calling goroutine.
func Inline(fn func()) { fn() }

// Controller serializes show/hide requests per process and guarantees the
// sink sees hide(id) before every show(id).
type Controller struct {
	mu      sync.Mutex
	sink    Sink
	post    MainThreadFunc
	visible map[core.NotecardID]bool
	logger  *slog.Logger

	shows    uint64
	failures uint64
}

func NewController(sink Sink, post MainThreadFunc, logger *slog.Logger) *Controller {
	if post == nil {
		post = Inline
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		sink:    sink,
		post:    post,
		visible: make(map[core.NotecardID]bool, core.MaxNotecardID),
		logger:  logger,
	}
}

// Show displays content for id. Empty content hides instead. A sink failure
// is logged and returned as a Platform error; it is not retried.
func (c *Controller) Show(id core.NotecardID, content string, props core.DisplayProperties) error {
	if content == "" {
		return c.Hide(id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.onMain(func() error { return c.sink.Hide(id) }); err != nil {
		c.logger.Warn("overlay hide before show failed", "id", id.String(), "error", err)
	}
	delete(c.visible, id)

	if err := c.onMain(func() error { return c.sink.Show(id, content, props) }); err != nil {
		c.failures++
		c.logger.Error("overlay show failed", "id", id.String(), "error", err)
		return core.PlatformError(err)
	}
	c.visible[id] = true
	c.shows++
	return nil
}

// Hide dismisses id's overlay.
func (c *Controller) Hide(id core.NotecardID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.onMain(func() error { return c.sink.Hide(id) }); err != nil {
		c.logger.Error("overlay hide failed", "id", id.String(), "error", err)
		return core.PlatformError(err)
	}
	delete(c.visible, id)
	return nil
}

// HideAll dismisses every overlay this controller has shown.
func (c *Controller) HideAll() {
	for _, id := range c.Visible() {
		_ = c.Hide(id)
	}
}

// SetLaunchOnStartup forwards to the sink on the main thread.
func (c *Controller) SetLaunchOnStartup(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.onMain(func() error { return c.sink.SetLaunchOnStartup(enabled) }); err != nil {
		return core.PlatformError(err)
	}
	return nil
}

// Visible lists ids currently shown, ascending.
func (c *Controller) Visible() []core.NotecardID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]core.NotecardID, 0, len(c.visible))
	for id := range c.visible {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Controller) onMain(fn func() error) error {
	var err error
	done := make(chan struct{})
	c.post(func() {
		defer close(done)
		err = fn()
	})
	<-done
	return err
}

// ControllerState exposes internal state for observability.
type ControllerState struct {
	Visible  []string `json:"visible"`
	Shows    uint64   `json:"shows"`
	Failures uint64   `json:"failures"`
}

// State implements introspection.Introspectable.
func (c *Controller) State() any {
	visible := c.Visible()
	c.mu.Lock()
	defer c.mu.Unlock()
	state := ControllerState{Shows: c.shows, Failures: c.failures}
	for _, id := range visible {
		state.Visible = append(state.Visible, id.String())
	}
	return state
}

// ComponentType implements introspection.Component.
func (c *Controller) ComponentType() string {
	return "overlay-controller"
}

var _ introspection.Introspectable = (*Controller)(nil)
var _ introspection.Component = (*Controller)(nil)
