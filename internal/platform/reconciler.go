package platform

import (
	"log/slog"
	"sync"

	"github.com/aretw0/notecognito/pkg/core"
	"github.com/aretw0/notecognito/pkg/hotkey"
	"github.com/aretw0/notecognito/pkg/overlay"
)

// StartupRegistrar registers or unregisters the server as a login item.
type StartupRegistrar interface {
	Set(enabled bool) error
}

// SinkRegistrar applies the flag through the overlay sink, on its thread.
type SinkRegistrar struct {
	Controller *overlay.Controller
}

func (r SinkRegistrar) Set(enabled bool) error {
	return r.Controller.SetLaunchOnStartup(enabled)
}

// Snapshotter returns the committed configuration.
type Snapshotter interface {
	Snapshot() core.Config
}

// Reconciler aligns the hotkey registry and the login item with the
// committed configuration. The registrar is only called when
// launch_on_startup differs from the last value observed.
//
// Calls are serialized, and each one reads source under that lock instead of
// trusting the config it was handed: writers that commit A then B but
// reconcile B then A still leave everything following B.
type Reconciler struct {
	source    Snapshotter
	registry  *hotkey.Registry
	registrar StartupRegistrar
	logger    *slog.Logger

	mu   sync.Mutex
	last bool
	sets int
}

// NewReconciler seeds the last observed flag with initial; the registrar is
// not called for it. With a nil source the config passed to each call is
// used as is.
func NewReconciler(source Snapshotter, registry *hotkey.Registry, registrar StartupRegistrar, initial bool, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{source: source, registry: registry, registrar: registrar, last: initial, logger: logger}
}

func (r *Reconciler) committed(cfg core.Config) core.Config {
	if r.source == nil {
		return cfg
	}
	return r.source.Snapshot()
}

// Notecards re-registers hotkeys.
func (r *Reconciler) Notecards(cfg core.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry.Reconcile(r.committed(cfg))
}

// Config re-registers hotkeys and applies the auto-launch flag if it changed.
// A registrar failure is logged and retried on the next reconcile.
func (r *Reconciler) Config(cfg core.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg = r.committed(cfg)
	r.registry.Reconcile(cfg)
	if cfg.LaunchOnStartup == r.last || r.registrar == nil {
		return
	}
	if err := r.registrar.Set(cfg.LaunchOnStartup); err != nil {
		r.logger.Error("failed to update launch on startup", "enabled", cfg.LaunchOnStartup, "error", err)
		return
	}
	r.last = cfg.LaunchOnStartup
	r.sets++
	r.logger.Info("launch on startup updated", "enabled", cfg.LaunchOnStartup)
}

// LaunchOnStartup is the last value applied (or seeded).
func (r *Reconciler) LaunchOnStartup() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
