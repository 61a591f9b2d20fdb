// Package hotkey holds the active notecard shortcuts and matches raw key
// events from the OS hook against them.
package hotkey

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/introspection"

	"github.com/aretw0/notecognito/pkg/core"
)

// Phase describes how many of the nine notecards are bound.
type Phase int

const (
	Empty Phase = iota
	Partial
	Full
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Partial:
		return "partial"
	default:
		return "full"
	}
}

type binding struct {
	mods    ModifierSet
	keycode uint32
}

// Registry maps (modifier set, keycode) to a notecard id. Match is called
// from the hook thread; everything else from the task side.
type Registry struct {
	mu       sync.RWMutex
	keymap   Keymap
	bindings map[core.NotecardID]binding
	logger   *slog.Logger

	matches atomic.Uint64
}

// NewRegistry returns an empty registry. A nil keymap means DefaultKeymap.
func NewRegistry(keymap Keymap, logger *slog.Logger) *Registry {
	if keymap == nil {
		keymap = DefaultKeymap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		keymap:   keymap,
		bindings: make(map[core.NotecardID]binding, core.MaxNotecardID),
		logger:   logger,
	}
}

// Register inserts or replaces the binding for id.
func (r *Registry) Register(id core.NotecardID, mods []core.HotkeyModifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLocked(id, NewModifierSet(mods...))
}

func (r *Registry) registerLocked(id core.NotecardID, set ModifierSet) {
	b := binding{mods: set, keycode: r.keymap.DigitKeycode(id)}
	if old, ok := r.bindings[id]; ok && old == b {
		return
	}
	r.bindings[id] = b
	r.logger.Debug("registered hotkey", "id", id.String(), "modifiers", set.String(), "keycode", b.keycode)
}

// Unregister removes the binding for id, if any.
func (r *Registry) Unregister(id core.NotecardID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked(id)
}

func (r *Registry) unregisterLocked(id core.NotecardID) {
	if _, ok := r.bindings[id]; ok {
		delete(r.bindings, id)
		r.logger.Debug("unregistered hotkey", "id", id.String())
	}
}

func (r *Registry) UnregisterAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.bindings)
}

// Match returns the id whose modifier set equals state exactly and whose
// digit keycode equals keycode. Extra held modifiers prevent a match.
func (r *Registry) Match(state ModifierSet, keycode uint32) (core.NotecardID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, b := range r.bindings {
		if b.keycode == keycode && b.mods == state {
			r.matches.Add(1)
			return id, true
		}
	}
	return 0, false
}

// Bound returns the modifier set registered for id.
func (r *Registry) Bound(id core.NotecardID) (ModifierSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[id]
	return b.mods, ok
}

// KeycodeFor returns the keycode the registry expects for id's digit.
func (r *Registry) KeycodeFor(id core.NotecardID) uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keymap.DigitKeycode(id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

func (r *Registry) Phase() Phase {
	switch n := r.Len(); {
	case n == 0:
		return Empty
	case n < core.MaxNotecardID:
		return Partial
	default:
		return Full
	}
}

// Reconcile aligns the bindings with cfg: every non-empty notecard is bound
// to cfg's modifiers, every empty one is unbound.
func (r *Registry) Reconcile(cfg core.Config) {
	set := NewModifierSet(cfg.HotkeyModifiers...)
	if set == 0 {
		r.logger.Warn("no hotkey modifiers configured, bare digits will trigger notecards")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range core.AllNotecardIDs() {
		if card, ok := cfg.Notecards[id]; ok && !card.IsEmpty() {
			r.registerLocked(id, set)
		} else {
			r.unregisterLocked(id)
		}
	}
}

// RegistryState exposes internal state for observability.
type RegistryState struct {
	Phase    string            `json:"phase"`
	Bindings map[string]string `json:"bindings"`
	Matches  uint64            `json:"matches"`
}

// State implements introspection.Introspectable.
func (r *Registry) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bindings := make(map[string]string, len(r.bindings))
	for id, b := range r.bindings {
		bindings[id.String()] = b.mods.String()
	}
	phase := Partial
	switch len(r.bindings) {
	case 0:
		phase = Empty
	case core.MaxNotecardID:
		phase = Full
	}
	return RegistryState{
		Phase:    phase.String(),
		Bindings: bindings,
		Matches:  r.matches.Load(),
	}
}

// ComponentType implements introspection.Component.
func (r *Registry) ComponentType() string {
	return "hotkey-registry"
}

var _ introspection.Introspectable = (*Registry)(nil)
var _ introspection.Component = (*Registry)(nil)
