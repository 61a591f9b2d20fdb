package system

import (
	"log/slog"
	"sync"

	"github.com/aretw0/notecognito/pkg/core"
	"github.com/aretw0/notecognito/pkg/hotkey"
)

// FallbackHook starts primary and, when the keyboard cannot be opened
// (Platform or PermissionDenied), keeps the server running without hotkeys.
// Any other error is returned as is.
type FallbackHook struct {
	primary hotkey.Hook
	logger  *slog.Logger

	mu       sync.Mutex
	active   hotkey.Hook
	degraded bool
}

func NewFallbackHook(primary hotkey.Hook, logger *slog.Logger) *FallbackHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackHook{primary: primary, logger: logger}
}

// Keymap is the primary hook's keymap, so bindings match once it runs.
func (h *FallbackHook) Keymap() hotkey.Keymap {
	if p, ok := h.primary.(hotkey.KeymapProvider); ok {
		return p.Keymap()
	}
	return hotkey.DefaultKeymap
}

func (h *FallbackHook) Start(cb hotkey.Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.primary.Start(cb)
	switch {
	case err == nil:
		h.active = h.primary
		h.degraded = false
		return nil
	case core.IsKind(err, core.KindPlatform), core.IsKind(err, core.KindPermissionDenied):
		h.logger.Warn("keyboard hook unavailable, hotkeys are disabled", "error", err)
		h.active = NoopHook{}
		h.degraded = true
		return nil
	default:
		return err
	}
}

func (h *FallbackHook) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return nil
	}
	err := h.active.Stop()
	h.active = nil
	return err
}

// Degraded reports whether Start fell back to a hook that never fires.
func (h *FallbackHook) Degraded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.degraded
}
