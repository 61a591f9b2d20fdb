//go:build !linux && !darwin

package system

import (
	"log/slog"

	"github.com/aretw0/notecognito/pkg/hotkey"
)

// NewKeyboardHook returns a hook that never fires: the native hooks of this
// platform live in the desktop shell, which feeds the server over its own
// channel.
func NewKeyboardHook(_ string, logger *slog.Logger) hotkey.Hook {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("no keyboard hook on this platform, hotkeys are disabled")
	return NoopHook{}
}
