//go:build darwin

package system

import (
	"log/slog"

	"github.com/aretw0/notecognito/pkg/hotkey"
)

// macHook never fires by itself: a CGEventTap needs the accessibility grant
// and a run loop owned by the app bundle. It still reports the virtual
// keycodes such a tap delivers, so the registry binds the right digits.
type macHook struct {
	NoopHook
}

func (macHook) Keymap() hotkey.Keymap {
	return hotkey.MacKeymap
}

// NewKeyboardHook returns the macOS hook. devicePath is ignored.
func NewKeyboardHook(_ string, logger *slog.Logger) hotkey.Hook {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("keyboard events come from the app bundle on macOS, hotkeys are disabled in the bare server")
	return macHook{}
}
