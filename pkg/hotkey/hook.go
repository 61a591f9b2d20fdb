package hotkey

import "github.com/aretw0/notecognito/pkg/core"

// Callback receives every key-down from the OS hook. It runs on the hook's
// own thread and must not block; returning true asks the hook to swallow the
// event.
type Callback func(mods ModifierSet, keycode uint32) (consume bool)

// Hook is the platform's system-wide keyboard hook.
type Hook interface {
	Start(cb Callback) error
	Stop() error
}

// KeymapProvider is implemented by hooks that know their digit keycodes.
type KeymapProvider interface {
	Keymap() Keymap
}

// MatchCallback returns a Callback that consumes events matching reg and
// hands the matched id to deliver.
func MatchCallback(reg *Registry, deliver func(id core.NotecardID)) Callback {
	return func(mods ModifierSet, keycode uint32) bool {
		id, ok := reg.Match(mods, keycode)
		if !ok {
			return false
		}
		deliver(id)
		return true
	}
}
