package hotkey

import "github.com/aretw0/notecognito/pkg/core"

// Keymap resolves the physical keycode producing the digit of a notecard id.
// It is supplied by the KeyHook, which knows its platform's codes and layout.
type Keymap interface {
	DigitKeycode(id core.NotecardID) uint32
}

// KeymapFunc adapts a function to Keymap.
type KeymapFunc func(id core.NotecardID) uint32

func (f KeymapFunc) DigitKeycode(id core.NotecardID) uint32 { return f(id) }

// DefaultKeymap maps digits to their ASCII codes ('1' = 0x31), which is also
// the Windows virtual-key code of the top-row digits.
var DefaultKeymap Keymap = KeymapFunc(func(id core.NotecardID) uint32 {
	return 0x30 + uint32(id)
})

// EvdevKeymap maps digits to linux input codes (KEY_1 = 2 ... KEY_9 = 10).
var EvdevKeymap Keymap = KeymapFunc(func(id core.NotecardID) uint32 {
	return 1 + uint32(id)
})

// MacKeymap maps digits to the ANSI virtual keycodes of macOS, which are not
// contiguous.
var MacKeymap Keymap = KeymapFunc(func(id core.NotecardID) uint32 {
	codes := [...]uint32{0, 0x12, 0x13, 0x14, 0x15, 0x17, 0x16, 0x1A, 0x1C, 0x19}
	if int(id) >= len(codes) {
		return 0
	}
	return codes[id]
})
