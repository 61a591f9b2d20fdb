package system

import (
	"encoding/binary"

	"github.com/aretw0/notecognito/pkg/hotkey"
)

// Linux input subsystem constants.
const (
	evKey = 1

	keyReleased = 0
	keyPressed  = 1
	keyRepeat   = 2

	inputEventSize = 24 // sizeof(struct input_event) on 64-bit
)

// evdev codes of the modifier keys.
const (
	keyLeftCtrl   = 29
	keyLeftShift  = 42
	keyRightShift = 54
	keyLeftAlt    = 56
	keyRightCtrl  = 97
	keyRightAlt   = 100
	keyLeftMeta   = 125
	keyRightMeta  = 126
)

var evdevModifiers = map[uint16]hotkey.ModifierSet{
	keyLeftCtrl:   hotkey.Control,
	keyRightCtrl:  hotkey.Control,
	keyLeftShift:  hotkey.Shift,
	keyRightShift: hotkey.Shift,
	keyLeftAlt:    hotkey.Alt,
	keyRightAlt:   hotkey.Alt,
	keyLeftMeta:   hotkey.Super,
	keyRightMeta:  hotkey.Super,
}

type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

func decodeInputEvent(buf []byte) inputEvent {
	return inputEvent{
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}
}

// modifierTracker folds the raw event stream into (modifier state, key-down)
// pairs. Left and right variants are tracked separately so releasing one
// does not clear the other.
type modifierTracker struct {
	held map[uint16]bool
}

func newModifierTracker() *modifierTracker {
	return &modifierTracker{held: make(map[uint16]bool)}
}

func (t *modifierTracker) state() hotkey.ModifierSet {
	var s hotkey.ModifierSet
	for code, down := range t.held {
		if down {
			s |= evdevModifiers[code]
		}
	}
	return s
}

// feed consumes one event and reports a non-modifier key-down, if any.
// Auto-repeat is ignored.
func (t *modifierTracker) feed(ev inputEvent) (hotkey.ModifierSet, uint32, bool) {
	if ev.Type != evKey {
		return 0, 0, false
	}
	if _, isMod := evdevModifiers[ev.Code]; isMod {
		switch ev.Value {
		case keyPressed, keyRepeat:
			t.held[ev.Code] = true
		case keyReleased:
			delete(t.held, ev.Code)
		}
		return 0, 0, false
	}
	if ev.Value != keyPressed {
		return 0, 0, false
	}
	return t.state(), uint32(ev.Code), true
}
