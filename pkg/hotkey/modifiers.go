package hotkey

import (
	"strings"

	"github.com/aretw0/notecognito/pkg/core"
)

// ModifierSet is the set of modifier keys held during a key event.
type ModifierSet uint8

const (
	Control ModifierSet = 1 << iota
	Alt
	Shift
	Command
	Super
)

var modifierBits = []struct {
	bit ModifierSet
	mod core.HotkeyModifier
}{
	{Control, core.ModControl},
	{Alt, core.ModAlt},
	{Shift, core.ModShift},
	{Command, core.ModCommand},
	{Super, core.ModSuper},
}

// NewModifierSet folds mods into a set; duplicates collapse.
func NewModifierSet(mods ...core.HotkeyModifier) ModifierSet {
	var s ModifierSet
	for _, m := range mods {
		for _, b := range modifierBits {
			if b.mod == m {
				s |= b.bit
			}
		}
	}
	return s
}

func (s ModifierSet) Has(m core.HotkeyModifier) bool {
	return s&NewModifierSet(m) != 0
}

// Modifiers lists the members in canonical order.
func (s ModifierSet) Modifiers() []core.HotkeyModifier {
	var out []core.HotkeyModifier
	for _, b := range modifierBits {
		if s&b.bit != 0 {
			out = append(out, b.mod)
		}
	}
	return out
}

func (s ModifierSet) String() string {
	if s == 0 {
		return "none"
	}
	names := make([]string, 0, 5)
	for _, m := range s.Modifiers() {
		names = append(names, m.String())
	}
	return strings.Join(names, "+")
}
