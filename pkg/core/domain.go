// Package core holds the notecognito domain: notecards, their display
// properties, the hotkey modifiers and the guarded in-memory configuration.
package core

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// MinNotecardID and MaxNotecardID bound the closed id range.
	MinNotecardID = 1
	MaxNotecardID = 9

	// MaxContentLength is the content bound in bytes.
	MaxContentLength = 10000
)

// NotecardID identifies one of the nine notecards.
type NotecardID uint8

// NewNotecardID validates v against [1, 9].
func NewNotecardID(v uint8) (NotecardID, error) {
	if v < MinNotecardID || v > MaxNotecardID {
		return 0, &Error{Kind: KindInvalidNotecardID, Value: v}
	}
	return NotecardID(v), nil
}

// ParseNotecardID parses the decimal form used for JSON object keys and CLI args.
func ParseNotecardID(s string) (NotecardID, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid notecard id %q: %w", s, err)
	}
	return NewNotecardID(uint8(n))
}

// AllNotecardIDs returns 1..9 in order.
func AllNotecardIDs() []NotecardID {
	ids := make([]NotecardID, 0, MaxNotecardID)
	for i := MinNotecardID; i <= MaxNotecardID; i++ {
		ids = append(ids, NotecardID(i))
	}
	return ids
}

func (id NotecardID) Valid() bool {
	return id >= MinNotecardID && id <= MaxNotecardID
}

func (id NotecardID) String() string {
	return strconv.Itoa(int(id))
}

func (id *NotecardID) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n < 0 || n > 255 {
		return fmt.Errorf("notecard id %d out of range", n)
	}
	v, err := NewNotecardID(uint8(n))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Notecard is a user-authored text body, summonable by hotkey.
type Notecard struct {
	ID      NotecardID `json:"id" yaml:"id"`
	Content string     `json:"content" yaml:"content"`
}

// EmptyNotecard returns the placeholder card seeded for id.
func EmptyNotecard(id NotecardID) Notecard {
	return Notecard{ID: id}
}

// IsEmpty reports whether the card is excluded from hotkey activation.
func (n Notecard) IsEmpty() bool {
	return len(n.Content) == 0
}

// Validate enforces the content length bound.
func (n Notecard) Validate() error {
	if !n.ID.Valid() {
		return &Error{Kind: KindInvalidNotecardID, Value: uint8(n.ID)}
	}
	if len(n.Content) > MaxContentLength {
		return ConfigError("Notecard content exceeds maximum length of %d characters", MaxContentLength)
	}
	return nil
}

// DisplayProperties are carried verbatim between the store, the file, the
// wire and the overlay. None of the values are interpreted here.
type DisplayProperties struct {
	Opacity            uint8     `json:"opacity" yaml:"opacity"`
	Position           [2]int32  `json:"position" yaml:"position,flow"`
	Size               [2]uint32 `json:"size" yaml:"size,flow"`
	AutoHideDuration   uint32    `json:"auto_hide_duration" yaml:"auto_hide_duration"`
	FontFamily         string    `json:"font_family" yaml:"font_family"`
	FontSize           uint32    `json:"font_size" yaml:"font_size"`
	AlgorithmicSpacing bool      `json:"algorithmic_spacing" yaml:"algorithmic_spacing"`
}

// DefaultDisplayProperties returns the properties of a fresh install.
func DefaultDisplayProperties() DisplayProperties {
	return DisplayProperties{
		Opacity:            95,
		Position:           [2]int32{100, 100},
		Size:               [2]uint32{400, 200},
		AutoHideDuration:   0,
		FontFamily:         "System",
		FontSize:           16,
		AlgorithmicSpacing: false,
	}
}

// HotkeyModifier is one modifier key of a notecard shortcut.
type HotkeyModifier string

const (
	ModControl HotkeyModifier = "Control"
	ModAlt     HotkeyModifier = "Alt"
	ModShift   HotkeyModifier = "Shift"
	ModCommand HotkeyModifier = "Command"
	ModSuper   HotkeyModifier = "Super"
)

// AllModifiers lists every modifier the wire format accepts.
var AllModifiers = []HotkeyModifier{ModControl, ModAlt, ModShift, ModCommand, ModSuper}

// ParseHotkeyModifier resolves a wire name. "Windows" is an alias of Super.
func ParseHotkeyModifier(s string) (HotkeyModifier, error) {
	switch s {
	case "Control":
		return ModControl, nil
	case "Alt":
		return ModAlt, nil
	case "Shift":
		return ModShift, nil
	case "Command":
		return ModCommand, nil
	case "Super", "Windows":
		return ModSuper, nil
	}
	return "", fmt.Errorf("unknown hotkey modifier %q", s)
}

func (m *HotkeyModifier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseHotkeyModifier(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m HotkeyModifier) String() string { return string(m) }
