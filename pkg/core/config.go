package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Config is the whole user configuration: nine notecards, the shared
// modifier set, the default display properties and the auto-launch flag.
//
// Notecards always holds all nine ids once a Config went through
// DefaultConfig, UnmarshalJSON or Normalize.
type Config struct {
	LaunchOnStartup          bool                   `json:"launch_on_startup" yaml:"launch_on_startup"`
	DefaultDisplayProperties DisplayProperties      `json:"default_display_properties" yaml:"default_display_properties"`
	HotkeyModifiers          []HotkeyModifier       `json:"hotkey_modifiers" yaml:"hotkey_modifiers"`
	Notecards                map[NotecardID]Notecard `json:"notecards" yaml:"notecards"`
}

// DefaultConfig returns the configuration of a fresh install.
func DefaultConfig() Config {
	cards := make(map[NotecardID]Notecard, MaxNotecardID)
	for _, id := range AllNotecardIDs() {
		cards[id] = EmptyNotecard(id)
	}
	return Config{
		LaunchOnStartup:          false,
		DefaultDisplayProperties: DefaultDisplayProperties(),
		HotkeyModifiers:          []HotkeyModifier{ModControl, ModShift},
		Notecards:                cards,
	}
}

// UnmarshalJSON decodes the on-disk/wire shape. Missing fields keep their
// defaults, unknown fields are ignored, notecard keys must be "1".."9" and
// missing cards are backfilled.
func (c *Config) UnmarshalJSON(data []byte) error {
	def := DefaultConfig()
	w := struct {
		LaunchOnStartup          bool                `json:"launch_on_startup"`
		DefaultDisplayProperties DisplayProperties   `json:"default_display_properties"`
		HotkeyModifiers          []HotkeyModifier    `json:"hotkey_modifiers"`
		Notecards                map[string]Notecard `json:"notecards"`
	}{
		LaunchOnStartup:          def.LaunchOnStartup,
		DefaultDisplayProperties: def.DefaultDisplayProperties,
		HotkeyModifiers:          def.HotkeyModifiers,
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	cards := make(map[NotecardID]Notecard, MaxNotecardID)
	for key, card := range w.Notecards {
		id, err := ParseNotecardID(key)
		if err != nil {
			return err
		}
		if card.ID == 0 {
			card.ID = id
		}
		if card.ID != id {
			return fmt.Errorf("notecard under key %q carries id %d", key, card.ID)
		}
		cards[id] = card
	}

	c.LaunchOnStartup = w.LaunchOnStartup
	c.DefaultDisplayProperties = w.DefaultDisplayProperties
	c.HotkeyModifiers = w.HotkeyModifiers
	c.Notecards = cards
	c.backfill()
	return nil
}

func (c *Config) backfill() {
	if c.Notecards == nil {
		c.Notecards = make(map[NotecardID]Notecard, MaxNotecardID)
	}
	for _, id := range AllNotecardIDs() {
		if _, ok := c.Notecards[id]; !ok {
			c.Notecards[id] = EmptyNotecard(id)
		}
	}
}

// Normalize backfills missing cards and validates every card. Entries keyed
// outside 1..9 or whose body id disagrees with the key are rejected.
func (c *Config) Normalize() error {
	for id, card := range c.Notecards {
		if !id.Valid() {
			return &Error{Kind: KindInvalidNotecardID, Value: uint8(id)}
		}
		if card.ID == 0 {
			card.ID = id
			c.Notecards[id] = card
		}
		if card.ID != id {
			return ConfigError("notecard %d stored under key %d", card.ID, id)
		}
		if err := card.Validate(); err != nil {
			return err
		}
	}
	c.backfill()
	return nil
}

// SetNotecard validates n and replaces the entry keyed by n.ID.
func (c *Config) SetNotecard(n Notecard) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if c.Notecards == nil {
		c.backfill()
	}
	c.Notecards[n.ID] = n
	return nil
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.HotkeyModifiers = slices.Clone(c.HotkeyModifiers)
	out.Notecards = maps.Clone(c.Notecards)
	return out
}

// Modifiers returns the modifier list with duplicates removed, first
// occurrence wins.
func (c Config) Modifiers() []HotkeyModifier {
	out := make([]HotkeyModifier, 0, len(c.HotkeyModifiers))
	for _, m := range c.HotkeyModifiers {
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

// Equal compares two configs treating the modifier list as a set.
func (c Config) Equal(o Config) bool {
	if c.LaunchOnStartup != o.LaunchOnStartup || c.DefaultDisplayProperties != o.DefaultDisplayProperties {
		return false
	}
	a, b := c.Modifiers(), o.Modifiers()
	if len(a) != len(b) {
		return false
	}
	for _, m := range a {
		if !slices.Contains(b, m) {
			return false
		}
	}
	return maps.Equal(c.Notecards, o.Notecards)
}
