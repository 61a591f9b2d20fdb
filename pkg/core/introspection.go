package core

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	ActiveNotecards []string `json:"active_notecards"`
	Modifiers       []string `json:"modifiers"`
	LaunchOnStartup bool     `json:"launch_on_startup"`
	Writes          uint64   `json:"writes"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := StoreState{
		LaunchOnStartup: s.cfg.LaunchOnStartup,
		Writes:          s.writes,
	}
	for _, id := range AllNotecardIDs() {
		if !s.cfg.Notecards[id].IsEmpty() {
			state.ActiveNotecards = append(state.ActiveNotecards, id.String())
		}
	}
	for _, m := range s.cfg.Modifiers() {
		state.Modifiers = append(state.Modifiers, m.String())
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
