package core

import (
	"sync"
)

// Store owns the process-wide Config and mediates every read and write.
// All reads hand out copies; all writes validate before they commit.
type Store struct {
	mu     sync.Mutex
	cfg    Config
	writes uint64
}

// NewStore builds a store from cfg, backfilling and validating it.
func NewStore(cfg Config) (*Store, error) {
	cfg = cfg.Clone()
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &Store{cfg: cfg}, nil
}

// Snapshot returns a deep copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Get looks up a notecard. The second result is false only for ids outside 1..9.
func (s *Store) Get(id NotecardID) (Notecard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.cfg.Notecards[id]
	return n, ok
}

// Put validates n and replaces the card with the same id.
func (s *Store) Put(n Notecard) error {
	_, err := s.Update(func(c *Config) error { return c.SetNotecard(n) }, nil)
	return err
}

// ReplaceAll swaps the whole configuration. Missing cards are backfilled; if
// any card is invalid nothing changes.
func (s *Store) ReplaceAll(cfg Config) error {
	_, err := s.Update(func(c *Config) error {
		*c = cfg.Clone()
		return nil
	}, nil)
	return err
}

// Modifiers returns the hotkey modifiers with duplicates removed.
func (s *Store) Modifiers() []HotkeyModifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Modifiers()
}

func (s *Store) LaunchOnStartup() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.LaunchOnStartup
}

func (s *Store) SetLaunchOnStartup(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.LaunchOnStartup = enabled
	s.writes++
}

// Update applies mutate to a copy of the configuration, normalizes it, hands
// it to persist (if non-nil) and only then commits it. The whole sequence
// runs under the store lock, so a successful return means the new state is
// both visible and durable. On any error the store is left unchanged.
func (s *Store) Update(mutate func(*Config) error, persist func(Config) error) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	if err := mutate(&next); err != nil {
		return Config{}, err
	}
	if err := next.Normalize(); err != nil {
		return Config{}, err
	}
	if persist != nil {
		if err := persist(next); err != nil {
			return Config{}, err
		}
	}
	s.cfg = next
	s.writes++
	return next.Clone(), nil
}
