// Package fs maps the notecognito configuration to a JSON file on disk and
// watches that file for edits made outside the server.
package fs

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/notecognito/pkg/core"
)

const (
	// AppDirName is the directory created under the user config root.
	AppDirName = "notecognito"
	// FileName is the config file inside AppDirName.
	FileName = "config.json"
)

// DefaultRoot returns the user config root (e.g. ~/.config on linux).
func DefaultRoot() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", core.ConfigError("Could not determine config directory: %v", err)
	}
	return root, nil
}

// FilePath returns the location of config.json under root.
func FilePath(root string) string {
	return filepath.Join(root, AppDirName, FileName)
}

// ConfigFile loads and saves the Config at <root>/notecognito/config.json.
type ConfigFile struct {
	dir    string
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	lastSeen [sha256.Size]byte
}

// NewConfigFile creates <root>/notecognito if needed.
func NewConfigFile(root string, logger *slog.Logger) (*ConfigFile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(root, AppDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, core.IOError("failed to create config directory", err)
	}
	return &ConfigFile{
		dir:    dir,
		path:   filepath.Join(dir, FileName),
		logger: logger,
	}, nil
}

// Path returns the absolute location of config.json.
func (f *ConfigFile) Path() string {
	return f.path
}

// Dir returns the directory holding config.json.
func (f *ConfigFile) Dir() string {
	return f.dir
}

// LoadOrDefault reads the file, or returns core.DefaultConfig when it does
// not exist yet.
func (f *ConfigFile) LoadOrDefault() (core.Config, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.logger.Debug("config file not found, using defaults", "path", f.path)
		return core.DefaultConfig(), nil
	}
	if err != nil {
		return core.Config{}, core.IOError("failed to read config", err)
	}

	cfg, err := decode(data)
	if err != nil {
		return core.Config{}, err
	}
	f.markSeen(data)
	return cfg, nil
}

// Save writes cfg pretty-printed. On success a later LoadOrDefault observes
// exactly cfg.
func (f *ConfigFile) Save(cfg core.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return core.JSONError(err)
	}
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return core.IOError("failed to create config directory", err)
	}
	if err := writeFileAtomic(f.path, data, 0644); err != nil {
		return core.IOError("failed to save config", err)
	}
	f.markSeen(data)
	f.logger.Debug("config saved", "path", f.path, "bytes", len(data))
	return nil
}

// readIfChanged returns the parsed file and true when its bytes differ from
// the last content this ConfigFile wrote or accepted.
func (f *ConfigFile) readIfChanged() (core.Config, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return core.Config{}, false, core.IOError("failed to read config", err)
	}
	sum := sha256.Sum256(data)

	f.mu.Lock()
	same := sum == f.lastSeen
	f.mu.Unlock()
	if same {
		return core.Config{}, false, nil
	}

	cfg, err := decode(data)
	if err != nil {
		return core.Config{}, false, err
	}
	f.markSeen(data)
	return cfg, true, nil
}

func (f *ConfigFile) markSeen(data []byte) {
	sum := sha256.Sum256(data)
	f.mu.Lock()
	f.lastSeen = sum
	f.mu.Unlock()
}

func decode(data []byte) (core.Config, error) {
	var cfg core.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return core.Config{}, core.JSONError(fmt.Errorf("failed to parse config: %w", err))
	}
	return cfg, nil
}
