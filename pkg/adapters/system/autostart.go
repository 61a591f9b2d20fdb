package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/notecognito/pkg/core"
)

// Autostart registers the server as a login item by writing the platform's
// launch entry (XDG .desktop file, LaunchAgent plist).
type Autostart struct {
	dir string
	exe string
}

// NewAutostart targets the current user's autostart directory and the
// running executable.
func NewAutostart() *Autostart {
	exe, _ := os.Executable()
	return &Autostart{dir: defaultAutostartDir(), exe: exe}
}

// NewAutostartAt targets dir and exe explicitly.
func NewAutostartAt(dir, exe string) *Autostart {
	return &Autostart{dir: dir, exe: exe}
}

// Path is the launch entry managed by a.
func (a *Autostart) Path() string {
	return filepath.Join(a.dir, autostartFileName)
}

// Enabled reports whether the launch entry exists.
func (a *Autostart) Enabled() bool {
	_, err := os.Stat(a.Path())
	return err == nil
}

// Set writes or removes the launch entry. Removing an absent entry is not
// an error.
func (a *Autostart) Set(enabled bool) error {
	if !enabled {
		if err := os.Remove(a.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return autostartError(err)
		}
		return nil
	}

	if a.dir == "" || a.exe == "" {
		return core.PlatformError(errors.New("autostart location unknown"))
	}
	entry, err := renderAutostartEntry(a.exe)
	if err != nil {
		return core.PlatformError(err)
	}
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return autostartError(err)
	}
	if err := os.WriteFile(a.Path(), []byte(entry), 0644); err != nil {
		return autostartError(err)
	}
	return nil
}

func autostartError(err error) error {
	if errors.Is(err, os.ErrPermission) {
		return core.PermissionDenied(err.Error())
	}
	return core.PlatformError(fmt.Errorf("autostart: %w", err))
}
