//go:build linux

package system

import (
	"fmt"
	"os"
	"path/filepath"
)

const autostartFileName = "notecognito.desktop"

func defaultAutostartDir() string {
	config := os.Getenv("XDG_CONFIG_HOME")
	if config == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		config = filepath.Join(home, ".config")
	}
	return filepath.Join(config, "autostart")
}

func renderAutostartEntry(exe string) (string, error) {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=Notecognito
Comment=Summon notecards with a hotkey
Exec=%s serve
Terminal=false
Categories=Utility;
X-GNOME-Autostart-enabled=true
`, exe), nil
}
