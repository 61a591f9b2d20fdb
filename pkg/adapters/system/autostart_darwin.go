//go:build darwin

package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const autostartFileName = "com.notecognito.server.plist"

func defaultAutostartDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "LaunchAgents")
}

func renderAutostartEntry(exe string) (string, error) {
	args := fmt.Sprintf("        <string>%s</string>\n        <string>serve</string>", exe)
	// Inside an .app bundle, launch the bundle rather than the inner binary.
	if idx := strings.Index(exe, ".app/"); idx != -1 {
		args = fmt.Sprintf("        <string>/usr/bin/open</string>\n        <string>-a</string>\n        <string>%s</string>", exe[:idx+4])
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.notecognito.server</string>
    <key>ProgramArguments</key>
    <array>
%s
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`, args), nil
}
