//go:build !linux && !darwin

package system

import (
	"fmt"
	"runtime"
)

const autostartFileName = "notecognito-autostart"

func defaultAutostartDir() string { return "" }

func renderAutostartEntry(string) (string, error) {
	return "", fmt.Errorf("autostart is not supported on %s", runtime.GOOS)
}
