//go:build linux

package system

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/notecognito/pkg/core"
	"github.com/aretw0/notecognito/pkg/hotkey"
)

// EvdevHook reads key events from a /dev/input keyboard device. The device
// is read, not grabbed, so a matched keystroke still reaches the focused
// window.
type EvdevHook struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	device *os.File
	done   chan struct{}
}

// NewKeyboardHook returns the evdev hook, reading devicePath or the first
// keyboard found when it is empty.
func NewKeyboardHook(devicePath string, logger *slog.Logger) hotkey.Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvdevHook{path: devicePath, logger: logger}
}

func (h *EvdevHook) Keymap() hotkey.Keymap {
	return hotkey.EvdevKeymap
}

func (h *EvdevHook) Start(cb hotkey.Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.device != nil {
		return core.PlatformError(errors.New("keyboard hook already started"))
	}

	path := h.path
	if path == "" {
		found, err := findKeyboardDevice()
		if err != nil {
			return core.PlatformError(fmt.Errorf("failed to find keyboard device: %w", err))
		}
		path = found
	}

	device, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return core.PermissionDenied(fmt.Sprintf("%s (run as root or join the 'input' group)", path))
		}
		return core.PlatformError(err)
	}
	h.device = device
	h.done = make(chan struct{})
	h.logger.Info("keyboard hook started", "device", path)

	go h.read(device, cb, h.done)
	return nil
}

func (h *EvdevHook) read(device *os.File, cb hotkey.Callback, done chan struct{}) {
	defer close(done)
	tracker := newModifierTracker()
	buf := make([]byte, inputEventSize)
	for {
		if _, err := io.ReadFull(device, buf); err != nil {
			if !errors.Is(err, os.ErrClosed) {
				h.logger.Warn("keyboard hook stopped", "error", err)
			}
			return
		}
		mods, code, ok := tracker.feed(decodeInputEvent(buf))
		if !ok {
			continue
		}
		cb(mods, code)
	}
}

func (h *EvdevHook) Stop() error {
	h.mu.Lock()
	device, done := h.device, h.done
	h.device = nil
	h.mu.Unlock()

	if device == nil {
		return nil
	}
	err := device.Close()
	<-done
	return err
}

// findKeyboardDevice picks the first keyboard under /dev/input/by-id, then
// falls back to /proc/bus/input/devices.
func findKeyboardDevice() (string, error) {
	byID := "/dev/input/by-id"
	if entries, err := os.ReadDir(byID); err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasSuffix(name, "-event-kbd") {
				return filepath.Join(byID, name), nil
			}
		}
	}

	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return "", err
	}
	defer f.Close()

	isKeyboard := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "N: Name="):
			name := strings.ToLower(line)
			isKeyboard = strings.Contains(name, "keyboard") || strings.Contains(name, "kbd")
		case strings.HasPrefix(line, "H: Handlers=") && isKeyboard:
			for _, part := range strings.Fields(line) {
				if strings.HasPrefix(part, "event") {
					return "/dev/input/" + part, nil
				}
			}
		case line == "":
			isKeyboard = false
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no keyboard in /proc/bus/input/devices")
}
