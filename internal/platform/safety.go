package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigDir overrides the configuration root.
const EnvConfigDir = "NOTECOGNITO_CONFIG_DIR"

// IsDevRun reports whether this binary came from `go run` or `go test`:
// both build under the temp dir, and test binaries are named *.test.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	name := strings.TrimSuffix(filepath.Base(exe), ".exe")
	return underTemp(exe) || strings.HasSuffix(name, ".test")
}

func underTemp(path string) bool {
	rel, err := filepath.Rel(os.TempDir(), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// sandboxRoot re-roots root under the temp dir, unless it is already there
// (t.TempDir() and friends).
func sandboxRoot(root string) string {
	if underTemp(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(os.TempDir(), "notecognito-dev")
}
