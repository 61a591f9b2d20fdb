package platform

import (
	"log/slog"
	"os"

	"github.com/aretw0/notecognito/pkg/adapters/fs"
)

// ResolveConfigRoot picks the directory that will hold notecognito/config.json:
// explicit dir, then $NOTECOGNITO_CONFIG_DIR, then the OS user config
// directory. Only the OS default is sandboxed by dev safety; an explicit or
// environment-provided root is taken as intent.
func ResolveConfigRoot(explicit string, devSafety bool, logger *slog.Logger) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return env, nil
	}

	root, err := fs.DefaultRoot()
	if err != nil {
		return "", err
	}
	if devSafety && IsDevRun() {
		sandboxed := sandboxRoot(root)
		if logger != nil {
			logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", root, "resolved_path", sandboxed)
		}
		return sandboxed, nil
	}
	return root, nil
}

// ConfigPath returns where the configuration file would live for opts,
// without creating anything.
func ConfigPath(opts ...Option) (string, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	root, err := ResolveConfigRoot(o.configDir, o.devSafety, nil)
	if err != nil {
		return "", err
	}
	return fs.FilePath(root), nil
}
