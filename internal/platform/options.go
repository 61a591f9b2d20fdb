package platform

import (
	"log/slog"

	"github.com/aretw0/notecognito/pkg/hotkey"
	"github.com/aretw0/notecognito/pkg/ipc"
	"github.com/aretw0/notecognito/pkg/overlay"
)

// options holds the internal configuration of the supervisor.
type options struct {
	logger     *slog.Logger
	configDir  string
	addr       string
	sink       overlay.Sink
	hook       hotkey.Hook
	registrar  StartupRegistrar
	keymap     hotkey.Keymap
	mainThread overlay.MainThreadFunc
	watch      bool
	devSafety  bool
}

// Option defines a functional option for configuring the supervisor.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		addr:      ipc.DefaultAddr,
		watch:     true,
		devSafety: true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfigDir sets the user configuration root; the file lives at
// <dir>/notecognito/config.json. It takes precedence over
// NOTECOGNITO_CONFIG_DIR and the OS default, and is never re-rooted by dev
// safety.
func WithConfigDir(dir string) Option {
	return func(o *options) {
		o.configDir = dir
	}
}

// WithAddr overrides the RPC listen address. Defaults to 127.0.0.1:7855.
func WithAddr(addr string) Option {
	return func(o *options) {
		o.addr = addr
	}
}

// WithOverlaySink sets the overlay renderer. Defaults to a sink that logs.
func WithOverlaySink(sink overlay.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithKeyHook sets the system keyboard hook. Defaults to a hook that never
// fires.
func WithKeyHook(hook hotkey.Hook) Option {
	return func(o *options) {
		o.hook = hook
	}
}

// WithStartupRegistrar sets who applies launch_on_startup. Defaults to the
// overlay sink's SetLaunchOnStartup.
func WithStartupRegistrar(r StartupRegistrar) Option {
	return func(o *options) {
		o.registrar = r
	}
}

// WithKeymap overrides the digit keycodes. By default they come from the
// hook when it provides them, else hotkey.DefaultKeymap.
func WithKeymap(k hotkey.Keymap) Option {
	return func(o *options) {
		o.keymap = k
	}
}

// WithMainThread sets how overlay calls reach the UI thread.
func WithMainThread(post overlay.MainThreadFunc) Option {
	return func(o *options) {
		o.mainThread = post
	}
}

// WithWatch enables or disables reloading config.json when it is edited by
// hand. Enabled by default.
func WithWatch(enabled bool) Option {
	return func(o *options) {
		o.watch = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`: by default the config root is moved under the temp directory
// so development runs cannot touch the real configuration.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}
