package notecognito

import (
	"context"
	"log/slog"

	"github.com/aretw0/notecognito/internal/platform"
	"github.com/aretw0/notecognito/pkg/core"
	"github.com/aretw0/notecognito/pkg/hotkey"
	"github.com/aretw0/notecognito/pkg/ipc"
	"github.com/aretw0/notecognito/pkg/overlay"
)

// --- Types ---

// Supervisor owns a running server.
type Supervisor = platform.Supervisor

// Config is the whole user configuration.
type Config = core.Config

// Notecard is one of the nine notecards.
type Notecard = core.Notecard

// NotecardID is a notecard number, 1 to 9.
type NotecardID = core.NotecardID

// Client is a connection to a running server.
type Client = ipc.Client

// StartupRegistrar registers the server as a login item.
type StartupRegistrar = platform.StartupRegistrar

// DefaultAddr is the loopback address the server listens on.
const DefaultAddr = ipc.DefaultAddr

// --- Configuration ---

// Option defines a functional option for configuring the server.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithConfigDir sets the configuration root.
func WithConfigDir(dir string) Option {
	return platform.WithConfigDir(dir)
}

// WithAddr overrides the RPC listen address.
func WithAddr(addr string) Option {
	return platform.WithAddr(addr)
}

// WithOverlaySink sets the overlay renderer.
func WithOverlaySink(sink overlay.Sink) Option {
	return platform.WithOverlaySink(sink)
}

// WithKeyHook sets the system keyboard hook.
func WithKeyHook(hook hotkey.Hook) Option {
	return platform.WithKeyHook(hook)
}

// WithStartupRegistrar sets who applies launch_on_startup.
func WithStartupRegistrar(r StartupRegistrar) Option {
	return platform.WithStartupRegistrar(r)
}

// WithKeymap overrides the digit keycodes.
func WithKeymap(k hotkey.Keymap) Option {
	return platform.WithKeymap(k)
}

// WithMainThread sets how overlay calls reach the UI thread.
func WithMainThread(post overlay.MainThreadFunc) Option {
	return platform.WithMainThread(post)
}

// WithWatch enables or disables reloading hand-edited config files.
func WithWatch(enabled bool) Option {
	return platform.WithWatch(enabled)
}

// WithDevSafety controls the dev sandbox for `go run` / `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New creates a server. Call Start to bring it up.
func New(opts ...Option) (*Supervisor, error) {
	return platform.New(opts...)
}

// ConfigPath returns where the configuration file lives for opts.
func ConfigPath(opts ...Option) (string, error) {
	return platform.ConfigPath(opts...)
}

// Dial connects to a running server at addr (DefaultAddr when empty).
func Dial(ctx context.Context, addr string) (*Client, error) {
	return ipc.Dial(ctx, addr)
}
