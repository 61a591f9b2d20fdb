package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/notecognito/pkg/adapters/fs"
	"github.com/aretw0/notecognito/pkg/adapters/system"
	"github.com/aretw0/notecognito/pkg/core"
	"github.com/aretw0/notecognito/pkg/dispatch"
	"github.com/aretw0/notecognito/pkg/hotkey"
	"github.com/aretw0/notecognito/pkg/ipc"
	"github.com/aretw0/notecognito/pkg/overlay"
)

// Supervisor owns every component of a running server and their lifetimes.
type Supervisor struct {
	opts   *options
	logger *slog.Logger
	root   string

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc

	file       *fs.ConfigFile
	store      *core.Store
	registry   *hotkey.Registry
	controller *overlay.Controller
	dispatcher *dispatch.Dispatcher
	reconciler *Reconciler
	hook       hotkey.Hook
	server     *ipc.Server
	watcher    *fs.WatchWorker
}

// New resolves options and the config root. Nothing is started yet.
//
//	sup, err := platform.New(platform.WithOverlaySink(sink), platform.WithKeyHook(hook))
func New(opts ...Option) (*Supervisor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	root, err := ResolveConfigRoot(o.configDir, o.devSafety, o.logger)
	if err != nil {
		return nil, err
	}
	return &Supervisor{opts: o, logger: o.logger, root: root}, nil
}

// Start brings the components up in dependency order. Any failure is fatal:
// whatever was already started is stopped again and the error is returned.
func (s *Supervisor) Start(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("supervisor already started")
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer func() {
		if err != nil {
			s.logger.Error("startup failed", "error", err)
			_ = s.shutdown(context.Background())
		}
	}()

	// 1. Load config.
	s.file, err = fs.NewConfigFile(s.root, s.logger)
	if err != nil {
		return err
	}
	cfg, err := s.file.LoadOrDefault()
	if err != nil {
		return err
	}
	s.logger.Info("configuration loaded", "path", s.file.Path())

	// 2. Store.
	s.store, err = core.NewStore(cfg)
	if err != nil {
		return err
	}
	cfg = s.store.Snapshot()

	// 3. Registry, seeded from the loaded config.
	s.hook = s.opts.hook
	if s.hook == nil {
		s.hook = system.NoopHook{}
	}
	s.registry = hotkey.NewRegistry(s.keymap(), s.logger)
	s.registry.Reconcile(cfg)

	// 4. Overlay controller.
	sink := s.opts.sink
	if sink == nil {
		sink = system.NewLogSink(s.logger)
	}
	s.controller = overlay.NewController(sink, s.opts.mainThread, s.logger)

	registrar := s.opts.registrar
	if registrar == nil {
		registrar = SinkRegistrar{Controller: s.controller}
	}
	s.reconciler = NewReconciler(s.store, s.registry, registrar, cfg.LaunchOnStartup, s.logger)

	// 5. Dispatcher consumer.
	s.dispatcher = dispatch.New(s.store, s.controller, s.logger)
	s.dispatcher.Run(runCtx)

	// 6. Keyboard hook, fed by the dispatcher's producer side.
	if err = s.hook.Start(s.dispatcher.HookCallback(s.registry)); err != nil {
		s.hook = nil
		return core.PlatformError(err)
	}

	// 7. RPC server.
	server := ipc.NewServer(s.store, s.file, s.reconciler, s.logger)
	if err = server.Listen(s.opts.addr); err != nil {
		return err
	}
	if err = server.Start(runCtx); err != nil {
		return err
	}
	s.server = server

	if s.opts.watch {
		watcher := s.file.NewWatchWorker(s.reload)
		if err = watcher.Start(runCtx); err != nil {
			return err
		}
		s.watcher = watcher
	}

	s.logger.Info("notecognito started", "addr", s.server.Addr(), "hotkeys", s.registry.Len())
	return nil
}

func (s *Supervisor) keymap() hotkey.Keymap {
	if s.opts.keymap != nil {
		return s.opts.keymap
	}
	if p, ok := s.hook.(hotkey.KeymapProvider); ok {
		return p.Keymap()
	}
	return hotkey.DefaultKeymap
}

// reload applies a config.json edited outside the server.
func (s *Supervisor) reload(cfg core.Config) {
	if err := s.store.ReplaceAll(cfg); err != nil {
		s.logger.Warn("rejected edited config", "path", s.file.Path(), "error", err)
		return
	}
	s.reconciler.Config(cfg)
}

// Stop closes the dispatcher's producer side, stops the hook, the RPC
// listener and the watcher, then hides any overlay still on screen. State is
// persisted on every write, so there is nothing to flush.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	return s.shutdown(ctx)
}

func (s *Supervisor) shutdown(ctx context.Context) error {
	if s.stopped {
		return nil
	}
	s.stopped = true

	var errs []error
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	if s.hook != nil {
		if err := s.hook.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop keyboard hook: %w", err))
		}
	}
	if s.server != nil {
		if err := s.server.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop rpc server: %w", err))
		}
	}
	if s.watcher != nil {
		if err := s.watcher.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop config watcher: %w", err))
		}
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("wait for dispatcher: %w", err))
		}
	}
	// The consumer is gone, so nothing can show a card after this.
	if s.controller != nil {
		s.controller.HideAll()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("notecognito stopped")
	return errors.Join(errs...)
}

// Addr is the RPC listen address once started.
func (s *Supervisor) Addr() string {
	if s.server == nil {
		return ""
	}
	return s.server.Addr()
}

// ConfigPath is the location of config.json.
func (s *Supervisor) ConfigPath() string {
	return fs.FilePath(s.root)
}

func (s *Supervisor) Store() *core.Store { return s.store }
func (s *Supervisor) Registry() *hotkey.Registry { return s.registry }
func (s *Supervisor) Overlay() *overlay.Controller { return s.controller }

// SupervisorState exposes the state of every component.
type SupervisorState struct {
	ConfigPath string        `json:"config_path"`
	Addr       string        `json:"addr"`
	Store      any           `json:"store,omitempty"`
	Registry   any           `json:"registry,omitempty"`
	Overlay    any           `json:"overlay,omitempty"`
	Dispatcher any           `json:"dispatcher,omitempty"`
	Server     *worker.State `json:"server,omitempty"`
	Watcher    *worker.State `json:"watcher,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Supervisor) State() any {
	state := SupervisorState{ConfigPath: s.ConfigPath(), Addr: s.Addr()}
	if s.store != nil {
		state.Store = s.store.State()
	}
	if s.registry != nil {
		state.Registry = s.registry.State()
	}
	if s.controller != nil {
		state.Overlay = s.controller.State()
	}
	if s.dispatcher != nil {
		state.Dispatcher = s.dispatcher.State()
	}
	if s.server != nil {
		st := s.server.State()
		state.Server = &st
	}
	if s.watcher != nil {
		st := s.watcher.State()
		state.Watcher = &st
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Supervisor) ComponentType() string {
	return "supervisor"
}

var _ introspection.Introspectable = (*Supervisor)(nil)
var _ introspection.Component = (*Supervisor)(nil)
