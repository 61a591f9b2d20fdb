package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/google/uuid"

	"github.com/aretw0/notecognito/pkg/core"
)

// Response texts.
const (
	MsgNotecardUpdated    = "Notecard updated successfully"
	MsgConfigurationSaved = "Configuration saved successfully"
	MsgInvalidMessageType = "Invalid message type"
)

// Store is the configuration state the server reads and writes.
type Store interface {
	Snapshot() core.Config
	Update(mutate func(*core.Config) error, persist func(core.Config) error) (core.Config, error)
}

// Persister makes a configuration durable. Satisfied by *fs.ConfigFile.
type Persister interface {
	Save(cfg core.Config) error
}

// Reconciler aligns the rest of the process with a configuration that was
// just committed. Concurrent writers may reconcile out of commit order, so
// cfg can already be superseded when a call arrives.
type Reconciler interface {
	// Notecards re-registers hotkeys only.
	Notecards(cfg core.Config)
	// Config re-registers hotkeys and applies the auto-launch flag.
	Config(cfg core.Config)
}

// Server answers configuration requests on a loopback TCP socket. The accept
// loop runs as a worker; each connection is served on its own goroutine.
type Server struct {
	*worker.BaseWorker
	store      Store
	persister  Persister
	reconciler Reconciler
	logger     *slog.Logger

	listener net.Listener
	cancel   context.CancelFunc

	mu    sync.Mutex
	conns map[string]net.Conn
	wg    sync.WaitGroup

	requests       atomic.Uint64
	failures       atomic.Uint64
	protocolErrors atomic.Uint64
}

// NewServer builds a server. persister and reconciler may be nil.
func NewServer(store Store, persister Persister, reconciler Reconciler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		BaseWorker: worker.NewBaseWorker("rpc-server"),
		store:      store,
		persister:  persister,
		reconciler: reconciler,
		logger:     logger,
		conns:      make(map[string]net.Conn),
	}
}

// Listen binds addr. Use "127.0.0.1:0" to let the OS pick a port.
func (s *Server) Listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return core.IOError("failed to bind "+addr, err)
	}
	s.listener = l
	return nil
}

// Addr is the bound address, or "" before Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := s.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("rpc server already started (status: %s)", status)
	}
	if s.listener == nil {
		return fmt.Errorf("rpc server is not listening")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.SetStatus(worker.StatusRunning)
	s.logger.Info("rpc server listening", "addr", s.Addr())
	return s.StartFunc(runCtx, s.run)
}

// Stop closes the listener and every open connection, then waits for the
// connection handlers to return.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.StopRequested = true
		s.cancel()
	}
	return s.BaseWorker.Stop(ctx)
}

func (s *Server) State() worker.State {
	return s.ExportState(func(st *worker.State) {
		s.mu.Lock()
		open := len(s.conns)
		s.mu.Unlock()
		st.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"addr":              s.Addr(),
			"connections":       fmt.Sprintf("%d", open),
			"requests":          fmt.Sprintf("%d", s.requests.Load()),
			"failures":          fmt.Sprintf("%d", s.failures.Load()),
			"protocol_errors":   fmt.Sprintf("%d", s.protocolErrors.Load()),
		}
	})
}

func (s *Server) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("rpc server panic: %v", recovered)
			if s.logger.Enabled(ctx, slog.LevelDebug) {
				s.logger.Error("rpc server panic", "error", err, "stack", string(debug.Stack()))
			} else {
				s.logger.Error("rpc server panic", "error", err)
			}
		}
	}()

	stop := context.AfterFunc(ctx, func() { _ = s.listener.Close() })
	defer stop()
	defer s.closeAll()

	for {
		conn, aErr := s.listener.Accept()
		if aErr != nil {
			if s.StopRequested || ctx.Err() != nil || errors.Is(aErr, net.ErrClosed) {
				return nil
			}
			s.logger.Error("accept failed", "error", aErr)
			continue
		}
		s.track(ctx, conn)
	}
}

func (s *Server) track(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()
	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()

	s.wg.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.conns, id)
			s.mu.Unlock()
		}()
		s.serveConn(ctx, id, conn)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("connection handler failed", "conn", id, "error", err)
	}))
}

func (s *Server) closeAll() {
	s.mu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) serveConn(ctx context.Context, id string, conn net.Conn) {
	logger := s.logger.With("conn", id, "remote", conn.RemoteAddr().String())
	defer conn.Close()
	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("connection panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("connection panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("connection panic", "error", err)
			}
		}
	}()

	logger.Debug("client connected")
	for {
		req, err := ReadMessage(conn)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				logger.Debug("client disconnected")
			case ctx.Err() != nil:
			case core.IsKind(err, core.KindInvalidMessage):
				s.protocolErrors.Add(1)
				logger.Error("protocol violation, closing connection", "error", err)
			default:
				logger.Warn("connection lost", "error", err)
			}
			return
		}

		resp := s.Handle(req)
		if err := WriteMessage(conn, resp); err != nil {
			logger.Warn("failed to write response", "type", string(resp.Type), "error", err)
			return
		}
	}
}

// Handle computes the response to one request. The response always carries
// the request's id.
func (s *Server) Handle(req Message) Message {
	s.requests.Add(1)
	s.logger.Debug("rpc request", "id", req.ID, "type", string(req.Type))

	switch req.Type {
	case TypeGetConfiguration:
		return NewConfigurationResponse(req.ID, s.store.Snapshot())

	case TypeUpdateNotecard:
		card := *req.Notecard
		cfg, err := s.store.Update(func(c *core.Config) error {
			return c.SetNotecard(card)
		}, s.persist)
		if err != nil {
			return s.fail(req, err)
		}
		if s.reconciler != nil {
			s.reconciler.Notecards(cfg)
		}
		s.logger.Info("notecard updated", "id", card.ID.String())
		return NewSuccess(req.ID, MsgNotecardUpdated)

	case TypeSaveConfiguration:
		next := req.Config.Clone()
		cfg, err := s.store.Update(func(c *core.Config) error {
			*c = next
			return nil
		}, s.persist)
		if err != nil {
			return s.fail(req, err)
		}
		if s.reconciler != nil {
			s.reconciler.Config(cfg)
		}
		s.logger.Info("configuration saved")
		return NewSuccess(req.ID, MsgConfigurationSaved)

	default:
		s.failures.Add(1)
		s.logger.Warn("client sent a server-only message", "id", req.ID, "type", string(req.Type))
		return NewError(req.ID, MsgInvalidMessageType)
	}
}

func (s *Server) fail(req Message, err error) Message {
	s.failures.Add(1)
	s.logger.Warn("rpc request failed", "id", req.ID, "type", string(req.Type), "error", err)
	return NewError(req.ID, err.Error())
}

func (s *Server) persist(cfg core.Config) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Save(cfg)
}
