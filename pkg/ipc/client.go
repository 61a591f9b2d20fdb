package ipc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/notecognito/pkg/core"
)

// Client is a connection to a running server. Requests are serialized: one
// request and its response at a time.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	lastID int64
	logger *slog.Logger
}

// Dial connects to addr (DefaultAddr when empty).
func Dial(ctx context.Context, addr string) (*Client, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, core.ConnectionLost(err)
	}
	return &Client{conn: conn, logger: slog.Default()}, nil
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

func (c *Client) GetConfiguration(ctx context.Context) (core.Config, error) {
	resp, err := c.roundTrip(ctx, NewGetConfiguration(c.nextID()))
	if err != nil {
		return core.Config{}, err
	}
	switch resp.Type {
	case TypeConfigurationResponse:
		return *resp.Config, nil
	case TypeError:
		return core.Config{}, core.IPCError("%s", resp.Text)
	default:
		return core.Config{}, core.IPCError("unexpected response type %s", resp.Type)
	}
}

func (c *Client) UpdateNotecard(ctx context.Context, n core.Notecard) error {
	return c.expectSuccess(ctx, NewUpdateNotecard(c.nextID(), n))
}

func (c *Client) SaveConfiguration(ctx context.Context, cfg core.Config) error {
	return c.expectSuccess(ctx, NewSaveConfiguration(c.nextID(), cfg))
}

// Close drops the connection. Later calls fail with ConnectionLost.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) expectSuccess(ctx context.Context, req Message) error {
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return err
	}
	switch resp.Type {
	case TypeSuccess:
		return nil
	case TypeError:
		return core.IPCError("%s", resp.Text)
	default:
		return core.IPCError("unexpected response type %s", resp.Type)
	}
}

func (c *Client) roundTrip(ctx context.Context, req Message) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return Message{}, core.ConnectionLost(errors.New("client is closed"))
	}
	// Encode first: an oversize request must not poison the connection.
	body, err := Encode(req)
	if err != nil {
		return Message{}, err
	}

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Message{}, c.broken(err)
	}
	// Cancellation without a deadline still unblocks the read.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := WriteFrame(c.conn, body); err != nil {
		return Message{}, c.broken(ctxErr(ctx, err))
	}
	resp, err := ReadMessage(c.conn)
	if err != nil {
		return Message{}, c.broken(ctxErr(ctx, err))
	}
	if resp.ID != req.ID {
		c.logger.Debug("response id does not match request", "request", req.ID, "response", resp.ID)
	}
	return resp, nil
}

// broken closes the connection after a transport failure; its state is
// unknown from here on.
func (c *Client) broken(err error) error {
	_ = c.conn.Close()
	c.conn = nil
	if core.IsKind(err, core.KindInvalidMessage) || core.IsKind(err, core.KindConnectionLost) {
		return err
	}
	return core.ConnectionLost(err)
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return core.ConnectionLost(ctx.Err())
	}
	// The socket deadline can fire before the context's own timer does.
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return core.ConnectionLost(context.DeadlineExceeded)
	}
	return err
}

// nextID returns a millisecond timestamp, bumped when needed so ids issued
// by one client strictly increase.
func (c *Client) nextID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ms := time.Now().UnixMilli()
	if ms <= c.lastID {
		ms = c.lastID + 1
	}
	c.lastID = ms
	return strconv.FormatInt(ms, 10)
}
