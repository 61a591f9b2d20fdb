package ipc

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/notecognito/pkg/adapters/fs"
	"github.com/aretw0/notecognito/pkg/core"
)

type memPersister struct {
	mu    sync.Mutex
	saves int
	err   error
}

func (p *memPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

func (p *memPersister) Save(core.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saves++
	return nil
}

type recReconciler struct {
	mu        sync.Mutex
	notecards int
	configs   int
	last      core.Config
}

func (r *recReconciler) Notecards(cfg core.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notecards++
	r.last = cfg
}

func (r *recReconciler) Config(cfg core.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs++
	r.last = cfg
}

func newTestStore(t *testing.T) *core.Store {
	t.Helper()
	s, err := core.NewStore(core.DefaultConfig())
	require.NoError(t, err)
	return s
}

func startServer(t *testing.T, store Store, p Persister, r Reconciler) *Server {
	t.Helper()
	srv := NewServer(store, p, r, nil)
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return srv
}

func dial(t *testing.T, srv *Server) *Client {
	t.Helper()
	c, err := Dial(context.Background(), srv.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func rawExchange(t *testing.T, conn net.Conn, body string) map[string]any {
	t.Helper()
	require.NoError(t, WriteFrame(conn, []byte(body)))
	resp, err := ReadFrame(conn)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(resp, &doc))
	return doc
}

func TestServer_FreshInstall(t *testing.T) {
	srv := startServer(t, newTestStore(t), nil, nil)

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	doc := rawExchange(t, conn, `{"id":"abc","type":"GetConfiguration"}`)
	assert.Equal(t, "abc", doc["id"])
	assert.Equal(t, "ConfigurationResponse", doc["type"])

	cfg := doc["config"].(map[string]any)
	assert.Equal(t, false, cfg["launch_on_startup"])
	assert.Equal(t, []any{"Control", "Shift"}, cfg["hotkey_modifiers"])
	cards := cfg["notecards"].(map[string]any)
	require.Len(t, cards, 9)
	for _, key := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"} {
		card := cards[key].(map[string]any)
		assert.Equal(t, "", card["content"], "card %s", key)
	}
}

func TestServer_UpdateNotecard(t *testing.T) {
	file, err := fs.NewConfigFile(t.TempDir(), nil)
	require.NoError(t, err)
	rec := &recReconciler{}
	srv := startServer(t, newTestStore(t), file, rec)
	c := dial(t, srv)
	ctx := context.Background()

	require.NoError(t, c.UpdateNotecard(ctx, core.Notecard{ID: 3, Content: "hello"}))

	cfg, err := c.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", cfg.Notecards[3].Content)

	data, err := os.ReadFile(file.Path())
	require.NoError(t, err)
	var onDisk struct {
		Notecards map[string]struct {
			ID      int    `json:"id"`
			Content string `json:"content"`
		} `json:"notecards"`
	}
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, 3, onDisk.Notecards["3"].ID)
	assert.Equal(t, "hello", onDisk.Notecards["3"].Content)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.notecards)
	assert.Equal(t, 0, rec.configs, "UpdateNotecard does not touch auto-launch")
}

func TestServer_OversizeContentRejected(t *testing.T) {
	p := &memPersister{}
	store := newTestStore(t)
	require.NoError(t, store.Put(core.Notecard{ID: 1, Content: "original"}))
	srv := startServer(t, store, p, nil)
	c := dial(t, srv)
	ctx := context.Background()

	err := c.UpdateNotecard(ctx, core.Notecard{ID: 1, Content: strings.Repeat("a", core.MaxContentLength+1)})
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindIPC))
	assert.Contains(t, err.Error(), "maximum length")

	cfg, err := c.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, "original", cfg.Notecards[1].Content)
	assert.Zero(t, p.Saves())
}

func TestServer_SaveConfiguration(t *testing.T) {
	rec := &recReconciler{}
	p := &memPersister{}
	srv := startServer(t, newTestStore(t), p, rec)
	c := dial(t, srv)
	ctx := context.Background()

	cfg := core.DefaultConfig()
	cfg.LaunchOnStartup = true
	cfg.HotkeyModifiers = []core.HotkeyModifier{core.ModAlt}
	cfg.Notecards[9] = core.Notecard{ID: 9, Content: "nine"}
	require.NoError(t, c.SaveConfiguration(ctx, cfg))

	got, err := c.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.Equal(got))
	assert.Equal(t, 1, p.Saves())
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.configs)
	assert.True(t, rec.last.LaunchOnStartup)
}

func TestServer_SaveFailureLeavesStoreUnchanged(t *testing.T) {
	p := &memPersister{err: errors.New("disk full")}
	rec := &recReconciler{}
	store := newTestStore(t)
	srv := startServer(t, store, p, rec)
	c := dial(t, srv)

	err := c.UpdateNotecard(context.Background(), core.Notecard{ID: 2, Content: "lost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	card, _ := store.Get(2)
	assert.True(t, card.IsEmpty())
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Zero(t, rec.notecards)
}

func TestServer_ServerOnlyTagKeepsConnection(t *testing.T) {
	srv := startServer(t, newTestStore(t), nil, nil)
	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	for _, body := range []string{
		`{"id":"s","type":"Success","message":"hi"}`,
		`{"id":"e","type":"Error","message":"hi"}`,
		`{"id":"c","type":"ConfigurationResponse","config":{}}`,
	} {
		doc := rawExchange(t, conn, body)
		assert.Equal(t, "Error", doc["type"])
		assert.Equal(t, MsgInvalidMessageType, doc["message"])
	}

	doc := rawExchange(t, conn, `{"id":"g","type":"GetConfiguration"}`)
	assert.Equal(t, "g", doc["id"])
	assert.Equal(t, "ConfigurationResponse", doc["type"])
}

func TestServer_ProtocolViolationClosesConnection(t *testing.T) {
	tests := []struct {
		name  string
		write func(conn net.Conn)
	}{
		{"Oversize frame", func(conn net.Conn) {
			var header [4]byte
			binary.LittleEndian.PutUint32(header[:], 2_000_000)
			_, _ = conn.Write(header[:])
			_, _ = conn.Write(make([]byte, 2_000_000))
		}},
		{"Malformed JSON", func(conn net.Conn) {
			_ = WriteFrame(conn, []byte(`{"id":`))
		}},
		{"Unknown tag", func(conn net.Conn) {
			_ = WriteFrame(conn, []byte(`{"id":"1","type":"Shutdown"}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			before := store.Snapshot()
			srv := startServer(t, store, nil, nil)

			conn, err := net.Dial("tcp", srv.Addr())
			require.NoError(t, err)
			defer conn.Close()

			go tt.write(conn)

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			buf := make([]byte, 16)
			n, err := conn.Read(buf)
			require.Error(t, err, "connection must be closed")
			var netErr net.Error
			if errors.As(err, &netErr) {
				assert.False(t, netErr.Timeout(), "server did not close the connection")
			}
			assert.Zero(t, n, "no response expected")
			assert.True(t, before.Equal(store.Snapshot()))
			assert.Eventually(t, func() bool {
				return srv.State().Metadata["protocol_errors"] == "1"
			}, time.Second, 10*time.Millisecond)
		})
	}
}

func TestServer_ConcurrentClients(t *testing.T) {
	store := newTestStore(t)
	srv := startServer(t, store, &memPersister{}, &recReconciler{})

	g, ctx := errgroup.WithContext(context.Background())
	for _, id := range core.AllNotecardIDs() {
		g.Go(func() error {
			c, err := Dial(ctx, srv.Addr())
			if err != nil {
				return err
			}
			defer c.Close()
			for i := 0; i < 5; i++ {
				if err := c.UpdateNotecard(ctx, core.Notecard{ID: id, Content: "card " + id.String()}); err != nil {
					return err
				}
				cfg, err := c.GetConfiguration(ctx)
				if err != nil {
					return err
				}
				if cfg.Notecards[id].Content != "card "+id.String() {
					return errors.New("read did not observe own write")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, id := range core.AllNotecardIDs() {
		card, _ := store.Get(id)
		assert.Equal(t, "card "+id.String(), card.Content)
	}
}

func TestServer_StopClosesClients(t *testing.T) {
	srv := NewServer(newTestStore(t), nil, nil, nil)
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	require.NoError(t, srv.Start(context.Background()))
	assert.Error(t, srv.Start(context.Background()), "double start")

	c, err := Dial(context.Background(), srv.Addr())
	require.NoError(t, err)
	defer c.Close()
	_, err = c.GetConfiguration(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	_, err = c.GetConfiguration(context.Background())
	assert.ErrorIs(t, err, core.ErrConnectionLost)

	_, err = Dial(context.Background(), srv.Addr())
	assert.ErrorIs(t, err, core.ErrConnectionLost)
}

func TestServer_ListenFailure(t *testing.T) {
	srv := startServer(t, newTestStore(t), nil, nil)
	other := NewServer(newTestStore(t), nil, nil, nil)
	err := other.Listen(srv.Addr())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindIO))
	assert.Error(t, other.Start(context.Background()), "not listening")
}

func TestClient_ContextDeadline(t *testing.T) {
	// A listener that accepts but never answers.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		conn, err := l.Accept()
		if err == nil {
			defer conn.Close()
			time.Sleep(2 * time.Second)
		}
	}()

	c, err := Dial(context.Background(), l.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.GetConfiguration(ctx)
	assert.ErrorIs(t, err, core.ErrConnectionLost)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_IDsStrictlyIncrease(t *testing.T) {
	c := &Client{}
	prev := int64(0)
	for i := 0; i < 100; i++ {
		n, err := strconv.ParseInt(c.nextID(), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
}
