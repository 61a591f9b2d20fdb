package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notecognito/pkg/adapters/system"
	"github.com/aretw0/notecognito/pkg/core"
	"github.com/aretw0/notecognito/pkg/hotkey"
	"github.com/aretw0/notecognito/pkg/ipc"
)

type recordingSink struct {
	mu    sync.Mutex
	shows []string
}

func (s *recordingSink) Show(id core.NotecardID, content string, props core.DisplayProperties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows = append(s.shows, fmt.Sprintf("show(%d,%s,%d)", id, content, props.Opacity))
	return nil
}

func (s *recordingSink) Hide(core.NotecardID) error { return nil }
func (s *recordingSink) SetLaunchOnStartup(bool) error { return nil }

func (s *recordingSink) Shows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.shows...)
}

type fakeHook struct {
	mu       sync.Mutex
	cb       hotkey.Callback
	startErr error
	stopped  bool
}

func (h *fakeHook) Start(cb hotkey.Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.startErr != nil {
		return h.startErr
	}
	h.cb = cb
	return nil
}

func (h *fakeHook) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	return nil
}

func (h *fakeHook) Keymap() hotkey.Keymap { return hotkey.EvdevKeymap }

// press simulates a key-down on the hook thread.
func (h *fakeHook) press(mods hotkey.ModifierSet, id core.NotecardID) bool {
	h.mu.Lock()
	cb := h.cb
	h.mu.Unlock()
	return cb(mods, hotkey.EvdevKeymap.DigitKeycode(id))
}

type fakeRegistrar struct {
	mu    sync.Mutex
	calls []bool
}

func (r *fakeRegistrar) Set(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, enabled)
	return nil
}

func (r *fakeRegistrar) Calls() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.calls...)
}

type harness struct {
	sup       *Supervisor
	sink      *recordingSink
	hook      *fakeHook
	registrar *fakeRegistrar
	client    *ipc.Client
	dir       string
}

func start(t *testing.T, dir string, extra ...Option) *harness {
	t.Helper()
	h := &harness{sink: &recordingSink{}, hook: &fakeHook{}, registrar: &fakeRegistrar{}, dir: dir}
	opts := append([]Option{
		WithConfigDir(dir),
		WithAddr("127.0.0.1:0"),
		WithOverlaySink(h.sink),
		WithKeyHook(h.hook),
		WithStartupRegistrar(h.registrar),
		WithWatch(false),
	}, extra...)

	sup, err := New(opts...)
	require.NoError(t, err)
	require.NoError(t, sup.Start(context.Background()))
	h.sup = sup

	h.client, err = ipc.Dial(context.Background(), sup.Addr())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = h.client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = sup.Stop(ctx)
	})
	return h
}

func TestSupervisor_HotkeyScenarios(t *testing.T) {
	h := start(t, t.TempDir())
	ctx := context.Background()
	ctrlShift := hotkey.Control | hotkey.Shift

	// Fresh install.
	cfg, err := h.client.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Len(t, cfg.Notecards, 9)
	assert.Equal(t, []core.HotkeyModifier{core.ModControl, core.ModShift}, cfg.HotkeyModifiers)
	assert.False(t, cfg.LaunchOnStartup)
	assert.Equal(t, hotkey.Empty, h.sup.Registry().Phase())

	// Update one notecard, then fire its hotkey.
	require.NoError(t, h.client.UpdateNotecard(ctx, core.Notecard{ID: 3, Content: "hello"}))
	assert.True(t, h.hook.press(ctrlShift, 3), "matched keystroke is consumed")
	assert.False(t, h.hook.press(ctrlShift|hotkey.Alt, 3), "extra modifier passes through")

	assert.Eventually(t, func() bool {
		return len(h.sink.Shows()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"show(3,hello,95)"}, h.sink.Shows())

	// Clearing the card unregisters it.
	require.NoError(t, h.client.UpdateNotecard(ctx, core.Notecard{ID: 3, Content: ""}))
	assert.False(t, h.hook.press(ctrlShift, 3))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, h.sink.Shows(), 1)
}

func TestSupervisor_AutoLaunchOnlyOnChange(t *testing.T) {
	h := start(t, t.TempDir())
	ctx := context.Background()

	cfg, err := h.client.GetConfiguration(ctx)
	require.NoError(t, err)

	cfg.LaunchOnStartup = true
	require.NoError(t, h.client.SaveConfiguration(ctx, cfg))
	require.NoError(t, h.client.SaveConfiguration(ctx, cfg))
	require.NoError(t, h.client.UpdateNotecard(ctx, core.Notecard{ID: 1, Content: "one"}))
	assert.Equal(t, []bool{true}, h.registrar.Calls())

	cfg.LaunchOnStartup = false
	require.NoError(t, h.client.SaveConfiguration(ctx, cfg))
	assert.Equal(t, []bool{true, false}, h.registrar.Calls())
}

func TestSupervisor_SaveConfigurationRebindsModifiers(t *testing.T) {
	h := start(t, t.TempDir())
	ctx := context.Background()

	cfg := core.DefaultConfig()
	cfg.HotkeyModifiers = []core.HotkeyModifier{core.ModAlt}
	cfg.Notecards[7] = core.Notecard{ID: 7, Content: "seven"}
	require.NoError(t, h.client.SaveConfiguration(ctx, cfg))

	assert.False(t, h.hook.press(hotkey.Control|hotkey.Shift, 7))
	assert.True(t, h.hook.press(hotkey.Alt, 7))
}

func TestSupervisor_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	first := start(t, dir)
	require.NoError(t, first.client.UpdateNotecard(context.Background(), core.Notecard{ID: 2, Content: "kept"}))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, first.sup.Stop(ctx))
	assert.True(t, first.hook.stopped)

	second := start(t, dir)
	card, ok := second.sup.Store().Get(2)
	require.True(t, ok)
	assert.Equal(t, "kept", card.Content)
	_, bound := second.sup.Registry().Bound(2)
	assert.True(t, bound, "registry is seeded from the loaded config")
	assert.Empty(t, second.registrar.Calls(), "startup does not call the registrar")
}

func TestSupervisor_ReloadsExternalEdits(t *testing.T) {
	h := start(t, t.TempDir(), WithWatch(true))

	cfg := core.DefaultConfig()
	cfg.Notecards[5] = core.Notecard{ID: 5, Content: "from an editor"}
	data, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(h.sup.ConfigPath(), data, 0644))

	assert.Eventually(t, func() bool {
		_, bound := h.sup.Registry().Bound(5)
		return bound
	}, 3*time.Second, 20*time.Millisecond)
	card, _ := h.sup.Store().Get(5)
	assert.Equal(t, "from an editor", card.Content)
}

func TestSupervisor_StartupFailures(t *testing.T) {
	t.Run("Config root is a file", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(root, []byte("x"), 0644))
		sup, err := New(WithConfigDir(root), WithAddr("127.0.0.1:0"))
		require.NoError(t, err)
		err = sup.Start(context.Background())
		require.Error(t, err)
		assert.True(t, core.IsKind(err, core.KindIO))
	})

	t.Run("Port in use", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer l.Close()

		hook := &fakeHook{}
		sup, err := New(WithConfigDir(t.TempDir()), WithAddr(l.Addr().String()), WithKeyHook(hook), WithWatch(false))
		require.NoError(t, err)
		err = sup.Start(context.Background())
		require.Error(t, err)
		assert.True(t, core.IsKind(err, core.KindIO))
		assert.True(t, hook.stopped, "hook is stopped again on failed startup")
	})

	t.Run("Hook refuses to start", func(t *testing.T) {
		hook := &fakeHook{startErr: errors.New("no access to input devices")}
		sup, err := New(WithConfigDir(t.TempDir()), WithAddr("127.0.0.1:0"), WithKeyHook(hook))
		require.NoError(t, err)
		err = sup.Start(context.Background())
		require.Error(t, err)
		assert.True(t, core.IsKind(err, core.KindPlatform))
		assert.Empty(t, sup.Addr(), "rpc server never started")
	})

	t.Run("Double start", func(t *testing.T) {
		h := start(t, t.TempDir())
		assert.Error(t, h.sup.Start(context.Background()))
	})
}

func TestSupervisor_MissingKeyboardKeepsServing(t *testing.T) {
	primary := &fakeHook{startErr: core.PlatformError(errors.New("no keyboard in /proc/bus/input/devices"))}
	hook := system.NewFallbackHook(primary, nil)
	h := start(t, t.TempDir(), WithKeyHook(hook))

	assert.True(t, hook.Degraded())
	require.NotEmpty(t, h.sup.Addr())

	ctx := context.Background()
	require.NoError(t, h.client.UpdateNotecard(ctx, core.Notecard{ID: 2, Content: "still here"}))
	cfg, err := h.client.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, "still here", cfg.Notecards[2].Content)
	assert.Equal(t, hotkey.EvdevKeymap.DigitKeycode(2), h.sup.Registry().KeycodeFor(2))
}

func TestSupervisor_StopHidesOverlays(t *testing.T) {
	h := start(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, h.client.UpdateNotecard(ctx, core.Notecard{ID: 7, Content: "seven"}))
	require.True(t, h.hook.press(hotkey.Control|hotkey.Shift, 7))
	require.Eventually(t, func() bool {
		return len(h.sup.Overlay().Visible()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, h.sup.Stop(stopCtx))
	assert.Empty(t, h.sup.Overlay().Visible())
}

func TestSupervisor_State(t *testing.T) {
	h := start(t, t.TempDir())
	state := h.sup.State().(SupervisorState)
	assert.Equal(t, h.sup.Addr(), state.Addr)
	assert.Equal(t, filepath.Join(h.dir, "notecognito", "config.json"), state.ConfigPath)
	require.NotNil(t, state.Server)
	assert.Equal(t, h.sup.Addr(), state.Server.Metadata["addr"])
	assert.Nil(t, state.Watcher)
	assert.Equal(t, "supervisor", h.sup.ComponentType())
}
