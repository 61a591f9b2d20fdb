package overlay

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notecognito/pkg/core"
)

type recordingSink struct {
	mu       sync.Mutex
	calls    []string
	showErr  error
	hideErr  error
	autoErr  error
	launches []bool
}

func (s *recordingSink) Show(id core.NotecardID, content string, _ core.DisplayProperties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("show(%d,%s)", id, content))
	return s.showErr
}

func (s *recordingSink) Hide(id core.NotecardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("hide(%d)", id))
	return s.hideErr
}

func (s *recordingSink) SetLaunchOnStartup(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launches = append(s.launches, enabled)
	return s.autoErr
}

func (s *recordingSink) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func TestController_ShowHidesFirst(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(sink, nil, nil)
	props := core.DefaultDisplayProperties()

	require.NoError(t, c.Show(3, "hello", props))
	require.NoError(t, c.Show(3, "hello again", props))

	assert.Equal(t, []string{"hide(3)", "show(3,hello)", "hide(3)", "show(3,hello again)"}, sink.Calls())
	assert.Equal(t, []core.NotecardID{3}, c.Visible())
}

func TestController_EmptyContentHides(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(sink, nil, nil)

	require.NoError(t, c.Show(2, "", core.DefaultDisplayProperties()))
	assert.Equal(t, []string{"hide(2)"}, sink.Calls())
	assert.Empty(t, c.Visible())
}

func TestController_ShowFailureIsPlatform(t *testing.T) {
	sink := &recordingSink{showErr: errors.New("no display")}
	c := NewController(sink, nil, nil)

	err := c.Show(1, "x", core.DefaultDisplayProperties())
	require.Error(t, err)
	assert.True(t, core.IsKind(err, core.KindPlatform))
	assert.Contains(t, err.Error(), "no display")
	// Not retried.
	assert.Equal(t, []string{"hide(1)", "show(1,x)"}, sink.Calls())
	assert.Equal(t, uint64(1), c.State().(ControllerState).Failures)
}

func TestController_HideFailureBeforeShowIsTolerated(t *testing.T) {
	sink := &recordingSink{hideErr: errors.New("flaky")}
	c := NewController(sink, nil, nil)

	require.NoError(t, c.Show(4, "four", core.DefaultDisplayProperties()))
	assert.Equal(t, []core.NotecardID{4}, c.Visible())
}

func TestController_MarshalsToMainThread(t *testing.T) {
	sink := &recordingSink{}
	mailbox := make(chan func())
	done := make(chan struct{})
	var onMain int
	go func() {
		defer close(done)
		for fn := range mailbox {
			onMain++
			fn()
		}
	}()

	c := NewController(sink, func(fn func()) { mailbox <- fn }, nil)
	require.NoError(t, c.Show(5, "five", core.DefaultDisplayProperties()))
	require.NoError(t, c.Hide(5))
	require.NoError(t, c.SetLaunchOnStartup(true))
	close(mailbox)
	<-done

	assert.Equal(t, 4, onMain)
	assert.Equal(t, []bool{true}, sink.launches)
}

func TestController_HideAll(t *testing.T) {
	sink := &recordingSink{}
	c := NewController(sink, nil, nil)
	props := core.DefaultDisplayProperties()
	require.NoError(t, c.Show(1, "a", props))
	require.NoError(t, c.Show(9, "b", props))

	c.HideAll()
	assert.Empty(t, c.Visible())
	calls := sink.Calls()
	assert.Equal(t, []string{"hide(1)", "hide(9)"}, calls[len(calls)-2:])
}
