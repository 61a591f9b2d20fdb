//go:build darwin

package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notecognito/pkg/hotkey"
)

func TestNewKeyboardHook_MacKeymap(t *testing.T) {
	hook := NewKeyboardHook("", nil)
	p, ok := hook.(hotkey.KeymapProvider)
	require.True(t, ok)
	assert.Equal(t, uint32(0x12), p.Keymap().DigitKeycode(1))
	assert.Equal(t, uint32(0x19), p.Keymap().DigitKeycode(9))
	require.NoError(t, hook.Start(func(hotkey.ModifierSet, uint32) bool { return false }))
	assert.NoError(t, hook.Stop())
}
