// Package system holds the default OS collaborators of the server: a
// logging overlay sink, keyboard hooks and login-item registration.
package system

import (
	"log/slog"

	"github.com/aretw0/notecognito/pkg/core"
	"github.com/aretw0/notecognito/pkg/hotkey"
)

// LogSink is an overlay sink for headless runs: it logs what a renderer
// would draw.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Show(id core.NotecardID, content string, props core.DisplayProperties) error {
	s.logger.Info("show notecard",
		"id", id.String(),
		"chars", len(content),
		"opacity", props.Opacity,
		"position", props.Position,
		"auto_hide", props.AutoHideDuration,
	)
	return nil
}

func (s *LogSink) Hide(id core.NotecardID) error {
	s.logger.Debug("hide notecard", "id", id.String())
	return nil
}

func (s *LogSink) SetLaunchOnStartup(enabled bool) error {
	s.logger.Info("launch on startup", "enabled", enabled)
	return nil
}

// NoopHook never delivers a keystroke.
type NoopHook struct{}

func (NoopHook) Start(hotkey.Callback) error { return nil }
func (NoopHook) Stop() error { return nil }
