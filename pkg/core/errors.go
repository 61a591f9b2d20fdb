package core

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindIO Kind = iota + 1
	KindJSON
	KindConfig
	KindIPC
	KindInvalidNotecardID
	KindPlatform
	KindConnectionLost
	KindInvalidMessage
	KindPermissionDenied
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindJSON:
		return "json"
	case KindConfig:
		return "config"
	case KindIPC:
		return "ipc"
	case KindInvalidNotecardID:
		return "invalid_notecard_id"
	case KindPlatform:
		return "platform"
	case KindConnectionLost:
		return "connection_lost"
	case KindInvalidMessage:
		return "invalid_message"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced by notecognito components.
// Msg carries the text of Config, Ipc, Platform and PermissionDenied errors;
// Value carries the rejected id of InvalidNotecardID.
type Error struct {
	Kind  Kind
	Msg   string
	Value uint8
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIO:
		return "IO error: " + e.causeText()
	case KindJSON:
		return "JSON serialization error: " + e.causeText()
	case KindConfig:
		return "Configuration error: " + e.Msg
	case KindIPC:
		return "IPC error: " + e.Msg
	case KindInvalidNotecardID:
		return fmt.Sprintf("Invalid notecard ID: %d", e.Value)
	case KindPlatform:
		return "Platform-specific error: " + e.Msg
	case KindConnectionLost:
		return "Connection lost"
	case KindInvalidMessage:
		return "Invalid message format"
	case KindPermissionDenied:
		return "Permission denied: " + e.Msg
	default:
		return e.causeText()
	}
}

func (e *Error) causeText() string {
	if e.Err != nil {
		if e.Msg != "" {
			return e.Msg + ": " + e.Err.Error()
		}
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on Kind alone, so the sentinels below match any
// error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil && t.Value == 0
}

// Common errors.
var (
	ErrConnectionLost = &Error{Kind: KindConnectionLost}
	ErrInvalidMessage = &Error{Kind: KindInvalidMessage}
)

// IsKind reports whether err (or anything it wraps) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IOError(msg string, err error) error {
	return &Error{Kind: KindIO, Msg: msg, Err: err}
}

func JSONError(err error) error {
	return &Error{Kind: KindJSON, Err: err}
}

func ConfigError(format string, args ...any) error {
	return &Error{Kind: KindConfig, Msg: fmt.Sprintf(format, args...)}
}

func IPCError(format string, args ...any) error {
	return &Error{Kind: KindIPC, Msg: fmt.Sprintf(format, args...)}
}

// PlatformError wraps a failure reported by an external collaborator.
func PlatformError(err error) error {
	var e *Error
	if errors.As(err, &e) && (e.Kind == KindPlatform || e.Kind == KindPermissionDenied) {
		return err
	}
	return &Error{Kind: KindPlatform, Msg: err.Error(), Err: err}
}

func PermissionDenied(msg string) error {
	return &Error{Kind: KindPermissionDenied, Msg: msg}
}

func ConnectionLost(err error) error {
	return &Error{Kind: KindConnectionLost, Err: err}
}

func InvalidMessage(err error) error {
	return &Error{Kind: KindInvalidMessage, Err: err}
}
