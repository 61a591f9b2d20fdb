// Package ipc implements the loopback RPC used by the settings UI to read
// and write the configuration of a running Notecognito server.
//
// Every message is framed as a little-endian u32 length followed by a JSON
// body of the form {"id": "...", "type": "<Type>", ...payload}.
package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/notecognito/pkg/core"
)

const (
	// DefaultAddr is the fixed loopback address of the server.
	DefaultAddr = "127.0.0.1:7855"
	// MaxMessageSize is the largest body accepted in either direction.
	MaxMessageSize = 1 << 20
)

// Type is the tag of a message.
type Type string

const (
	TypeGetConfiguration      Type = "GetConfiguration"
	TypeUpdateNotecard        Type = "UpdateNotecard"
	TypeSaveConfiguration     Type = "SaveConfiguration"
	TypeConfigurationResponse Type = "ConfigurationResponse"
	TypeSuccess               Type = "Success"
	TypeError                 Type = "Error"
)

// Known reports whether t is one of the six protocol tags.
func (t Type) Known() bool {
	switch t {
	case TypeGetConfiguration, TypeUpdateNotecard, TypeSaveConfiguration,
		TypeConfigurationResponse, TypeSuccess, TypeError:
		return true
	}
	return false
}

// Request reports whether clients may send t.
func (t Type) Request() bool {
	return t == TypeGetConfiguration || t == TypeUpdateNotecard || t == TypeSaveConfiguration
}

// Message is one request or response. Only the payload field matching Type
// is meaningful.
type Message struct {
	ID       string
	Type     Type
	Notecard *core.Notecard // UpdateNotecard
	Config   *core.Config   // SaveConfiguration, ConfigurationResponse
	Text     string         // Success, Error
}

type wireMessage struct {
	ID       *string        `json:"id"`
	Type     Type           `json:"type"`
	Notecard *core.Notecard `json:"notecard,omitempty"`
	Config   *core.Config   `json:"config,omitempty"`
	Message  *string        `json:"message,omitempty"`
}

func NewGetConfiguration(id string) Message {
	return Message{ID: id, Type: TypeGetConfiguration}
}

func NewUpdateNotecard(id string, n core.Notecard) Message {
	return Message{ID: id, Type: TypeUpdateNotecard, Notecard: &n}
}

func NewSaveConfiguration(id string, cfg core.Config) Message {
	return Message{ID: id, Type: TypeSaveConfiguration, Config: &cfg}
}

func NewConfigurationResponse(id string, cfg core.Config) Message {
	return Message{ID: id, Type: TypeConfigurationResponse, Config: &cfg}
}

func NewSuccess(id, text string) Message {
	return Message{ID: id, Type: TypeSuccess, Text: text}
}

func NewError(id, text string) Message {
	return Message{ID: id, Type: TypeError, Text: text}
}

// MarshalJSON emits only the payload belonging to the message's tag.
func (m Message) MarshalJSON() ([]byte, error) {
	id := m.ID
	w := wireMessage{ID: &id, Type: m.Type}
	switch m.Type {
	case TypeUpdateNotecard:
		w.Notecard = m.Notecard
	case TypeSaveConfiguration, TypeConfigurationResponse:
		w.Config = m.Config
	case TypeSuccess, TypeError:
		text := m.Text
		w.Message = &text
	}
	return json.Marshal(w)
}

// UnmarshalJSON rejects unknown tags and messages missing the payload their
// tag requires. Extra fields are ignored.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == nil {
		return fmt.Errorf("missing field \"id\"")
	}
	if !w.Type.Known() {
		return fmt.Errorf("unknown message type %q", w.Type)
	}

	out := Message{ID: *w.ID, Type: w.Type}
	switch w.Type {
	case TypeUpdateNotecard:
		if w.Notecard == nil {
			return fmt.Errorf("%s: missing field \"notecard\"", w.Type)
		}
		out.Notecard = w.Notecard
	case TypeSaveConfiguration, TypeConfigurationResponse:
		if w.Config == nil {
			return fmt.Errorf("%s: missing field \"config\"", w.Type)
		}
		out.Config = w.Config
	case TypeSuccess, TypeError:
		if w.Message == nil {
			return fmt.Errorf("%s: missing field \"message\"", w.Type)
		}
		out.Text = *w.Message
	}
	*m = out
	return nil
}

// Encode serializes m, refusing bodies over MaxMessageSize.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, core.JSONError(err)
	}
	if len(body) > MaxMessageSize {
		return nil, core.InvalidMessage(fmt.Errorf("message of %d bytes exceeds limit of %d", len(body), MaxMessageSize))
	}
	return body, nil
}

// Decode parses a frame body. Any failure is an InvalidMessage error.
func Decode(body []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return Message{}, core.InvalidMessage(err)
	}
	return m, nil
}
