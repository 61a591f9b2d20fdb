package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/notecognito/pkg/core"
)

const headerSize = 4

// WriteFrame writes body with its length prefix in a single Write.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxMessageSize {
		return core.InvalidMessage(fmt.Errorf("frame of %d bytes exceeds limit of %d", len(body), MaxMessageSize))
	}
	buf := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[headerSize:], body)
	if _, err := w.Write(buf); err != nil {
		return core.ConnectionLost(err)
	}
	return nil
}

// ReadFrame reads one length-prefixed body. It returns io.EOF when the peer
// closed cleanly between frames, an InvalidMessage error when the announced
// length exceeds MaxMessageSize (nothing past the header is read), and a
// ConnectionLost error for anything cut short.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, core.ConnectionLost(err)
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size > MaxMessageSize {
		return nil, core.InvalidMessage(fmt.Errorf("frame of %d bytes exceeds limit of %d", size, MaxMessageSize))
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, core.ConnectionLost(err)
	}
	return body, nil
}

// WriteMessage encodes and frames m.
func WriteMessage(w io.Writer, m Message) error {
	body, err := Encode(m)
	if err != nil {
		return err
	}
	return WriteFrame(w, body)
}

// ReadMessage reads and decodes one framed message.
func ReadMessage(r io.Reader) (Message, error) {
	body, err := ReadFrame(r)
	if err != nil {
		return Message{}, err
	}
	return Decode(body)
}
