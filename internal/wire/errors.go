package wire

import (
	"errors"
	"fmt"
)

// errShort is returned internally by decodeBody/getString/getBytes when a field runs
// past the end of a frame's body. Since the frame is already complete at that point,
// Decode and Framer.ReadFrame report it as a *ProtocolError (truncated body), never
// as the exported ErrShort sentinel.
var errShort = errors.New("short buffer")

// ErrShort is returned by Decode when buf does not yet contain a complete frame.
// Callers should read more bytes from the transport and retry; the buffer must not
// be advanced.
var ErrShort = errors.New("wire: incomplete frame")

// ProtocolError reports a malformed frame: an invalid tag, a declared length below
// the header size, a declared length above the configured cap, a truncated string,
// or invalid UTF-8. Per spec.md §7 this is always fatal for the owning session.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string { return "wire: protocol error: " + e.msg }

func protoErr(format string, args ...interface{}) error {
	return &ProtocolError{msg: fmt.Sprintf(format, args...)}
}
