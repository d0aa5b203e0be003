// Package wire implements the JMUX binary message codec: encoding and decoding of
// the fixed set of JMUX messages to and from a length-delimited frame.
//
// Tag numbers, field order, and endianness are fixed by the JMUX wire contract and
// must never change without breaking interoperability with existing peers.
package wire

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

var order = binary.BigEndian

// Tag identifies the type of a JMUX message on the wire.
type Tag uint8

const (
	TagOpen         Tag = 100
	TagOpenSuccess  Tag = 101
	TagOpenFailure  Tag = 102
	TagWindowAdjust Tag = 103
	TagData         Tag = 104
	TagEOF          Tag = 105
	TagClose        Tag = 106
)

func (t Tag) String() string {
	switch t {
	case TagOpen:
		return "OPEN"
	case TagOpenSuccess:
		return "OPEN_SUCCESS"
	case TagOpenFailure:
		return "OPEN_FAILURE"
	case TagWindowAdjust:
		return "WINDOW_ADJUST"
	case TagData:
		return "DATA"
	case TagEOF:
		return "EOF"
	case TagClose:
		return "CLOSE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

const (
	// HeaderSize is the length of the outer frame header: a 4-byte big-endian
	// total length (including this header) followed by a 1-byte tag.
	HeaderSize = 5

	// DefaultMaxFrameSize is the default ceiling on total frame length
	// (header + payload), per spec.md §3.
	DefaultMaxFrameSize = 8*1024 + HeaderSize

	strLenSize  = 2 // uint16 length prefix for UTF-8 strings
	dataLenSize = 4 // uint32 length prefix for DATA payloads
)

// Message is any JMUX wire message.
type Message interface {
	Tag() Tag

	// encodedLen returns the size of the payload (excluding the outer header).
	encodedLen() int

	// encodeBody writes the message's payload (excluding the outer header) into buf,
	// which is guaranteed to be exactly encodedLen() bytes long.
	encodeBody(buf []byte)

	// decodeBody parses the message's payload (excluding the outer header) from buf.
	decodeBody(buf []byte) error
}

func putString(buf []byte, s string) int {
	order.PutUint16(buf, uint16(len(s)))
	copy(buf[strLenSize:], s)
	return strLenSize + len(s)
}

func getString(buf []byte) (string, int, error) {
	if len(buf) < strLenSize {
		return "", 0, errShort
	}
	n := int(order.Uint16(buf))
	if len(buf) < strLenSize+n {
		return "", 0, errShort
	}
	raw := buf[strLenSize : strLenSize+n]
	if !utf8.Valid(raw) {
		return "", 0, protoErr("invalid UTF-8 string")
	}
	return string(raw), strLenSize + n, nil
}

func putBytes(buf []byte, b []byte) int {
	order.PutUint32(buf, uint32(len(b)))
	copy(buf[dataLenSize:], b)
	return dataLenSize + len(b)
}

func getBytes(buf []byte) ([]byte, int, error) {
	if len(buf) < dataLenSize {
		return nil, 0, errShort
	}
	n := int(order.Uint32(buf))
	if len(buf) < dataLenSize+n {
		return nil, 0, errShort
	}
	b := buf[dataLenSize : dataLenSize+n]
	return b, dataLenSize + n, nil
}
