package wire

import (
	"io"
)

// Framer reads and writes JMUX messages on a transport stream.
type Framer interface {
	// ReadFrame blocks until the next complete message is available, or returns the
	// underlying read error (including io.EOF) or a *ProtocolError.
	ReadFrame() (Message, error)

	// WriteFrame serializes and writes m to the transport. The whole frame is
	// encoded before anything is written (an Encode error writes nothing) and is
	// then handed to the transport in a single Write call.
	WriteFrame(m Message) error
}

type framer struct {
	r io.Reader
	w io.Writer

	maxFrame uint32
	header   [HeaderSize]byte
	body     []byte
}

// NewFramer returns a Framer reading from r and writing to w, rejecting any frame
// whose declared total length exceeds maxFrame.
func NewFramer(r io.Reader, w io.Writer, maxFrame uint32) Framer {
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &framer{r: r, w: w, maxFrame: maxFrame}
}

func (f *framer) ReadFrame() (Message, error) {
	if _, err := io.ReadFull(f.r, f.header[:]); err != nil {
		return nil, err
	}

	total := order.Uint32(f.header[0:])
	if total < HeaderSize {
		return nil, protoErr("declared frame length %d below header size %d", total, HeaderSize)
	}
	if total > f.maxFrame {
		return nil, protoErr("declared frame length %d exceeds cap %d", total, f.maxFrame)
	}

	bodyLen := int(total) - HeaderSize
	if cap(f.body) < bodyLen {
		f.body = make([]byte, bodyLen)
	}
	body := f.body[:bodyLen]
	if bodyLen > 0 {
		if _, err := io.ReadFull(f.r, body); err != nil {
			return nil, err
		}
	}

	tag := Tag(f.header[4])
	m, err := newMessage(tag)
	if err != nil {
		return nil, err
	}
	if err := m.decodeBody(body); err != nil {
		if err == errShort {
			return nil, protoErr("truncated %s body", tag)
		}
		return nil, err
	}
	return m, nil
}

func (f *framer) WriteFrame(m Message) error {
	buf, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = f.w.Write(buf)
	return err
}
