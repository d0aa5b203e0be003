package wire

// Encode serializes m into a freshly allocated frame (header + payload). Encoding is
// infallible for any in-memory Message value produced by this package; the error
// return exists only to guard against a payload so large its length overflows the
// wire's length fields (e.g. a DestinationURL longer than 65535 bytes).
func Encode(m Message) ([]byte, error) {
	bodyLen := m.encodedLen()
	if err := checkEncodable(m, bodyLen); err != nil {
		return nil, err
	}

	total := HeaderSize + bodyLen
	buf := make([]byte, total)
	order.PutUint32(buf[0:], uint32(total))
	buf[4] = byte(m.Tag())
	m.encodeBody(buf[HeaderSize:])
	return buf, nil
}

func checkEncodable(m Message, bodyLen int) error {
	switch v := m.(type) {
	case *Open:
		if len(v.DestinationURL) > 0xFFFF {
			return protoErr("destination_url too long: %d bytes", len(v.DestinationURL))
		}
	case *OpenFailure:
		if len(v.Description) > 0xFFFF {
			return protoErr("description too long: %d bytes", len(v.Description))
		}
	case *Data:
		if len(v.TransferData) > 0xFFFFFFFF-dataLenSize {
			return protoErr("transfer_data too long: %d bytes", len(v.TransferData))
		}
	}
	if bodyLen < 0 {
		return protoErr("negative encoded length")
	}
	return nil
}

// Decode parses the next complete message from the front of buf.
//
// Three outcomes are possible:
//   - a complete message is parsed: (msg, consumed, nil) with consumed > 0
//   - buf does not yet hold a complete frame: (nil, 0, ErrShort) — buf must not be
//     advanced; the caller should read more bytes and retry
//   - buf holds malformed data: (nil, 0, *ProtocolError)
//
// maxFrame bounds the total frame length (header included); frames declaring a
// larger length are rejected as a protocol error without waiting for the rest of the
// frame to arrive.
func Decode(buf []byte, maxFrame uint32) (Message, int, error) {
	if len(buf) < HeaderSize {
		return nil, 0, ErrShort
	}

	total := order.Uint32(buf[0:])
	if total < HeaderSize {
		return nil, 0, protoErr("declared frame length %d below header size %d", total, HeaderSize)
	}
	if total > maxFrame {
		return nil, 0, protoErr("declared frame length %d exceeds cap %d", total, maxFrame)
	}
	if uint32(len(buf)) < total {
		return nil, 0, ErrShort
	}

	tag := Tag(buf[4])
	body := buf[HeaderSize:total]

	m, err := newMessage(tag)
	if err != nil {
		return nil, 0, err
	}
	if err := m.decodeBody(body); err != nil {
		if err == errShort {
			return nil, 0, protoErr("truncated %s body", tag)
		}
		return nil, 0, err
	}
	return m, int(total), nil
}

func newMessage(tag Tag) (Message, error) {
	switch tag {
	case TagOpen:
		return &Open{}, nil
	case TagOpenSuccess:
		return &OpenSuccess{}, nil
	case TagOpenFailure:
		return &OpenFailure{}, nil
	case TagWindowAdjust:
		return &WindowAdjust{}, nil
	case TagData:
		return &Data{}, nil
	case TagEOF:
		return &EOF{}, nil
	case TagClose:
		return &Close{}, nil
	default:
		return nil, protoErr("unknown tag %d", uint8(tag))
	}
}
