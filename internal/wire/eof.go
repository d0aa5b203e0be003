package wire

// EOF signals that the sender will write no more data on this channel. Buffered
// inbound data already in flight remains readable.
type EOF struct {
	RecipientChannelID uint32
}

func (m *EOF) Tag() Tag { return TagEOF }

func (m *EOF) encodedLen() int { return 4 }

func (m *EOF) encodeBody(buf []byte) {
	order.PutUint32(buf[0:], m.RecipientChannelID)
}

func (m *EOF) decodeBody(buf []byte) error {
	if len(buf) < 4 {
		return errShort
	}
	m.RecipientChannelID = order.Uint32(buf[0:])
	return nil
}
