package wire

// Close tears a channel down. A peer that receives Close while its send half is
// still open must reply with its own Close (internal/jmux's channel.handleClose
// does this).
type Close struct {
	RecipientChannelID uint32
}

func (m *Close) Tag() Tag { return TagClose }

func (m *Close) encodedLen() int { return 4 }

func (m *Close) encodeBody(buf []byte) {
	order.PutUint32(buf[0:], m.RecipientChannelID)
}

func (m *Close) decodeBody(buf []byte) error {
	if len(buf) < 4 {
		return errShort
	}
	m.RecipientChannelID = order.Uint32(buf[0:])
	return nil
}
