package wire

// WindowAdjust replenishes the sender's outbound window for a channel.
type WindowAdjust struct {
	RecipientChannelID uint32
	WindowAdjustment    uint32
}

func (m *WindowAdjust) Tag() Tag { return TagWindowAdjust }

func (m *WindowAdjust) encodedLen() int { return 8 }

func (m *WindowAdjust) encodeBody(buf []byte) {
	order.PutUint32(buf[0:], m.RecipientChannelID)
	order.PutUint32(buf[4:], m.WindowAdjustment)
}

func (m *WindowAdjust) decodeBody(buf []byte) error {
	if len(buf) < 8 {
		return errShort
	}
	m.RecipientChannelID = order.Uint32(buf[0:])
	m.WindowAdjustment = order.Uint32(buf[4:])
	return nil
}
