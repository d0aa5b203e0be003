package wire

// OpenSuccess acknowledges an Open. recipient_channel_id is the peer's (now-remote to
// us) channel id from the Open we're responding to; sender_channel_id is the id we
// minted in our own namespace for this channel.
type OpenSuccess struct {
	RecipientChannelID uint32
	SenderChannelID     uint32
	InitialWindow       uint32
	MaximumPacketSize   uint32
}

func (m *OpenSuccess) Tag() Tag { return TagOpenSuccess }

func (m *OpenSuccess) encodedLen() int { return 16 }

func (m *OpenSuccess) encodeBody(buf []byte) {
	order.PutUint32(buf[0:], m.RecipientChannelID)
	order.PutUint32(buf[4:], m.SenderChannelID)
	order.PutUint32(buf[8:], m.InitialWindow)
	order.PutUint32(buf[12:], m.MaximumPacketSize)
}

func (m *OpenSuccess) decodeBody(buf []byte) error {
	if len(buf) < 16 {
		return errShort
	}
	m.RecipientChannelID = order.Uint32(buf[0:])
	m.SenderChannelID = order.Uint32(buf[4:])
	m.InitialWindow = order.Uint32(buf[8:])
	m.MaximumPacketSize = order.Uint32(buf[12:])
	return nil
}
