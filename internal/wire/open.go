package wire

// Open begins a new channel. sender_channel_id is the id the sender minted for
// this channel in its own (local) namespace.
type Open struct {
	SenderChannelID   uint32
	InitialWindow     uint32
	MaximumPacketSize uint32
	DestinationURL    string
}

func (m *Open) Tag() Tag { return TagOpen }

func (m *Open) encodedLen() int {
	return 4 + 4 + 4 + strLenSize + len(m.DestinationURL)
}

func (m *Open) encodeBody(buf []byte) {
	order.PutUint32(buf[0:], m.SenderChannelID)
	order.PutUint32(buf[4:], m.InitialWindow)
	order.PutUint32(buf[8:], m.MaximumPacketSize)
	putString(buf[12:], m.DestinationURL)
}

func (m *Open) decodeBody(buf []byte) error {
	if len(buf) < 12 {
		return errShort
	}
	m.SenderChannelID = order.Uint32(buf[0:])
	m.InitialWindow = order.Uint32(buf[4:])
	m.MaximumPacketSize = order.Uint32(buf[8:])
	url, _, err := getString(buf[12:])
	if err != nil {
		return err
	}
	m.DestinationURL = url
	return nil
}
