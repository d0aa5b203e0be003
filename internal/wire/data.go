package wire

// Data carries a slice of channel payload. TransferData is only valid until the next
// call to Framer.ReadFrame; copy it out if it needs to outlive that call.
type Data struct {
	RecipientChannelID uint32
	TransferData        []byte
}

func (m *Data) Tag() Tag { return TagData }

func (m *Data) encodedLen() int {
	return 4 + dataLenSize + len(m.TransferData)
}

func (m *Data) encodeBody(buf []byte) {
	order.PutUint32(buf[0:], m.RecipientChannelID)
	putBytes(buf[4:], m.TransferData)
}

func (m *Data) decodeBody(buf []byte) error {
	if len(buf) < 4 {
		return errShort
	}
	m.RecipientChannelID = order.Uint32(buf[0:])
	data, _, err := getBytes(buf[4:])
	if err != nil {
		return err
	}
	m.TransferData = data
	return nil
}
