package wire

// OpenFailure refuses an Open. The reason_code mapping is not fixed by the wire
// contract itself (see internal/jmux.ReasonCode for the mapping this implementation
// applies when it originates an OpenFailure).
type OpenFailure struct {
	RecipientChannelID uint32
	ReasonCode          uint32
	Description         string
}

func (m *OpenFailure) Tag() Tag { return TagOpenFailure }

func (m *OpenFailure) encodedLen() int {
	return 4 + 4 + strLenSize + len(m.Description)
}

func (m *OpenFailure) encodeBody(buf []byte) {
	order.PutUint32(buf[0:], m.RecipientChannelID)
	order.PutUint32(buf[4:], m.ReasonCode)
	putString(buf[8:], m.Description)
}

func (m *OpenFailure) decodeBody(buf []byte) error {
	if len(buf) < 8 {
		return errShort
	}
	m.RecipientChannelID = order.Uint32(buf[0:])
	m.ReasonCode = order.Uint32(buf[4:])
	desc, _, err := getString(buf[8:])
	if err != nil {
		return err
	}
	m.Description = desc
	return nil
}
