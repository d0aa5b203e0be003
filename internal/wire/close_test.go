package wire

import "testing"

func TestCloseRoundTrip(t *testing.T) {
	m := &Close{RecipientChannelID: 12}
	want := []byte{0, 0, 0, HeaderSize + 4, byte(TagClose), 0, 0, 0, 12}
	checkEncodeDecode(t, m, want)
}
