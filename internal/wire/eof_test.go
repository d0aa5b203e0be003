package wire

import "testing"

func TestEOFRoundTrip(t *testing.T) {
	m := &EOF{RecipientChannelID: 11}
	want := []byte{0, 0, 0, HeaderSize + 4, byte(TagEOF), 0, 0, 0, 11}
	checkEncodeDecode(t, m, want)
}
