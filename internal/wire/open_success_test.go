package wire

import "testing"

func TestOpenSuccessRoundTrip(t *testing.T) {
	m := &OpenSuccess{RecipientChannelID: 1, SenderChannelID: 2, InitialWindow: 3, MaximumPacketSize: 4}
	want := []byte{
		0, 0, 0, HeaderSize + 16,
		byte(TagOpenSuccess),
		0, 0, 0, 1,
		0, 0, 0, 2,
		0, 0, 0, 3,
		0, 0, 0, 4,
	}
	checkEncodeDecode(t, m, want)
}
