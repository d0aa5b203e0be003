package wire

import (
	"bytes"
	"testing"
)

func checkEncodeDecode(t *testing.T, m Message, want []byte) {
	t.Helper()
	encoded, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(want, encoded) {
		t.Fatalf("Encode mismatch.\n got: %x\nwant: %x", encoded, want)
	}

	decoded, n, err := Decode(encoded, DefaultMaxFrameSize)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n != len(encoded) {
		t.Fatalf("Decode consumed %d bytes, want %d", n, len(encoded))
	}
	if !messagesEqual(m, decoded) {
		t.Fatalf("round-trip mismatch.\n got: %#v\nwant: %#v", decoded, m)
	}
}

func messagesEqual(a, b Message) bool {
	switch av := a.(type) {
	case *Open:
		bv := b.(*Open)
		return av.SenderChannelID == bv.SenderChannelID &&
			av.InitialWindow == bv.InitialWindow &&
			av.MaximumPacketSize == bv.MaximumPacketSize &&
			av.DestinationURL == bv.DestinationURL
	case *OpenSuccess:
		bv := b.(*OpenSuccess)
		return *av == *bv
	case *OpenFailure:
		bv := b.(*OpenFailure)
		return av.RecipientChannelID == bv.RecipientChannelID &&
			av.ReasonCode == bv.ReasonCode &&
			av.Description == bv.Description
	case *WindowAdjust:
		bv := b.(*WindowAdjust)
		return *av == *bv
	case *Data:
		bv := b.(*Data)
		return av.RecipientChannelID == bv.RecipientChannelID && bytes.Equal(av.TransferData, bv.TransferData)
	case *EOF:
		bv := b.(*EOF)
		return *av == *bv
	case *Close:
		bv := b.(*Close)
		return *av == *bv
	default:
		return false
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	m := &Close{RecipientChannelID: 7}
	encoded, err := Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n < len(encoded); n++ {
		if _, _, err := Decode(encoded[:n], DefaultMaxFrameSize); err != ErrShort {
			t.Fatalf("Decode(%d bytes) = %v, want ErrShort", n, err)
		}
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	buf := make([]byte, HeaderSize)
	order.PutUint32(buf, HeaderSize)
	buf[4] = 0 // not a valid tag
	if _, _, err := Decode(buf, DefaultMaxFrameSize); err == nil {
		t.Fatalf("Decode with unknown tag should fail")
	} else if _, ok := err.(*ProtocolError); !ok {
		t.Fatalf("Decode with unknown tag returned %T, want *ProtocolError", err)
	}
}

func TestDecodeOversizeFrame(t *testing.T) {
	buf := make([]byte, HeaderSize)
	order.PutUint32(buf, 1<<20)
	buf[4] = byte(TagClose)
	if _, _, err := Decode(buf, DefaultMaxFrameSize); err == nil {
		t.Fatalf("Decode with oversize frame should fail")
	}
}

func TestDecodeLengthBelowHeader(t *testing.T) {
	buf := make([]byte, HeaderSize)
	order.PutUint32(buf, 2)
	buf[4] = byte(TagClose)
	if _, _, err := Decode(buf, DefaultMaxFrameSize); err == nil {
		t.Fatalf("Decode with length below header size should fail")
	}
}

// Decoding a byte string should either fail, report "need more," or consume a
// prefix whose re-encoding equals that prefix.
func TestDecodeConsumesExactPrefix(t *testing.T) {
	msgs := []Message{
		&Open{SenderChannelID: 1, InitialWindow: 2, MaximumPacketSize: 3, DestinationURL: "tcp://host:1"},
		&Close{RecipientChannelID: 9},
	}
	var all []byte
	for _, m := range msgs {
		buf, err := Encode(m)
		if err != nil {
			t.Fatal(err)
		}
		all = append(all, buf...)
	}
	all = append(all, 0xFF) // trailing garbage that is not a complete frame

	offset := 0
	for i := 0; i < len(msgs); i++ {
		m, n, err := Decode(all[offset:], DefaultMaxFrameSize)
		if err != nil {
			t.Fatalf("message %d: Decode failed: %v", i, err)
		}
		reencoded, err := Encode(m)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(reencoded, all[offset:offset+n]) {
			t.Fatalf("message %d: re-encoding does not match consumed prefix", i)
		}
		offset += n
	}
	// what remains is a lone trailing byte: not a complete frame
	if _, _, err := Decode(all[offset:], DefaultMaxFrameSize); err != ErrShort {
		t.Fatalf("trailing garbage: Decode = %v, want ErrShort", err)
	}
}
