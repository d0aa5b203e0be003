package socks

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSocks4RequestIPv4(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x50}) // port 80
	buf.Write([]byte{93, 184, 216, 34})
	buf.WriteString("alice")
	buf.WriteByte(0x00)

	req, err := readSocks4Request(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, uint16(80), req.port)
	require.Equal(t, "93.184.216.34", req.ip.String())
	require.Equal(t, "alice", req.userID)
	require.Empty(t, req.domain)

	dest := req.destination()
	require.Equal(t, "tcp://93.184.216.34:80", dest.String())
}

func TestReadSocks4RequestSocks4aDomain(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x01, 0xBB}) // port 443
	buf.Write([]byte{0, 0, 0, 1}) // socks4a marker address
	buf.WriteByte(0x00)           // empty user id
	buf.WriteString("example.com")
	buf.WriteByte(0x00)

	req, err := readSocks4Request(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, uint16(443), req.port)
	require.Equal(t, "example.com", req.domain)

	dest := req.destination()
	require.Equal(t, "tcp://example.com:443", dest.String())
}

func TestWriteSocks4ReplyFormat(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, writeSocks4Reply(w, Socks4Granted))
	require.Equal(t, []byte{0x00, 0x5A, 0, 0, 0, 0, 0, 0}, buf.Bytes())
}
