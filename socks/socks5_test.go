package socks

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNegotiateSocks5MethodChoosesNoAuth(t *testing.T) {
	var in bytes.Buffer
	in.WriteByte(socks5Version)
	in.WriteByte(2) // method count
	in.Write([]byte{socks5MethodGSSAPI, socks5MethodNoAuth})

	var out bytes.Buffer
	rw := bufio.NewReadWriter(bufio.NewReader(&in), bufio.NewWriter(&out))

	require.NoError(t, negotiateSocks5Method(rw))
	require.Equal(t, []byte{socks5Version, socks5MethodNoAuth}, out.Bytes())
}

func TestNegotiateSocks5MethodRejectsWhenNoAuthAbsent(t *testing.T) {
	var in bytes.Buffer
	in.WriteByte(socks5Version)
	in.WriteByte(1)
	in.WriteByte(socks5MethodUserPassword)

	var out bytes.Buffer
	rw := bufio.NewReadWriter(bufio.NewReader(&in), bufio.NewWriter(&out))

	err := negotiateSocks5Method(rw)
	require.Error(t, err)
	require.Equal(t, []byte{socks5Version, socks5MethodNoAcceptable}, out.Bytes())
}

func TestReadSocks5RequestIPv4(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{socks5Version, socks5CommandConnect, 0x00, socks5ATYPIPv4})
	buf.Write([]byte{93, 184, 216, 34})
	buf.Write([]byte{0x00, 0x50})

	req, err := readSocks5Request(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, byte(socks5CommandConnect), req.command)
	require.Equal(t, "93.184.216.34", req.host)
	require.Equal(t, uint16(80), req.port)
	require.Equal(t, "tcp://93.184.216.34:80", req.destination().String())
}

func TestReadSocks5RequestDomain(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{socks5Version, socks5CommandConnect, 0x00, socks5ATYPDomain})
	buf.WriteByte(byte(len("example.com")))
	buf.WriteString("example.com")
	buf.Write([]byte{0x01, 0xBB})

	req, err := readSocks5Request(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, "example.com", req.host)
	require.Equal(t, uint16(443), req.port)
}

func TestReadSocks5RequestIPv6(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{socks5Version, socks5CommandConnect, 0x00, socks5ATYPIPv6})
	buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}) // ::1
	buf.Write([]byte{0x00, 0x16})

	req, err := readSocks5Request(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, "::1", req.host)
	require.Equal(t, uint16(22), req.port)
}

func TestWriteSocks5ReplyFormat(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, writeSocks5Reply(w, Socks5HostUnreachable))
	require.Equal(t, []byte{socks5Version, byte(Socks5HostUnreachable), 0x00, socks5ATYPIPv4, 0, 0, 0, 0, 0, 0}, buf.Bytes())
}
