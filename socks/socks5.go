package socks

import (
	"bufio"
	"fmt"
	"io"
	"net"

	"github.com/devolutions/jmux"
)

const socks5Version byte = 0x05

const (
	socks5MethodNoAuth       byte = 0x00
	socks5MethodGSSAPI       byte = 0x01
	socks5MethodUserPassword byte = 0x02
	socks5MethodNoAcceptable byte = 0xFF
)

const socks5CommandConnect byte = 0x01

const (
	socks5ATYPIPv4   byte = 0x01
	socks5ATYPDomain byte = 0x03
	socks5ATYPIPv6   byte = 0x04
)

// negotiateSocks5Method reads the client's method list and replies with the
// method chosen. Only "no authentication" is ever chosen; GSSAPI and
// user/password are always present in the request of real clients but are
// rejected here, matching spec.md §4.6 ("GSSAPI/user-pw reject paths").
func negotiateSocks5Method(rw *bufio.ReadWriter) error {
	var hdr [2]byte // version, method count
	if _, err := io.ReadFull(rw, hdr[:]); err != nil {
		return fmt.Errorf("socks5: reading greeting header: %w", err)
	}
	if hdr[0] != socks5Version {
		return fmt.Errorf("socks5: unexpected version %#x", hdr[0])
	}
	methods := make([]byte, hdr[1])
	if _, err := io.ReadFull(rw, methods); err != nil {
		return fmt.Errorf("socks5: reading methods: %w", err)
	}

	chosen := socks5MethodNoAcceptable
	for _, m := range methods {
		if m == socks5MethodNoAuth {
			chosen = socks5MethodNoAuth
			break
		}
	}

	if _, err := rw.Write([]byte{socks5Version, chosen}); err != nil {
		return err
	}
	if err := rw.Flush(); err != nil {
		return err
	}
	if chosen == socks5MethodNoAcceptable {
		return fmt.Errorf("socks5: no acceptable authentication method offered")
	}
	return nil
}

type socks5Request struct {
	command byte
	host    string
	port    uint16
}

// readSocks5Request reads a full SOCKS5 request line: version, command,
// reserved byte, address type, address, port.
func readSocks5Request(r *bufio.Reader) (*socks5Request, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("socks5: reading request header: %w", err)
	}
	if hdr[0] != socks5Version {
		return nil, fmt.Errorf("socks5: unexpected version %#x", hdr[0])
	}

	host, err := readSocks5Address(r, hdr[3])
	if err != nil {
		return nil, err
	}

	var portBuf [2]byte
	if _, err := io.ReadFull(r, portBuf[:]); err != nil {
		return nil, fmt.Errorf("socks5: reading port: %w", err)
	}
	port := uint16(portBuf[0])<<8 | uint16(portBuf[1])

	return &socks5Request{command: hdr[1], host: host, port: port}, nil
}

func readSocks5Address(r *bufio.Reader, atyp byte) (string, error) {
	switch atyp {
	case socks5ATYPIPv4:
		var addr [4]byte
		if _, err := io.ReadFull(r, addr[:]); err != nil {
			return "", fmt.Errorf("socks5: reading ipv4 address: %w", err)
		}
		return net.IP(addr[:]).String(), nil
	case socks5ATYPIPv6:
		var addr [16]byte
		if _, err := io.ReadFull(r, addr[:]); err != nil {
			return "", fmt.Errorf("socks5: reading ipv6 address: %w", err)
		}
		return net.IP(addr[:]).String(), nil
	case socks5ATYPDomain:
		var length [1]byte
		if _, err := io.ReadFull(r, length[:]); err != nil {
			return "", fmt.Errorf("socks5: reading domain length: %w", err)
		}
		domain := make([]byte, length[0])
		if _, err := io.ReadFull(r, domain); err != nil {
			return "", fmt.Errorf("socks5: reading domain: %w", err)
		}
		return string(domain), nil
	default:
		return "", fmt.Errorf("socks5: unsupported address type %#x", atyp)
	}
}

func (r *socks5Request) destination() jmux.DestinationURL {
	return jmux.NewDestinationURL("tcp", r.host, r.port)
}

// writeSocks5Reply writes a SOCKS5 reply with a zeroed bind address, since this
// acceptor never implements BIND and the bound address it would otherwise
// report is not meaningful to CONNECT-only clients.
func writeSocks5Reply(w *bufio.Writer, code Socks5FailureCode) error {
	reply := []byte{socks5Version, byte(code), 0x00, socks5ATYPIPv4, 0, 0, 0, 0, 0, 0}
	if _, err := w.Write(reply); err != nil {
		return err
	}
	return w.Flush()
}
