package socks

import (
	"bufio"
	"fmt"
	"io"
	"net"

	"github.com/devolutions/jmux"
)

const socks4Version byte = 0x04

const socks4CommandConnect byte = 0x01

// socks4Request is the parsed body of a SOCKS4 CONNECT request: version and
// command have already been consumed by the dispatcher in acceptor.go by the
// time readSocks4Request is called.
type socks4Request struct {
	port   uint16
	ip     net.IP
	userID string
	domain string // set instead of ip when the client used the "socks4a" 0.0.0.x convention
}

// readSocks4Request reads the remainder of a SOCKS4 CONNECT request (everything
// after the version/command bytes, which the caller has already consumed) and,
// for the socks4a extension, the trailing domain name that follows the user-id.
func readSocks4Request(r *bufio.Reader) (*socks4Request, error) {
	var header [6]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("socks4: reading port/address: %w", err)
	}
	port := uint16(header[0])<<8 | uint16(header[1])
	ip := net.IPv4(header[2], header[3], header[4], header[5])

	userID, err := readNullTerminated(r)
	if err != nil {
		return nil, fmt.Errorf("socks4: reading user id: %w", err)
	}

	req := &socks4Request{port: port, ip: ip, userID: userID}

	// socks4a: 0.0.0.x (x != 0) in the address field means "domain name follows".
	if header[2] == 0 && header[3] == 0 && header[4] == 0 && header[5] != 0 {
		domain, err := readNullTerminated(r)
		if err != nil {
			return nil, fmt.Errorf("socks4a: reading domain name: %w", err)
		}
		req.domain = domain
	}

	return req, nil
}

func (r *socks4Request) destination() jmux.DestinationURL {
	host := r.domain
	if host == "" {
		host = r.ip.String()
	}
	return jmux.NewDestinationURL("tcp", host, r.port)
}

// writeSocks4Reply writes a SOCKS4 response: 0x00, status, then the bound
// port/address (unused by this acceptor, since it never implements BIND; the
// fields are echoed back as zero per common client expectations).
func writeSocks4Reply(w *bufio.Writer, code Socks4FailureCode) error {
	reply := [8]byte{0x00, byte(code), 0, 0, 0, 0, 0, 0}
	if _, err := w.Write(reply[:]); err != nil {
		return err
	}
	return w.Flush()
}

func readNullTerminated(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(0x00)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}
