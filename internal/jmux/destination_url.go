package jmux

import (
	"fmt"
	"strconv"
	"strings"
)

// DestinationURL is the (scheme, host, port) triple carried in an OPEN message.
// Grammar, per spec.md §4.3:
//
//	scheme := [A-Za-z][A-Za-z0-9+.-]*
//	host   := non-empty printable, no '/' no ':'
//	port   := 1..=65535
//
// Its canonical string form is exactly "scheme://host:port", and parsing is the
// exact inverse of formatting: parse(format(x)) == x, format(parse(s)) == s for any
// well-formed s. Grounded on
// original_source/crates/jmux-proto/tests/destination_url.rs's round-trip property.
type DestinationURL struct {
	Scheme string
	Host   string
	Port   uint16
}

// NewDestinationURL constructs a DestinationURL without validating the grammar; use
// ParseDestinationURL to validate untrusted input.
func NewDestinationURL(scheme, host string, port uint16) DestinationURL {
	return DestinationURL{Scheme: scheme, Host: host, Port: port}
}

// String formats the canonical "scheme://host:port" form.
func (u DestinationURL) String() string {
	return u.Scheme + "://" + u.Host + ":" + strconv.Itoa(int(u.Port))
}

// MalformedURLError reports why ParseDestinationURL rejected a string.
type MalformedURLError struct {
	Input  string
	Reason string
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("jmux: malformed destination url %q: %s", e.Input, e.Reason)
}

func malformed(input, reason string) error {
	return &MalformedURLError{Input: input, Reason: reason}
}

// ParseDestinationURL parses a "scheme://host:port" string, failing with a
// *MalformedURLError on a missing "://", a missing ":port", an empty scheme or host,
// an invalid scheme character, or an out-of-range port.
func ParseDestinationURL(s string) (DestinationURL, error) {
	schemeSep := strings.Index(s, "://")
	if schemeSep < 0 {
		return DestinationURL{}, malformed(s, "missing \"://\"")
	}
	scheme := s[:schemeSep]
	rest := s[schemeSep+3:]

	if err := validateScheme(scheme); err != nil {
		return DestinationURL{}, malformed(s, err.Error())
	}

	portSep := strings.LastIndex(rest, ":")
	if portSep < 0 {
		return DestinationURL{}, malformed(s, "missing \":port\"")
	}
	host := rest[:portSep]
	portStr := rest[portSep+1:]

	if host == "" {
		return DestinationURL{}, malformed(s, "empty host")
	}
	if strings.ContainsAny(host, "/:") {
		return DestinationURL{}, malformed(s, "host must not contain '/' or ':'")
	}

	port, err := strconv.ParseUint(portStr, 10, 32)
	if err != nil || port == 0 || port > 65535 {
		return DestinationURL{}, malformed(s, "port must be in 1..=65535")
	}

	return DestinationURL{Scheme: scheme, Host: host, Port: uint16(port)}, nil
}

func validateScheme(scheme string) error {
	if scheme == "" {
		return fmt.Errorf("empty scheme")
	}
	for i, r := range scheme {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			// always legal
		case r >= '0' && r <= '9', r == '+', r == '.', r == '-':
			if i == 0 {
				return fmt.Errorf("scheme must start with a letter")
			}
		default:
			return fmt.Errorf("invalid scheme character %q", r)
		}
	}
	return nil
}
