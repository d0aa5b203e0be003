package jmux

import (
	"io"

	intjmux "github.com/devolutions/jmux/internal/jmux"
)

// Session multiplexes JMUX channels over one transport. See internal/jmux.Session
// for the implementation; this alias keeps the concrete type unexported while
// still exposing it here at the module root.
type Session = intjmux.Session

// Config configures a Session. The zero value is valid.
type Config = intjmux.Config

// DestinationURL is the (scheme, host, port) triple carried in an OPEN message.
type DestinationURL = intjmux.DestinationURL

// MalformedURLError reports why ParseDestinationURL rejected a string.
type MalformedURLError = intjmux.MalformedURLError

// Resolver performs the outbound connection a received OPEN request names.
type Resolver = intjmux.Resolver

// AcceptancePolicy decides whether an incoming OPEN request may proceed to
// resolution.
type AcceptancePolicy = intjmux.AcceptancePolicy

// PeerContext describes the peer an OPEN request arrived from.
type PeerContext = intjmux.PeerContext

// ReasonCode is the OPEN_FAILURE reason-code mapping.
type ReasonCode = intjmux.ReasonCode

// ErrorKind classifies a JMUX error; see GetError.
type ErrorKind = intjmux.ErrorKind

// OpenRefusalError is the cause of an ErrorOpenRefused error returned by
// Open, when the refusal came from the peer's OPEN_FAILURE reply.
type OpenRefusalError = intjmux.OpenRefusalError

// Error kinds, re-exported from internal/jmux.
const (
	ErrorProtocol          = intjmux.ErrorProtocol
	ErrorOpenRefused       = intjmux.ErrorOpenRefused
	ErrorTransport         = intjmux.ErrorTransport
	ErrorResourceExhausted = intjmux.ErrorResourceExhausted
	ErrorTimeout           = intjmux.ErrorTimeout
)

// Reason codes, re-exported from internal/jmux.
const (
	ReasonPolicyRejected = intjmux.ReasonPolicyRejected
	ReasonResolverFailed = intjmux.ReasonResolverFailed
	ReasonRemoteRefused  = intjmux.ReasonRemoteRefused
	ReasonTimeout        = intjmux.ReasonTimeout
	ReasonUnreachable    = intjmux.ReasonUnreachable
	ReasonUnknown        = intjmux.ReasonUnknown
)

// NewDestinationURL constructs a DestinationURL without validating the grammar.
func NewDestinationURL(scheme, host string, port uint16) DestinationURL {
	return intjmux.NewDestinationURL(scheme, host, port)
}

// ParseDestinationURL parses a "scheme://host:port" string.
func ParseDestinationURL(s string) (DestinationURL, error) {
	return intjmux.ParseDestinationURL(s)
}

// GetError unwraps err into its ErrorKind and underlying cause. Returns
// ErrorKind(-1) if err was not produced by this module.
func GetError(err error) (ErrorKind, error) {
	return intjmux.GetError(err)
}

// DialResolver is the default Resolver, dialing out with a net.Dialer.
type DialResolver = intjmux.DialResolver

// AcceptAll is an AcceptancePolicy that allows every request.
type AcceptAll = intjmux.AcceptAll

// RejectAll is an AcceptancePolicy that rejects every request.
type RejectAll = intjmux.RejectAll

// New creates a Session multiplexing JMUX traffic over transport.
func New(transport io.ReadWriteCloser, config *Config) *Session {
	return intjmux.New(transport, config)
}
