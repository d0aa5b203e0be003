package jmux

import "fmt"

// ErrorKind is the taxonomy from spec.md §7: Protocol errors are always fatal for the
// owning session; OpenRefused errors are local to the Open() call that produced them;
// Transport errors are fatal; Resource and Timeout errors may or may not be, depending
// on where they occur (see each constructor site).
type ErrorKind int

const (
	ErrorProtocol ErrorKind = iota
	ErrorOpenRefused
	ErrorTransport
	ErrorResourceExhausted
	ErrorTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorProtocol:
		return "protocol"
	case ErrorOpenRefused:
		return "open-refused"
	case ErrorTransport:
		return "transport"
	case ErrorResourceExhausted:
		return "resource"
	case ErrorTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ReasonCode is the OPEN_FAILURE reason-code mapping this implementation applies,
// resolving spec.md §9 Open Question (i).
type ReasonCode uint32

const (
	ReasonPolicyRejected ReasonCode = iota
	ReasonResolverFailed
	ReasonRemoteRefused
	ReasonTimeout
	ReasonUnreachable

	// ReasonUnknown is used when a peer's OPEN_FAILURE carries a reason_code
	// outside the fixed mapping above; the wire allows an arbitrary u32.
	ReasonUnknown ReasonCode = 0xFFFFFFFF
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonPolicyRejected:
		return "policy-rejected"
	case ReasonResolverFailed:
		return "resolver-failed"
	case ReasonRemoteRefused:
		return "remote-refused"
	case ReasonTimeout:
		return "timeout"
	case ReasonUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Error is a JMUX error carrying a machine-readable kind alongside the underlying
// cause. Carried over from internal/muxado/errors.go's muxadoError/ErrorCode pair,
// generalized from muxado's HTTP2-flavored codes to the five kinds in spec.md §7.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jmux: %s: %s", e.Kind, e.Err.Error())
	}
	return fmt.Sprintf("jmux: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// GetError unwraps err into its ErrorKind and underlying cause, mirroring
// muxado.GetError. Returns (ErrorKind(-1), err) if err was not produced by this
// package.
func GetError(err error) (ErrorKind, error) {
	if e, ok := err.(*Error); ok {
		return e.Kind, e.Err
	}
	return ErrorKind(-1), err
}

// OpenRefusalError is the cause wrapped by an ErrorOpenRefused Error when the
// refusal came from the peer's OPEN_FAILURE, carrying the reason code so
// callers (e.g. package socks) can map it onto their own failure taxonomy
// instead of parsing the formatted message.
type OpenRefusalError struct {
	Code        ReasonCode
	Description string
}

func (e *OpenRefusalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

type errString string

func (e errString) Error() string { return string(e) }

var (
	errSessionClosed  = newErr(ErrorTransport, errString("session closed"))
	errOpenTimeout    = newErr(ErrorTimeout, errString("open handshake timed out"))
	errWriteTimeout   = newErr(ErrorTimeout, errString("write timed out"))
	errChannelClosed  = newErr(ErrorProtocol, errString("channel closed"))
	errWindowOverflow = newErr(ErrorProtocol, errString("outbound window overflow"))
)
