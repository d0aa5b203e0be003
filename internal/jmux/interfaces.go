package jmux

import (
	"context"
	"net"
	"strconv"
)

// PeerContext describes the peer an OPEN request arrived from, handed to an
// AcceptancePolicy alongside the requested DestinationURL (spec.md §6).
type PeerContext struct {
	RemoteAddr net.Addr
}

// Resolver performs the actual outbound connection a received OPEN request names.
// Injected so callers can sandbox, rate-limit, or fake resolution in tests, per
// spec.md §6.
type Resolver interface {
	Connect(ctx context.Context, host string, port uint16) (net.Conn, error)
}

// AcceptancePolicy decides whether an incoming OPEN request should be allowed to
// proceed to resolution, per spec.md §6. A rejection supplies the ReasonCode and
// human-readable description carried back in OPEN_FAILURE.
type AcceptancePolicy interface {
	Allow(destination DestinationURL, peer PeerContext) (ok bool, code ReasonCode, description string)
}

// DialResolver is the default Resolver, using net.Dialer to reach the requested
// tcp host:port. It is the JMUX analogue of a direct net.Dial, grounded on
// original_source/crates/jmux-proxy/src/lib.rs's default "just connect" behavior.
type DialResolver struct {
	Dialer net.Dialer
}

func (r DialResolver) Connect(ctx context.Context, host string, port uint16) (net.Conn, error) {
	return r.Dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
}

// AcceptAll is an AcceptancePolicy that allows every request. Suitable for
// client-side multiplexers that only ever dial out themselves.
type AcceptAll struct{}

func (AcceptAll) Allow(DestinationURL, PeerContext) (bool, ReasonCode, string) {
	return true, 0, ""
}

// RejectAll is an AcceptancePolicy that rejects every request with
// ReasonPolicyRejected. This is the gateway-deployment default: a peer must opt in
// an explicit policy before it will relay inbound channels anywhere.
type RejectAll struct{}

func (RejectAll) Allow(DestinationURL, PeerContext) (bool, ReasonCode, string) {
	return false, ReasonPolicyRejected, "no inbound channels are accepted by this peer"
}
