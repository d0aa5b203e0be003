// Package jmux implements the JMUX connection multiplexer: a bidirectional,
// flow-controlled stream multiplexer carrying many independently-addressable
// logical channels over one reliable byte-oriented transport, plus a SOCKS4/SOCKS5
// proxy front-end (package socks) that terminates CONNECT requests by opening
// channels through a Session.
//
// The wire codec, channel state machine, and session task layout live in
// internal/jmux and internal/wire; this package re-exports the public surface of
// internal/jmux so that the implementation packages stay unexported while still
// being directly reachable by callers of this module.
package jmux
