package jmux

import (
	"sync"
	"time"

	"github.com/inconshreveable/log15"

	"github.com/devolutions/jmux/log"
	log15adapter "github.com/devolutions/jmux/log/log15"
)

// Config configures a Session. The zero value is valid; initDefaults fills in
// defaults exactly once, mirroring internal/muxado/config.go's Config.
type Config struct {
	// MaxWindowSize is the per-channel initial flow-control window advertised in
	// OPEN/OPEN_SUCCESS. Default 256 KiB.
	MaxWindowSize uint32
	// MaxPacketSize is the maximum_packet_size this side advertises to the peer,
	// and the largest DATA payload it accepts. Outbound DATA is chunked to the
	// peer's advertised value instead. Default 16 KiB.
	MaxPacketSize uint32
	// MaxFrameSize bounds the size of any frame this side will read off the wire,
	// per spec.md §4.1. Default 8 KiB plus the 5-byte header.
	MaxFrameSize uint32
	// AcceptBacklog bounds how many remotely-initiated OPEN requests may be in
	// flight awaiting Resolver.Connect concurrently. Default 128.
	AcceptBacklog uint32
	// OpenTimeout bounds how long Open() waits for OPEN_SUCCESS/OPEN_FAILURE.
	// Default 30s.
	OpenTimeout time.Duration
	// IdleTimeout closes the session after this much time with no frame of any
	// kind received from the peer. Zero disables it.
	IdleTimeout time.Duration

	// Resolver performs outbound connects for accepted OPEN requests. Defaults to
	// DialResolver{}.
	Resolver Resolver
	// AcceptancePolicy gates which OPEN requests are allowed to reach Resolver.
	// Defaults to AcceptAll{}.
	AcceptancePolicy AcceptancePolicy
	// Logger receives structured session/channel events. Defaults to a disabled
	// logger (a fresh log15.New() logger with a discard handler).
	Logger log.Logger

	initOnce sync.Once

	// writeFrameQueueDepth is the size of the session's outbound write queue.
	// Default 64, carried from muxado.Config.
	writeFrameQueueDepth int
}

func (c *Config) initDefaults() {
	c.initOnce.Do(func() {
		if c.MaxWindowSize == 0 {
			c.MaxWindowSize = 256 * 1024
		}
		if c.MaxPacketSize == 0 {
			c.MaxPacketSize = 16 * 1024
		}
		if c.MaxFrameSize == 0 {
			c.MaxFrameSize = 8*1024 + 5
		}
		if c.AcceptBacklog == 0 {
			c.AcceptBacklog = 128
		}
		if c.OpenTimeout == 0 {
			c.OpenTimeout = 30 * time.Second
		}
		if c.Resolver == nil {
			c.Resolver = DialResolver{}
		}
		if c.AcceptancePolicy == nil {
			c.AcceptancePolicy = AcceptAll{}
		}
		if c.Logger == nil {
			discard := log15.New()
			discard.SetHandler(log15.DiscardHandler())
			c.Logger = log15adapter.NewLogger(discard)
		}
		if c.writeFrameQueueDepth == 0 {
			c.writeFrameQueueDepth = 64
		}
	})
}
