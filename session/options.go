package session

import (
	"github.com/cenkalti/backoff"

	"github.com/rjboer/xrce-client/internal/codec"
	"github.com/rjboer/xrce-client/internal/logging"
	"github.com/rjboer/xrce-client/internal/wire"
)

// Option configures a Session at construction time. This is the Go
// equivalent of the reference codebase's compile-time feature flags (§6):
// a runtime functional option instead of a build-time constant.
type Option func(*Session)

// WithLogger injects a structured logger; the default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithBackoff overrides the handshake retry loop's per-attempt wait policy.
// The default is a constant 1-second backoff matching
// MinSessionConnectionInterval; callers on a lossy link may prefer
// backoff.NewExponentialBackOff().
func WithBackoff(b backoff.BackOff) Option {
	return func(s *Session) { s.backoff = b }
}

// WithSessionID overrides the default 0x81 session id advertised in the
// CREATE_CLIENT representation body. The handshake preamble's MessageHeader
// still forces id&0x80 with no key regardless of this value.
func WithSessionID(id uint8) Option {
	return func(s *Session) { s.info.ID = id }
}

// WithVendorID overrides the default XRCE vendor id advertised in
// CREATE_CLIENT.
func WithVendorID(v [2]byte) Option {
	return func(s *Session) { s.vendorID = v }
}

// WithXRCEVersion overrides the default XRCE protocol version advertised in
// CREATE_CLIENT.
func WithXRCEVersion(v [2]byte) Option {
	return func(s *Session) { s.xrceVersion = v }
}

// WithMTU overrides the default 256-byte session MTU.
func WithMTU(mtu uint16) Option {
	return func(s *Session) { s.info.MTU = mtu }
}

// WithEndianness selects the wire endianness for this session's encoded
// messages; the default is little-endian, the only functionally tested
// path.
func WithEndianness(e codec.Endianness) Option {
	return func(s *Session) { s.endianness = e }
}

// WithRemoteAddr sets the framing-layer destination address of the agent
// this session talks to. The default is 0x00.
func WithRemoteAddr(addr byte) Option {
	return func(s *Session) { s.remoteAddr = addr }
}

// WithMaxConnectionAttempts overrides MaxSessionConnectionAttempts. Passing
// 0 makes Create fire-and-forget: transmit once, never wait for a reply.
func WithMaxConnectionAttempts(n int) Option {
	return func(s *Session) { s.maxAttempts = n }
}

// WithSharedMemoryProfile adds the uxr_sm=1 property to CREATE_CLIENT,
// advertising shared-memory transport support to the agent.
func WithSharedMemoryProfile() Option {
	return func(s *Session) {
		s.properties = append(s.properties, wire.Property{Name: "uxr_sm", Value: "1"})
	}
}

// WithHardLivelinessCheck adds the uxr_hl property, requesting the agent
// apply a strict liveliness timeout (microseconds) to this client.
func WithHardLivelinessCheck() Option {
	return func(s *Session) {
		s.properties = append(s.properties, wire.Property{Name: "uxr_hl", Value: "999999"})
	}
}

// WithOnData registers a callback invoked for every Data/WriteData
// sub-message dispatched to a None or Best-Effort stream, in arrival order.
func WithOnData(fn func(streamRaw uint8, format wire.DataFormat, payload []byte)) Option {
	return func(s *Session) { s.onData = fn }
}
