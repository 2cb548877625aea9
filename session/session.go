// Package session implements the XRCE client session state machine:
// identity, the CREATE_CLIENT handshake retry loop, and dispatch of
// received sub-messages to per-stream handlers. It is single-threaded
// cooperative, matching internal/framing and internal/codec: no background
// goroutine is started here, and the session is not safe for concurrent
// use.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/rjboer/xrce-client/internal/codec"
	"github.com/rjboer/xrce-client/internal/diagnostics"
	"github.com/rjboer/xrce-client/internal/framing"
	"github.com/rjboer/xrce-client/internal/logging"
	"github.com/rjboer/xrce-client/internal/stream"
	"github.com/rjboer/xrce-client/internal/wire"
)

// DefaultSessionID is the session id used when no representation-level
// session has been negotiated yet (0x81: reliable stream space, index 1).
const DefaultSessionID = 0x81

// DefaultMTU is the session MTU assumed before any Option overrides it.
const DefaultMTU uint16 = 256

// HeaderOverhead is subtracted from the configured MTU before it is
// advertised to the agent in CREATE_CLIENT (§9 decision D2): the agent
// never needs to budget for the client's own MessageHeader+SubMessageHeader
// bytes when sizing its own replies.
const HeaderOverhead = wire.MaxHeaderSize + wire.SubHeaderSize

// MaxSessionConnectionAttempts is the default handshake retry budget.
const MaxSessionConnectionAttempts = 10

// MinSessionConnectionInterval is the floor on each handshake attempt's
// wait, regardless of what a configured backoff.BackOff requests.
const MinSessionConnectionInterval = 1000 * time.Millisecond

// SessionInfo is the identity negotiated (or about to be negotiated) with
// the agent: the session id, the 4-byte client key, and the MTU advertised
// in CREATE_CLIENT.
type SessionInfo struct {
	ID  uint8
	Key wire.ClientKey
	MTU uint16
}

// Transport is what a Session needs from the framing layer: addressed
// send, and a budgeted poll for inbound frames. *framing.Transport
// satisfies this by its method set.
type Transport interface {
	Send(dstAddr byte, payload []byte) error
	Poll(budgetMs int32) ([]framing.Frame, int32, error)
	CRCDrops() int
}

// Session drives one XRCE client identity against one remote agent over a
// Transport. It owns its transport, its diagnostics, and its logger; it is
// not safe for concurrent use.
type Session struct {
	info        SessionInfo
	transport   Transport
	remoteAddr  byte
	logger      logging.Logger
	backoff     backoff.BackOff
	endianness  codec.Endianness
	maxAttempts int
	properties  []wire.Property
	xrceVersion [2]byte
	vendorID    [2]byte
	stats       *diagnostics.HandshakeStats

	onData      func(streamRaw uint8, format wire.DataFormat, payload []byte)
	onHeartBeat func()
	onAckNack   func()

	lastCRCDrops int
}

// syncCRCDrops folds any newly observed transport-level CRC drops into the
// session's own diagnostics; the transport counts them (it's the layer
// that detects them), the session owns the long-lived stats object.
func (s *Session) syncCRCDrops() {
	cur := s.transport.CRCDrops()
	for ; s.lastCRCDrops < cur; s.lastCRCDrops++ {
		s.stats.RecordCRCDrop()
	}
}

// NewSession constructs a session identified by clientKey, talking over
// transport, with id DefaultSessionID and MTU DefaultMTU unless overridden
// by opts. No I/O is performed by this call.
func NewSession(clientKey [4]byte, transport Transport, opts ...Option) *Session {
	s := &Session{
		info:        SessionInfo{ID: DefaultSessionID, Key: wire.ClientKey(clientKey), MTU: DefaultMTU},
		transport:   transport,
		logger:      logging.NewNop(),
		backoff:     backoff.NewConstantBackOff(MinSessionConnectionInterval),
		endianness:  codec.DefaultEndianness,
		maxAttempts: MaxSessionConnectionAttempts,
		xrceVersion: [2]byte{0x01, 0x00},
		vendorID:    [2]byte{0x00, 0x01},
		stats:       &diagnostics.HandshakeStats{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Info returns the session's identity.
func (s *Session) Info() SessionInfo { return s.info }

// Stats returns the session's handshake diagnostics, safe to read
// concurrently with the session's own goroutine driving Create/Listen.
func (s *Session) Stats() *diagnostics.HandshakeStats { return s.stats }

// wireMTU is the MTU value actually advertised to the agent in
// CREATE_CLIENT: the configured MTU minus HeaderOverhead, floored at 0.
func (s *Session) wireMTU() uint16 {
	m := int(s.info.MTU) - HeaderOverhead
	if m < 0 {
		m = 0
	}
	return uint16(m)
}

func (s *Session) buildCreateClientFrame() ([]byte, error) {
	rep := wire.ClientRepresentation{
		XRCEVersion:  s.xrceVersion,
		XRCEVendorID: s.vendorID,
		ClientKey:    s.info.Key,
		SessionID:    s.info.ID,
		Properties:   s.properties,
		MTU:          s.wireMTU(),
	}

	bufSize := wire.MinHeaderSize + wire.SubHeaderSize + int(rep.EncodedLength())
	buf := make([]byte, bufSize)

	// The handshake preamble always carries session_id & 0x80 with no key:
	// the client has no negotiated key relationship with the agent yet, so
	// the "no client key follows" wire shape is forced regardless of the
	// id the representation itself requests (see spec scenario with
	// session_id=0x80, key=None).
	hdr := wire.MessageHeader{
		SessionID:   s.info.ID & 0x80,
		StreamID:    0,
		SequenceNum: 0,
		Key:         nil,
	}
	n1, err := hdr.EncodeWithEndianness(buf, s.endianness)
	if err != nil {
		return nil, err
	}
	n2, err := wire.EncodeCreateClientWithEndianness(buf[n1:], rep, s.endianness)
	if err != nil {
		return nil, err
	}
	return buf[:n1+n2], nil
}

// Create performs the CREATE_CLIENT handshake: build and transmit the
// request, then wait for a matching Status/StatusAgent reply, retrying per
// the configured backoff up to MaxSessionConnectionAttempts (or whatever
// WithMaxConnectionAttempts set). With attempts == 0 it transmits once and
// returns nil without waiting for a reply (fire-and-forget).
func (s *Session) Create(ctx context.Context) error {
	frame, err := s.buildCreateClientFrame()
	if err != nil {
		return err
	}

	if s.maxAttempts == 0 {
		if err := s.transport.Send(s.remoteAddr, frame); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
		return nil
	}

	s.backoff.Reset()
	lastErr := error(ErrTimeout)

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.transport.Send(s.remoteAddr, frame); err != nil {
			s.logger.Warn("create_client send failed",
				logging.Field{Key: "attempt", Value: attempt},
				logging.Field{Key: "err", Value: err})
			lastErr = ErrIO
			continue
		}

		budget := s.backoff.NextBackOff()
		if budget < MinSessionConnectionInterval {
			budget = MinSessionConnectionInterval
		}
		remaining := int32(budget / time.Millisecond)

		start := time.Now()
		status, replyErr := s.awaitStatus(ctx, remaining)
		switch {
		case replyErr != nil && errors.Is(replyErr, ErrTimeout):
			s.stats.RecordTimeout()
			lastErr = ErrTimeout
		case replyErr != nil:
			return replyErr
		case status == nil:
			s.stats.RecordTimeout()
			lastErr = ErrTimeout
		case status.Result.Status == wire.StatusOK:
			s.stats.RecordRTT(float64(time.Since(start)) / float64(time.Millisecond))
			return nil
		case status.Result.Status == wire.StatusErrDenied:
			lastErr = ErrDenied
		case status.Result.Status == wire.StatusErrIncompatible:
			lastErr = ErrIncompatible
		default:
			lastErr = ErrTimeout
		}
	}
	return lastErr
}

// awaitStatus polls the transport until a Status/StatusAgent reply arrives,
// the budget is exhausted, or a fatal error occurs. ErrInvalidData and
// ErrRemoteAddr frames are logged and skipped; the budget keeps draining.
func (s *Session) awaitStatus(ctx context.Context, remainingMs int32) (*wire.StatusPayload, error) {
	for remainingMs > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frames, elapsed, err := s.transport.Poll(remainingMs)
		remainingMs -= elapsed
		s.syncCRCDrops()
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				return nil, ErrTimeout
			}
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		for _, f := range frames {
			status, procErr := s.processFrame(f)
			if procErr != nil {
				if errors.Is(procErr, ErrRemoteAddr) {
					s.logger.Warn("dropped frame from unexpected peer during handshake")
					continue
				}
				s.logger.Error("dispatch failed during handshake", logging.Field{Key: "err", Value: procErr})
				continue
			}
			if status != nil {
				return status, nil
			}
		}
	}
	return nil, ErrTimeout
}

// Listen reads and dispatches one inbound frame, waiting up to remainingMs
// milliseconds. It returns nil once a frame has been fully dispatched,
// ErrTimeout if the budget is exhausted first, or propagates ErrIO /
// ErrInvalidData.
func (s *Session) Listen(ctx context.Context, remainingMs int32) error {
	for remainingMs > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		frames, elapsed, err := s.transport.Poll(remainingMs)
		remainingMs -= elapsed
		s.syncCRCDrops()
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				return ErrTimeout
			}
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
		for _, f := range frames {
			if _, err := s.processFrame(f); err != nil {
				if errors.Is(err, ErrRemoteAddr) {
					s.logger.Warn("dropped frame from unexpected peer")
					continue
				}
				s.logger.Error("dispatch failed", logging.Field{Key: "err", Value: err})
				return err
			}
			return nil
		}
	}
	return ErrTimeout
}

// processFrame validates the message header against this session's
// identity, classifies the stream, and dispatches every sub-message in
// wire order. It returns the last Status/StatusAgent payload seen, if
// any, alongside the first error encountered.
func (s *Session) processFrame(f framing.Frame) (*wire.StatusPayload, error) {
	hdr, n, err := wire.DecodeMessageHeaderWithEndianness(f.Payload, s.endianness)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if hdr.SessionID != s.info.ID {
		return nil, ErrRemoteAddr
	}
	if wire.WireHasKey(hdr.SessionID) {
		if hdr.Key == nil || *hdr.Key != s.info.Key {
			return nil, ErrRemoteAddr
		}
	}
	sid := stream.FromRaw(hdr.StreamID, stream.Input)

	var status *wire.StatusPayload
	offset := n
	body := f.Payload
	for offset < len(body) {
		subHdr, consumed, err := wire.DecodeSubMessageHeaderFromSlice(body[offset:])
		if err != nil {
			return status, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		offset += consumed
		payloadEnd := offset + int(subHdr.Length)
		if payloadEnd > len(body) {
			return status, fmt.Errorf("%w: sub-message length exceeds frame", ErrInvalidData)
		}
		payload := body[offset:payloadEnd]

		switch subHdr.ID {
		case wire.IDStatus, wire.IDStatusAgent:
			sp, _, err := wire.DecodeStatusPayloadWithEndianness(payload, subHdr.Endianness)
			if err != nil {
				return status, fmt.Errorf("%w: %v", ErrInvalidData, err)
			}
			status = &sp
		case wire.IDData, wire.IDWriteData:
			if s.onData != nil && (sid.Type == stream.None || sid.Type == stream.BestEffort) {
				s.onData(sid.Raw, subHdr.Format, payload)
			}
		case wire.IDHeartBeat:
			if s.onHeartBeat != nil {
				s.onHeartBeat()
			}
		case wire.IDAckNack:
			if s.onAckNack != nil {
				s.onAckNack()
			}
		}
		offset = payloadEnd
	}
	return status, nil
}
