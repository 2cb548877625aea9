package framing

import (
	"fmt"

	"github.com/rjboer/xrce-client/internal/xrceerr"
)

const (
	frameBegin  byte = 0x7E
	frameEsc    byte = 0x7D
	frameEscXor byte = 0x20
)

// frameStageSize is the write staging buffer's capacity, matching the
// reference implementation's fixed wb[42].
const frameStageSize = ringSize

// maxPayloadSize bounds a single frame's payload so a corrupt length field
// can never grow the assembly buffer without limit.
const maxPayloadSize = 1024

// parserState is the read-side frame assembly FSM (§4.3's state table).
type parserState int

const (
	stateUninit parserState = iota
	stateReadSrc
	stateReadDst
	stateReadLenLSB
	stateReadLenMSB
	stateReadPayload
	stateReadCrcLSB
	stateReadCrcMSB
)

// Frame is a fully assembled, CRC-verified, address-matched frame delivered
// to the caller.
type Frame struct {
	SrcAddr byte
	Payload []byte
}

// Transport owns one HAL's worth of framing state: a read ring fed by the
// HAL, the unstuffing parser FSM, and a linear write staging buffer. It is
// not safe for concurrent use.
type Transport struct {
	hal        HAL
	localAddr  byte
	rb         ring
	state      parserState
	escPending bool

	frameSrc, frameDst byte
	lenLSB, lenMSB     byte
	crcLSB, crcMSB     byte
	payloadLen         int
	payload            []byte
	crcBuf             []byte

	delivered []Frame
	crcDrops  int
	addrDrops int

	wb   [frameStageSize]byte
	wPos int
}

// CRCDrops returns the running count of frames discarded for failing their
// CRC-16 check, for a caller (the session) to fold into its own
// diagnostics.
func (t *Transport) CRCDrops() int { return t.crcDrops }

// AddrDrops returns the running count of frames discarded for being
// addressed to a destination other than this transport's localAddr.
func (t *Transport) AddrDrops() int { return t.addrDrops }

// NewTransport wraps hal, filtering received frames to those addressed to
// localAddr.
func NewTransport(hal HAL, localAddr byte) *Transport {
	return &Transport{hal: hal, localAddr: localAddr, state: stateUninit}
}

func (t *Transport) resetFrame() {
	t.state = stateUninit
	t.escPending = false
	t.payload = t.payload[:0]
	t.crcBuf = t.crcBuf[:0]
}

// Send frames payload for dstAddr (BEGIN, src, dst, length, payload, CRC-16,
// each field byte-stuffed except the leading BEGIN marker) and writes it to
// the HAL, retrying on short writes. A write that makes no progress returns
// an xrceerr.PartWrittenError reporting how many bytes made it onto the
// wire. The whole stuffed frame must fit the 42-byte staging buffer: the
// buffer is not flushed mid-frame, and a frame that does not fit is
// rejected with xrceerr.ErrInvalidData before anything is written.
func (t *Transport) Send(dstAddr byte, payload []byte) error {
	t.wPos = 0
	t.putRaw(frameBegin)

	crc := uint16(0)
	stuffAndCRC := func(b byte) {
		crc = updateCRC(crc, b)
		t.putStuffed(b)
	}

	stuffAndCRC(t.localAddr)
	stuffAndCRC(dstAddr)
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload too large for a single frame", xrceerr.ErrInvalidData)
	}
	length := uint16(len(payload))
	stuffAndCRC(byte(length))
	stuffAndCRC(byte(length >> 8))
	for _, b := range payload {
		stuffAndCRC(b)
	}
	t.putStuffed(byte(crc))
	t.putStuffed(byte(crc >> 8))

	if t.wPos > len(t.wb) {
		return fmt.Errorf("%w: stuffed frame overflowed staging buffer", xrceerr.ErrInvalidData)
	}

	written := 0
	for written < t.wPos {
		n, err := t.hal.WriteSerialData(t.wb[written:t.wPos])
		if err != nil {
			return fmt.Errorf("%w: %v", xrceerr.ErrIO, err)
		}
		if n == 0 {
			return &xrceerr.PartWrittenError{N: written}
		}
		written += n
	}
	return nil
}

func (t *Transport) putRaw(b byte) {
	if t.wPos < len(t.wb) {
		t.wb[t.wPos] = b
	}
	t.wPos++
}

func (t *Transport) putStuffed(b byte) {
	if b == frameBegin || b == frameEsc {
		t.putRaw(frameEsc)
		t.putRaw(b ^ frameEscXor)
		return
	}
	t.putRaw(b)
}

// Poll reads at most one HAL chunk (bounded by the remaining time budget
// and the read ring's free space), feeds any bytes read through the
// unstuffing parser, and returns frames fully assembled and verified during
// this call. The caller subtracts the elapsed time (reported via elapsedMs)
// from its own budget and calls Poll again until frames arrive or the
// budget is exhausted.
func (t *Transport) Poll(budgetMs int32) (frames []Frame, elapsedMs int32, err error) {
	if budgetMs <= 0 {
		return nil, 0, xrceerr.ErrTimeout
	}

	span := t.rb.writableSpan(ringSize)
	if len(span) == 0 {
		// ring is full; drain what's already buffered without touching the
		// HAL so a stalled consumer cannot deadlock the transport.
		t.drain()
		return t.takeDelivered(), 0, nil
	}

	before := t.hal.Millis()
	n, readErr := t.hal.ReadSerialData(span, len(span), budgetMs)
	after := t.hal.Millis()
	elapsedMs = after - before
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	if readErr != nil {
		return nil, elapsedMs, fmt.Errorf("%w: %v", xrceerr.ErrIO, readErr)
	}
	if n > 0 {
		t.rb.advanceHead(n)
	}
	t.drain()
	return t.takeDelivered(), elapsedMs, nil
}

func (t *Transport) takeDelivered() []Frame {
	if len(t.delivered) == 0 {
		return nil
	}
	out := t.delivered
	t.delivered = nil
	return out
}

// drain consumes every byte currently buffered in the read ring, advancing
// the parser FSM and unstuffing logic until the ring runs dry.
func (t *Transport) drain() {
	for {
		if t.escPending {
			b2, ok := t.rb.popByte()
			if !ok {
				return
			}
			t.escPending = false
			if b2 == frameBegin {
				// an escaped byte can never legally be the BEGIN marker;
				// treat this as corruption and resync.
				t.resetFrame()
				continue
			}
			t.consume(b2 ^ frameEscXor)
			continue
		}

		b, ok := t.rb.popByte()
		if !ok {
			return
		}
		switch b {
		case frameBegin:
			// a BEGIN marker always (re)starts a frame, even mid-assembly:
			// this resyncs past garbage or a previous frame's truncated
			// tail.
			t.resetFrame()
			t.state = stateReadSrc
		case frameEsc:
			t.escPending = true
		default:
			t.consume(b)
		}
	}
}

func (t *Transport) consume(b byte) {
	switch t.state {
	case stateUninit:
		// stray byte before any BEGIN has been seen; discard.
	case stateReadSrc:
		t.frameSrc = b
		t.crcBuf = append(t.crcBuf[:0], b)
		t.state = stateReadDst
	case stateReadDst:
		t.frameDst = b
		t.crcBuf = append(t.crcBuf, b)
		t.state = stateReadLenLSB
	case stateReadLenLSB:
		t.lenLSB = b
		t.crcBuf = append(t.crcBuf, b)
		t.state = stateReadLenMSB
	case stateReadLenMSB:
		t.lenMSB = b
		t.crcBuf = append(t.crcBuf, b)
		length := int(t.lenLSB) | int(t.lenMSB)<<8
		if length > maxPayloadSize {
			t.resetFrame()
			return
		}
		t.payloadLen = length
		t.payload = t.payload[:0]
		if t.payloadLen == 0 {
			t.state = stateReadCrcLSB
		} else {
			t.state = stateReadPayload
		}
	case stateReadPayload:
		t.payload = append(t.payload, b)
		t.crcBuf = append(t.crcBuf, b)
		if len(t.payload) >= t.payloadLen {
			t.state = stateReadCrcLSB
		}
	case stateReadCrcLSB:
		t.crcLSB = b
		t.state = stateReadCrcMSB
	case stateReadCrcMSB:
		t.crcMSB = b
		t.finishFrame()
		t.state = stateUninit
	}
}

func (t *Transport) finishFrame() {
	want := uint16(t.crcLSB) | uint16(t.crcMSB)<<8
	got := crc16(t.crcBuf)
	if want != got {
		t.crcDrops++
		return
	}
	if t.frameDst != t.localAddr {
		t.addrDrops++
		return
	}
	payload := make([]byte, len(t.payload))
	copy(payload, t.payload)
	t.delivered = append(t.delivered, Frame{SrcAddr: t.frameSrc, Payload: payload})
}
