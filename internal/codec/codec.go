// Package codec implements the MicroCDR wire format used by XRCE: a
// length-aware, alignment-correct, endian-selectable binary encoding over a
// caller-supplied byte buffer. The Encoder writes only into the caller's
// buffer; the Decoder returns decoded strings and byte sequences as freshly
// allocated copies. Both are scoped to a single encode or decode pass and do
// not retain the buffer afterwards.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Endianness selects the byte order used for multi-byte primitives.
type Endianness int

const (
	// LittleEndian copies bytes verbatim on a little-endian host; it is the
	// only endianness exercised end-to-end by this module.
	LittleEndian Endianness = iota
	BigEndian
)

// DefaultEndianness is the wire endianness used when a caller does not
// request one explicitly.
const DefaultEndianness = LittleEndian

// Sentinel errors returned by Encoder/Decoder. Callers should use errors.Is.
var (
	ErrBufferNotEnough     = fmt.Errorf("codec: buffer not enough")
	ErrNumberOutOfRange    = fmt.Errorf("codec: sequence length out of range")
	ErrInvalidChar         = fmt.Errorf("codec: invalid ascii char")
	ErrInvalidString       = fmt.Errorf("codec: invalid ascii string")
	ErrInvalidBoolEncoding = fmt.Errorf("codec: invalid bool encoding")
	ErrInvalidCharEncoding = fmt.Errorf("codec: invalid char encoding")
	ErrInvalidFormat       = fmt.Errorf("codec: invalid format byte")
	ErrInvalidUTF8Encoding = fmt.Errorf("codec: invalid utf-8 encoding")
	ErrSequenceMustHaveLen = fmt.Errorf("codec: sequence must have a known length")
)

// Encoder writes MicroCDR values into a caller-owned buffer.
type Encoder struct {
	buf        []byte
	pos        int
	offset     int
	endianness Endianness
}

// NewEncoder wraps buf for encoding using DefaultEndianness.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf, endianness: DefaultEndianness}
}

// NewEncoderWithEndianness wraps buf for encoding in the given endianness.
func NewEncoderWithEndianness(buf []byte, e Endianness) *Encoder {
	return &Encoder{buf: buf, endianness: e}
}

// Endianness reports the encoder's configured wire endianness.
func (e *Encoder) Endianness() Endianness { return e.endianness }

// Offset reports bytes produced so far.
func (e *Encoder) Offset() int { return e.offset }

// Finalize returns the number of bytes written.
func (e *Encoder) Finalize() int { return e.offset }

// AlignTo pads the cursor (zero-filling) until offset is a multiple of
// width. width must be a power of two in {1,2,4,8}.
func (e *Encoder) AlignTo(width int) error {
	rem := e.offset & (width - 1)
	if rem == 0 {
		return nil
	}
	pad := width - rem
	if err := e.reserve(pad); err != nil {
		return err
	}
	for i := 0; i < pad; i++ {
		e.buf[e.pos+i] = 0
	}
	e.pos += pad
	e.offset += pad
	return nil
}

func (e *Encoder) reserve(n int) error {
	if e.pos+n > len(e.buf) {
		return ErrBufferNotEnough
	}
	return nil
}

func (e *Encoder) putBytes(width int, src []byte) error {
	// check room for padding and value together so a failed write leaves
	// the cursor where it was.
	pad := (width - e.offset&(width-1)) & (width - 1)
	if err := e.reserve(pad + width); err != nil {
		return err
	}
	if err := e.AlignTo(width); err != nil {
		return err
	}
	// src is always produced in little-endian order by the callers below;
	// DefaultEndianness is little-endian, so only a BigEndian request needs
	// a byte reversal here.
	if e.endianness == LittleEndian {
		copy(e.buf[e.pos:], src)
	} else {
		for i := 0; i < width; i++ {
			e.buf[e.pos+i] = src[width-1-i]
		}
	}
	e.pos += width
	e.offset += width
	return nil
}

// Bool encodes a single byte boolean (0x00/0x01), no alignment required.
func (e *Encoder) Bool(v bool) error {
	if err := e.reserve(1); err != nil {
		return err
	}
	if v {
		e.buf[e.pos] = 1
	} else {
		e.buf[e.pos] = 0
	}
	e.pos++
	e.offset++
	return nil
}

// Int8 encodes a signed 8-bit integer.
func (e *Encoder) Int8(v int8) error { return e.Uint8(uint8(v)) }

// Uint8 encodes an unsigned 8-bit integer, no alignment required.
func (e *Encoder) Uint8(v uint8) error {
	if err := e.reserve(1); err != nil {
		return err
	}
	e.buf[e.pos] = v
	e.pos++
	e.offset++
	return nil
}

// Int16 encodes a signed 16-bit integer, aligned to 2 bytes.
func (e *Encoder) Int16(v int16) error { return e.Uint16(uint16(v)) }

// Uint16 encodes an unsigned 16-bit integer, aligned to 2 bytes.
func (e *Encoder) Uint16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return e.putBytes(2, b[:])
}

// Int32 encodes a signed 32-bit integer, aligned to 4 bytes.
func (e *Encoder) Int32(v int32) error { return e.Uint32(uint32(v)) }

// Uint32 encodes an unsigned 32-bit integer, aligned to 4 bytes.
func (e *Encoder) Uint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return e.putBytes(4, b[:])
}

// Int64 encodes a signed 64-bit integer, aligned to 8 bytes.
func (e *Encoder) Int64(v int64) error { return e.Uint64(uint64(v)) }

// Uint64 encodes an unsigned 64-bit integer, aligned to 8 bytes.
func (e *Encoder) Uint64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return e.putBytes(8, b[:])
}

// Float32 encodes an IEEE-754 single precision float, aligned to 4 bytes.
func (e *Encoder) Float32(v float32) error {
	return e.Uint32(math.Float32bits(v))
}

// Float64 encodes an IEEE-754 double precision float, aligned to 8 bytes.
func (e *Encoder) Float64(v float64) error {
	return e.Uint64(math.Float64bits(v))
}

// Char encodes a single ASCII byte as a CDR char.
func (e *Encoder) Char(v byte) error {
	if v > 0x7F {
		return fmt.Errorf("%w: %q", ErrInvalidChar, v)
	}
	return e.Uint8(v)
}

// String encodes v as u32 length-including-null followed by the ASCII bytes
// and a trailing 0x00. v must be pure ASCII.
func (e *Encoder) String(v string) error {
	for i := 0; i < len(v); i++ {
		if v[i] > 0x7F {
			return fmt.Errorf("%w: %q", ErrInvalidString, v)
		}
	}
	n := len(v) + 1
	if err := e.reserve((4-e.offset&3)&3 + 4 + n); err != nil {
		return err
	}
	if err := e.writeLen(n); err != nil {
		return err
	}
	if err := e.reserve(n); err != nil {
		return err
	}
	copy(e.buf[e.pos:], v)
	e.buf[e.pos+len(v)] = 0x00
	e.pos += n
	e.offset += n
	return nil
}

// Bytes encodes v as u32 length followed by the raw bytes (no terminator).
func (e *Encoder) Bytes(v []byte) error {
	if err := e.reserve((4-e.offset&3)&3 + 4 + len(v)); err != nil {
		return err
	}
	if err := e.writeLen(len(v)); err != nil {
		return err
	}
	if err := e.reserve(len(v)); err != nil {
		return err
	}
	copy(e.buf[e.pos:], v)
	e.pos += len(v)
	e.offset += len(v)
	return nil
}

// SequenceLen writes the u32 length prefix for a caller-driven sequence
// whose elements the caller encodes individually immediately afterwards.
func (e *Encoder) SequenceLen(n int) error {
	if n < 0 {
		return ErrSequenceMustHaveLen
	}
	return e.writeLen(n)
}

func (e *Encoder) writeLen(n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return ErrNumberOutOfRange
	}
	return e.Uint32(uint32(n))
}

// Decoder reads MicroCDR values out of a caller-owned buffer.
type Decoder struct {
	buf        []byte
	pos        int
	offset     int
	endianness Endianness
}

// NewDecoder wraps buf for decoding using DefaultEndianness.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf, endianness: DefaultEndianness}
}

// NewDecoderWithEndianness wraps buf for decoding in the given endianness.
func NewDecoderWithEndianness(buf []byte, e Endianness) *Decoder {
	return &Decoder{buf: buf, endianness: e}
}

// Endianness reports the decoder's configured wire endianness.
func (d *Decoder) Endianness() Endianness { return d.endianness }

// Offset reports bytes consumed so far.
func (d *Decoder) Offset() int { return d.offset }

// Remaining reports the number of unread bytes left in the buffer.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// AlignTo advances the cursor (without inspecting padding bytes) until
// offset is a multiple of width.
func (d *Decoder) AlignTo(width int) error {
	rem := d.offset & (width - 1)
	if rem == 0 {
		return nil
	}
	pad := width - rem
	if err := d.need(pad); err != nil {
		return err
	}
	d.pos += pad
	d.offset += pad
	return nil
}

func (d *Decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return ErrBufferNotEnough
	}
	return nil
}

func (d *Decoder) getBytes(width int) ([]byte, error) {
	// check padding and value together so a failed read leaves the cursor
	// where it was.
	pad := (width - d.offset&(width-1)) & (width - 1)
	if err := d.need(pad + width); err != nil {
		return nil, err
	}
	if err := d.AlignTo(width); err != nil {
		return nil, err
	}
	out := make([]byte, width)
	// out is interpreted as little-endian by the binary.LittleEndian
	// readers below; only a BigEndian wire request needs reversal here.
	if d.endianness == LittleEndian {
		copy(out, d.buf[d.pos:d.pos+width])
	} else {
		for i := 0; i < width; i++ {
			out[i] = d.buf[d.pos+width-1-i]
		}
	}
	d.pos += width
	d.offset += width
	return out, nil
}

// Bool decodes a single byte boolean.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uint8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrInvalidBoolEncoding, v)
	}
}

// Int8 decodes a signed 8-bit integer.
func (d *Decoder) Int8() (int8, error) {
	v, err := d.Uint8()
	return int8(v), err
}

// Uint8 decodes an unsigned 8-bit integer, no alignment required.
func (d *Decoder) Uint8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	d.pos++
	d.offset++
	return v, nil
}

// Int16 decodes a signed 16-bit integer, aligned to 2 bytes.
func (d *Decoder) Int16() (int16, error) {
	v, err := d.Uint16()
	return int16(v), err
}

// Uint16 decodes an unsigned 16-bit integer, aligned to 2 bytes.
func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.getBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Int32 decodes a signed 32-bit integer, aligned to 4 bytes.
func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

// Uint32 decodes an unsigned 32-bit integer, aligned to 4 bytes.
func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.getBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int64 decodes a signed 64-bit integer, aligned to 8 bytes.
func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	return int64(v), err
}

// Uint64 decodes an unsigned 64-bit integer, aligned to 8 bytes.
func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.getBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Float32 decodes an IEEE-754 single precision float, aligned to 4 bytes.
func (d *Decoder) Float32() (float32, error) {
	v, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Float64 decodes an IEEE-754 double precision float, aligned to 8 bytes.
func (d *Decoder) Float64() (float64, error) {
	v, err := d.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Char decodes a single ASCII byte.
func (d *Decoder) Char() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	if v > 0x7F {
		return 0, ErrInvalidCharEncoding
	}
	d.pos++
	d.offset++
	return v, nil
}

// String decodes a u32 length-including-null prefixed ASCII string and
// validates UTF-8 over the payload excluding the trailing null.
func (d *Decoder) String() (string, error) {
	raw, err := d.readLenPrefixed()
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("%w: empty string payload", ErrInvalidString)
	}
	body := raw[:len(raw)-1]
	if !isValidUTF8(body) {
		return "", ErrInvalidUTF8Encoding
	}
	return string(body), nil
}

// Bytes decodes a u32 length prefixed raw byte sequence.
func (d *Decoder) Bytes() ([]byte, error) {
	return d.readLenPrefixed()
}

// SequenceLen reads the u32 length prefix for a caller-driven sequence.
func (d *Decoder) SequenceLen() (int, error) {
	n, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (d *Decoder) readLenPrefixed() ([]byte, error) {
	pos, offset := d.pos, d.offset
	n, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if err := d.need(int(n)); err != nil {
		d.pos, d.offset = pos, offset
		return nil, err
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	d.offset += int(n)
	return out, nil
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

