package wire

import (
	"github.com/rjboer/xrce-client/internal/codec"
)

// XRCECookie is the fixed 4-byte CREATE_CLIENT magic, "XRCE".
var XRCECookie = [4]byte{'X', 'R', 'C', 'E'}

// Property is a name/value pair attached to a CLIENT_Representation, used
// to advertise optional client capabilities (shared memory, liveliness
// checks) to the agent.
type Property struct {
	Name  string
	Value string
}

// EncodedSize returns the number of bytes Property p occupies on the wire:
// two length-prefixed ASCII strings.
func (p Property) EncodedSize() int {
	return 4 + len(p.Name) + 1 + 4 + len(p.Value) + 1
}

// ClientRepresentation is the CREATE_CLIENT payload body (§3).
type ClientRepresentation struct {
	XRCEVersion  [2]byte
	XRCEVendorID [2]byte
	ClientKey    ClientKey
	SessionID    uint8
	Properties   []Property
	MTU          uint16
}

// CreateClientPayloadBaseSize is the encoded size of a CLIENT_Representation
// with no properties: cookie(4) + version(2) + vendor(2) + key(4) + session
// id(1) + properties-present bool(1) + mtu(2).
const CreateClientPayloadBaseSize = 16

// EncodedLength returns the SubMessageHeader length this representation
// would report: the payload bytes EncodeCreateClient writes after the
// sub-message header, including the 4-byte alignment padding before each
// property string and the 2-byte alignment padding before mtu (see
// SPEC_FULL.md §9 decision D1 — the reference implementation hardcodes 16
// even with properties, which would desync a real agent).
func (c ClientRepresentation) EncodedLength() uint16 {
	// offsets are counted from the sub-message header, the encoder's
	// alignment origin; the fixed fields end after the properties bool.
	off := SubHeaderSize + CreateClientPayloadBaseSize - 2
	for _, p := range c.Properties {
		for _, s := range [2]string{p.Name, p.Value} {
			off = (off+3)&^3 + 4 + len(s) + 1
		}
	}
	off = (off+1)&^1 + 2
	return uint16(off - SubHeaderSize)
}

// EncodeCreateClient writes a full CREATE_CLIENT sub-message (header +
// payload) into buf using the default (little-endian) wire encoding and
// returns the number of bytes written.
func EncodeCreateClient(buf []byte, c ClientRepresentation) (int, error) {
	return EncodeCreateClientWithEndianness(buf, c, codec.DefaultEndianness)
}

// EncodeCreateClientWithEndianness is EncodeCreateClient with an explicit
// wire endianness, for sessions configured away from the default.
func EncodeCreateClientWithEndianness(buf []byte, c ClientRepresentation, e codec.Endianness) (int, error) {
	enc := codec.NewEncoderWithEndianness(buf, e)

	hdr := CreateClient(c.EncodedLength())
	if err := hdr.Encode(enc); err != nil {
		return 0, err
	}

	for _, b := range XRCECookie {
		if err := enc.Uint8(b); err != nil {
			return 0, err
		}
	}
	for _, b := range c.XRCEVersion {
		if err := enc.Uint8(b); err != nil {
			return 0, err
		}
	}
	for _, b := range c.XRCEVendorID {
		if err := enc.Uint8(b); err != nil {
			return 0, err
		}
	}
	for _, b := range c.ClientKey {
		if err := enc.Uint8(b); err != nil {
			return 0, err
		}
	}
	if err := enc.Uint8(c.SessionID); err != nil {
		return 0, err
	}

	if err := enc.Bool(len(c.Properties) > 0); err != nil {
		return 0, err
	}
	for _, p := range c.Properties {
		if err := enc.String(p.Name); err != nil {
			return 0, err
		}
		if err := enc.String(p.Value); err != nil {
			return 0, err
		}
	}

	if err := enc.Uint16(c.MTU); err != nil {
		return 0, err
	}

	return enc.Finalize(), nil
}

// DecodeCreateClient reads a CREATE_CLIENT sub-message (header + payload)
// from the front of buf.
func DecodeCreateClient(buf []byte) (ClientRepresentation, int, error) {
	dec := codec.NewDecoder(buf)

	hdr, err := DecodeSubMessageHeader(dec)
	if err != nil {
		return ClientRepresentation{}, 0, err
	}
	if hdr.ID != IDCreateClient {
		return ClientRepresentation{}, 0, codec.ErrInvalidFormat
	}

	var c ClientRepresentation
	var cookie [4]byte
	for i := range cookie {
		b, err := dec.Uint8()
		if err != nil {
			return ClientRepresentation{}, 0, err
		}
		cookie[i] = b
	}
	if cookie != XRCECookie {
		return ClientRepresentation{}, 0, codec.ErrInvalidFormat
	}
	for i := range c.XRCEVersion {
		b, err := dec.Uint8()
		if err != nil {
			return ClientRepresentation{}, 0, err
		}
		c.XRCEVersion[i] = b
	}
	for i := range c.XRCEVendorID {
		b, err := dec.Uint8()
		if err != nil {
			return ClientRepresentation{}, 0, err
		}
		c.XRCEVendorID[i] = b
	}
	for i := range c.ClientKey {
		b, err := dec.Uint8()
		if err != nil {
			return ClientRepresentation{}, 0, err
		}
		c.ClientKey[i] = b
	}
	if c.SessionID, err = dec.Uint8(); err != nil {
		return ClientRepresentation{}, 0, err
	}

	hasProps, err := dec.Bool()
	if err != nil {
		return ClientRepresentation{}, 0, err
	}
	if hasProps {
		// The length field tells us where the payload ends; mtu closes it,
		// so decode name/value pairs until the next 2-byte-aligned offset
		// is mtu's.
		mtuPos := SubHeaderSize + int(hdr.Length) - 2
		for (dec.Offset()+1)&^1 < mtuPos {
			name, err := dec.String()
			if err != nil {
				return ClientRepresentation{}, 0, err
			}
			value, err := dec.String()
			if err != nil {
				return ClientRepresentation{}, 0, err
			}
			c.Properties = append(c.Properties, Property{Name: name, Value: value})
		}
	}

	if c.MTU, err = dec.Uint16(); err != nil {
		return ClientRepresentation{}, 0, err
	}

	return c, dec.Offset(), nil
}
