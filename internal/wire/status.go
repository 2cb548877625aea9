package wire

import "github.com/rjboer/xrce-client/internal/codec"

// Status codes carried in a Result.Status field (§9 decision D3).
const (
	StatusOK              uint8 = 0
	StatusErrDenied       uint8 = 1
	StatusErrUnknownRef   uint8 = 2
	StatusErrIncompatible uint8 = 3
	StatusErrResourceDeny uint8 = 4
)

// RequestId identifies which outstanding request a Status/StatusAgent reply
// answers.
type RequestId struct {
	SequenceNum uint16
	ClientKey   ClientKey
}

// Result is the status/implementation-status pair closing out a request.
type Result struct {
	Status               uint8
	ImplementationStatus uint8
}

// StatusPayload is the body of a Status or StatusAgent sub-message:
// the request being answered plus its result.
type StatusPayload struct {
	RelatedRequest RequestId
	Result         Result
}

// DecodeStatusPayload reads a StatusPayload from the front of buf using the
// default (little-endian) wire encoding.
func DecodeStatusPayload(buf []byte) (StatusPayload, int, error) {
	return DecodeStatusPayloadWithEndianness(buf, codec.DefaultEndianness)
}

// DecodeStatusPayloadWithEndianness is DecodeStatusPayload with an explicit
// wire endianness, for use with a sub-message header's advertised
// Endianness field.
func DecodeStatusPayloadWithEndianness(buf []byte, e codec.Endianness) (StatusPayload, int, error) {
	dec := codec.NewDecoderWithEndianness(buf, e)
	var p StatusPayload
	var err error
	if p.RelatedRequest.SequenceNum, err = dec.Uint16(); err != nil {
		return StatusPayload{}, 0, err
	}
	for i := range p.RelatedRequest.ClientKey {
		b, err := dec.Uint8()
		if err != nil {
			return StatusPayload{}, 0, err
		}
		p.RelatedRequest.ClientKey[i] = b
	}
	if p.Result.Status, err = dec.Uint8(); err != nil {
		return StatusPayload{}, 0, err
	}
	if p.Result.ImplementationStatus, err = dec.Uint8(); err != nil {
		return StatusPayload{}, 0, err
	}
	return p, dec.Offset(), nil
}

// EncodeStatusPayload writes p into buf, for tests and for an agent-side
// counterpart exercising the same schema.
func EncodeStatusPayload(buf []byte, p StatusPayload) (int, error) {
	enc := codec.NewEncoder(buf)
	if err := enc.Uint16(p.RelatedRequest.SequenceNum); err != nil {
		return 0, err
	}
	for _, b := range p.RelatedRequest.ClientKey {
		if err := enc.Uint8(b); err != nil {
			return 0, err
		}
	}
	if err := enc.Uint8(p.Result.Status); err != nil {
		return 0, err
	}
	if err := enc.Uint8(p.Result.ImplementationStatus); err != nil {
		return 0, err
	}
	return enc.Finalize(), nil
}
