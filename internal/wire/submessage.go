package wire

import (
	"fmt"

	"github.com/rjboer/xrce-client/internal/codec"
)

// SubMessageID identifies the kind of sub-message a SubMessageHeader
// introduces.
type SubMessageID uint8

const (
	IDCreateClient   SubMessageID = 0
	IDCreate         SubMessageID = 1
	IDGetInfo        SubMessageID = 2
	IDDelete         SubMessageID = 3
	IDStatusAgent    SubMessageID = 4
	IDStatus         SubMessageID = 5
	IDInfo           SubMessageID = 6
	IDWriteData      SubMessageID = 7
	IDReadData       SubMessageID = 8
	IDData           SubMessageID = 9
	IDAckNack        SubMessageID = 10
	IDHeartBeat      SubMessageID = 11
	IDReset          SubMessageID = 12
	IDFragment       SubMessageID = 13
	IDTimeStamp      SubMessageID = 14
	IDTimeStampReply SubMessageID = 15
)

// SubHeaderSize is the fixed wire size of a SubMessageHeader.
const SubHeaderSize = 4

// DataFormat is the payload encoding carried by WriteData/Data
// sub-messages, in flag bits 1..=7.
type DataFormat uint8

const (
	FormatData         DataFormat = 0x00
	FormatSample       DataFormat = 0x01
	FormatDataSeq      DataFormat = 0x04
	FormatSampleSeq    DataFormat = 0x05
	FormatPackedSample DataFormat = 0x07
)

func dataFormatFromByte(v uint8) (DataFormat, error) {
	switch DataFormat(v) {
	case FormatData, FormatSample, FormatDataSeq, FormatSampleSeq, FormatPackedSample:
		return DataFormat(v), nil
	default:
		return 0, fmt.Errorf("%w: %#x", codec.ErrInvalidFormat, v)
	}
}

// SubMessageHeader is the 4-byte tagged union described in §3/§4.2: an id,
// an 8-bit flags byte, and a 16-bit length. Only the fields relevant to a
// given ID are meaningful; use the constructors below rather than building
// one by hand.
type SubMessageHeader struct {
	ID         SubMessageID
	Length     uint16
	Replace    bool             // Create
	Reuse      bool             // Create
	Format     DataFormat       // WriteData, Data
	Last       bool             // Fragment
	Endianness codec.Endianness // decode output only: the payload's advertised endianness (flag bit 0)
}

// CreateClient builds a CreateClient sub-message header of the given length.
func CreateClient(length uint16) SubMessageHeader {
	return SubMessageHeader{ID: IDCreateClient, Length: length}
}

// WriteData builds a WriteData sub-message header.
func WriteData(length uint16, format DataFormat) SubMessageHeader {
	return SubMessageHeader{ID: IDWriteData, Length: length, Format: format}
}

// Data builds a Data sub-message header.
func Data(length uint16, format DataFormat) SubMessageHeader {
	return SubMessageHeader{ID: IDData, Length: length, Format: format}
}

// Fragment builds a Fragment sub-message header.
func Fragment(length uint16, last bool) SubMessageHeader {
	return SubMessageHeader{ID: IDFragment, Length: length, Last: last}
}

// Create builds a Create sub-message header.
func Create(length uint16, replace, reuse bool) SubMessageHeader {
	return SubMessageHeader{ID: IDCreate, Length: length, Replace: replace, Reuse: reuse}
}

func simple(id SubMessageID, length uint16) SubMessageHeader {
	return SubMessageHeader{ID: id, Length: length}
}

// GetInfo, Delete, StatusAgent, Status, Info, ReadData, AckNack, HeartBeat,
// Reset, TimeStamp, and TimeStampReply carry no flag bits beyond the
// endianness marker, so a single helper builds all of them.
func GetInfo(length uint16) SubMessageHeader        { return simple(IDGetInfo, length) }
func Delete(length uint16) SubMessageHeader         { return simple(IDDelete, length) }
func StatusAgent(length uint16) SubMessageHeader    { return simple(IDStatusAgent, length) }
func Status(length uint16) SubMessageHeader         { return simple(IDStatus, length) }
func Info(length uint16) SubMessageHeader           { return simple(IDInfo, length) }
func ReadData(length uint16) SubMessageHeader       { return simple(IDReadData, length) }
func AckNack(length uint16) SubMessageHeader        { return simple(IDAckNack, length) }
func HeartBeat(length uint16) SubMessageHeader      { return simple(IDHeartBeat, length) }
func Reset(length uint16) SubMessageHeader          { return simple(IDReset, length) }
func TimeStamp(length uint16) SubMessageHeader      { return simple(IDTimeStamp, length) }
func TimeStampReply(length uint16) SubMessageHeader { return simple(IDTimeStampReply, length) }

// Encode writes h using enc's configured endianness, forcing flag bit 0 to
// the endianness marker (1 = little) as required by §4.2.
func (h SubMessageHeader) Encode(enc *codec.Encoder) error {
	var flags uint8
	switch h.ID {
	case IDCreate:
		if h.Replace {
			flags |= 1 << 2
		}
		if h.Reuse {
			flags |= 1 << 1
		}
	case IDWriteData, IDData:
		flags |= uint8(h.Format) << 1
	case IDFragment:
		if h.Last {
			flags |= 1 << 1
		}
	}
	if enc.Endianness() == codec.LittleEndian {
		flags |= 1
	}

	if err := enc.Uint8(uint8(h.ID)); err != nil {
		return err
	}
	if err := enc.Uint8(flags); err != nil {
		return err
	}
	return enc.Uint16(h.Length)
}

// EncodeToSlice is a convenience wrapper constructing a fresh little-endian
// encoder over buf.
func (h SubMessageHeader) EncodeToSlice(buf []byte) (int, error) {
	return h.EncodeToSliceWithEndianness(buf, codec.DefaultEndianness)
}

// EncodeToSliceWithEndianness is EncodeToSlice with an explicit wire
// endianness.
func (h SubMessageHeader) EncodeToSliceWithEndianness(buf []byte, e codec.Endianness) (int, error) {
	enc := codec.NewEncoderWithEndianness(buf, e)
	if err := h.Encode(enc); err != nil {
		return 0, err
	}
	return enc.Finalize(), nil
}

// DecodeSubMessageHeader reads a SubMessageHeader using dec's configured
// endianness. Unknown ids return codec.ErrInvalidFormat rather than being
// silently accepted, per §4.2.
func DecodeSubMessageHeader(dec *codec.Decoder) (SubMessageHeader, error) {
	rawID, err := dec.Uint8()
	if err != nil {
		return SubMessageHeader{}, err
	}
	flags, err := dec.Uint8()
	if err != nil {
		return SubMessageHeader{}, err
	}
	length, err := dec.Uint16()
	if err != nil {
		return SubMessageHeader{}, err
	}

	h := SubMessageHeader{ID: SubMessageID(rawID), Length: length}
	if flags&1 != 0 {
		h.Endianness = codec.LittleEndian
	} else {
		h.Endianness = codec.BigEndian
	}
	switch h.ID {
	case IDCreateClient, IDGetInfo, IDDelete, IDStatusAgent, IDStatus, IDInfo,
		IDReadData, IDAckNack, IDHeartBeat, IDReset, IDTimeStamp, IDTimeStampReply:
		// no extra flag bits to decode besides endianness
	case IDCreate:
		h.Replace = flags&(1<<2) != 0
		h.Reuse = flags&(1<<1) != 0
	case IDWriteData, IDData:
		format, err := dataFormatFromByte(flags >> 1)
		if err != nil {
			return SubMessageHeader{}, err
		}
		h.Format = format
	case IDFragment:
		h.Last = flags&(1<<1) != 0
	default:
		return SubMessageHeader{}, fmt.Errorf("%w: unknown sub-message id %d", codec.ErrInvalidFormat, rawID)
	}
	return h, nil
}

// DecodeSubMessageHeaderFromSlice is a convenience wrapper constructing a
// fresh little-endian decoder over buf and reporting bytes consumed.
func DecodeSubMessageHeaderFromSlice(buf []byte) (SubMessageHeader, int, error) {
	return DecodeSubMessageHeaderFromSliceWithEndianness(buf, codec.DefaultEndianness)
}

// DecodeSubMessageHeaderFromSliceWithEndianness is
// DecodeSubMessageHeaderFromSlice with an explicit wire endianness.
func DecodeSubMessageHeaderFromSliceWithEndianness(buf []byte, e codec.Endianness) (SubMessageHeader, int, error) {
	dec := codec.NewDecoderWithEndianness(buf, e)
	h, err := DecodeSubMessageHeader(dec)
	if err != nil {
		return SubMessageHeader{}, 0, err
	}
	return h, dec.Offset(), nil
}
