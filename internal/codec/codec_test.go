package codec

import "testing"

func TestUint16RoundTripAtVariousOffsets(t *testing.T) {
	// writing `offset` leading bytes before the Uint16 forces AlignTo to
	// insert a different amount of padding each time, exercising the
	// alignment logic at several starting positions rather than always
	// hitting offset 0.
	for _, offset := range []int{0, 1, 3, 5, 7} {
		buf := make([]byte, offset+16)
		enc := NewEncoder(buf)
		for i := 0; i < offset; i++ {
			if err := enc.Uint8(0xAA); err != nil {
				t.Fatalf("offset %d: padding Uint8: %v", offset, err)
			}
		}
		if err := enc.Uint16(0x1234); err != nil {
			t.Fatalf("offset %d: Uint16: %v", offset, err)
		}
		n := enc.Finalize()

		dec := NewDecoder(buf[:n])
		for i := 0; i < offset; i++ {
			if _, err := dec.Uint8(); err != nil {
				t.Fatalf("offset %d: decode padding: %v", offset, err)
			}
		}
		v, err := dec.Uint16()
		if err != nil {
			t.Fatalf("offset %d: decode Uint16: %v", offset, err)
		}
		if v != 0x1234 {
			t.Fatalf("offset %d: got %#x, want 0x1234", offset, v)
		}
	}
}

func TestBigEndianReversesMultiByteFields(t *testing.T) {
	buf := make([]byte, 4)
	enc := NewEncoderWithEndianness(buf, BigEndian)
	if err := enc.Uint16(0x1234); err != nil {
		t.Fatalf("Uint16: %v", err)
	}
	if buf[0] != 0x12 || buf[1] != 0x34 {
		t.Fatalf("big-endian bytes = % X, want 12 34", buf[:2])
	}

	dec := NewDecoderWithEndianness(buf[:2], BigEndian)
	v, err := dec.Uint16()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v != 0x1234 {
		t.Fatalf("got %#x, want 0x1234", v)
	}
}

func TestLittleEndianByteOrder(t *testing.T) {
	buf := make([]byte, 4)
	enc := NewEncoder(buf)
	if err := enc.Uint16(0x1234); err != nil {
		t.Fatalf("Uint16: %v", err)
	}
	if buf[0] != 0x34 || buf[1] != 0x12 {
		t.Fatalf("little-endian bytes = % X, want 34 12", buf[:2])
	}
}

func TestUint32Alignment(t *testing.T) {
	buf := make([]byte, 16)
	enc := NewEncoder(buf)
	if err := enc.Uint8(0x01); err != nil {
		t.Fatalf("Uint8: %v", err)
	}
	if err := enc.Uint32(0xDEADBEEF); err != nil {
		t.Fatalf("Uint32: %v", err)
	}
	// Uint32 aligns to a 4-byte boundary: 1 byte written, 3 bytes padding,
	// then the 4-byte value starting at offset 4.
	if enc.Offset() != 8 {
		t.Fatalf("offset = %d, want 8", enc.Offset())
	}

	dec := NewDecoder(buf[:8])
	if _, err := dec.Uint8(); err != nil {
		t.Fatalf("decode Uint8: %v", err)
	}
	v, err := dec.Uint32()
	if err != nil {
		t.Fatalf("decode Uint32: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("got %#x, want 0xDEADBEEF", v)
	}
}

func TestStringRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	enc := NewEncoder(buf)
	if err := enc.String("xrce"); err != nil {
		t.Fatalf("String: %v", err)
	}
	n := enc.Finalize()

	dec := NewDecoder(buf[:n])
	v, err := dec.String()
	if err != nil {
		t.Fatalf("decode String: %v", err)
	}
	if v != "xrce" {
		t.Fatalf("got %q, want %q", v, "xrce")
	}
}

func TestStringRejectsNonASCII(t *testing.T) {
	buf := make([]byte, 32)
	enc := NewEncoder(buf)
	if err := enc.String("caf\xc3\xa9"); err == nil {
		t.Fatalf("expected error for non-ASCII string")
	}
}

func TestBufferNotEnough(t *testing.T) {
	buf := make([]byte, 1)
	enc := NewEncoder(buf)
	if err := enc.Uint16(1); err == nil {
		t.Fatalf("expected ErrBufferNotEnough for undersized buffer")
	}
}

func TestDecodeInvalidBool(t *testing.T) {
	dec := NewDecoder([]byte{0x02})
	if _, err := dec.Bool(); err == nil {
		t.Fatalf("expected ErrInvalidBoolEncoding for value 0x02")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	enc := NewEncoder(buf)
	payload := []byte{0x01, 0x02, 0x03}
	if err := enc.Bytes(payload); err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	n := enc.Finalize()

	dec := NewDecoder(buf[:n])
	got, err := dec.Bytes()
	if err != nil {
		t.Fatalf("decode Bytes: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
}
