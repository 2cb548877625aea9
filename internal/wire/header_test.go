package wire

import (
	"bytes"
	"testing"
)

func TestMessageHeaderEncodeNoKey(t *testing.T) {
	h := MessageHeader{SessionID: 0x80, StreamID: 0x01, SequenceNum: 0x0203}
	buf := make([]byte, MaxHeaderSize)
	n, err := h.Encode(buf)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if n != MinHeaderSize {
		t.Fatalf("n = %d, want %d (no key)", n, MinHeaderSize)
	}
	want := []byte{0x80, 0x01, 0x03, 0x02}
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("bytes = % X, want % X", buf[:n], want)
	}
}

func TestMessageHeaderEncodeWithKey(t *testing.T) {
	key := ClientKey{0x11, 0x22, 0x33, 0x44}
	h := MessageHeader{SessionID: 0x01, StreamID: 0x00, SequenceNum: 0x0000, Key: &key}
	buf := make([]byte, MaxHeaderSize)
	n, err := h.Encode(buf)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if n != MaxHeaderSize {
		t.Fatalf("n = %d, want %d (with key)", n, MaxHeaderSize)
	}
	want := []byte{0x01, 0x00, 0x00, 0x00, 0x11, 0x22, 0x33, 0x44}
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("bytes = % X, want % X", buf[:n], want)
	}
}

func TestDecodeMessageHeaderInfersKeyFromSessionID(t *testing.T) {
	raw := []byte{0x05, 0x00, 0x00, 0x00, 0xAA, 0xBB, 0xCC, 0xDD}
	h, n, err := DecodeMessageHeader(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != MaxHeaderSize {
		t.Fatalf("n = %d, want %d", n, MaxHeaderSize)
	}
	if h.Key == nil || *h.Key != (ClientKey{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Fatalf("key = %v, want AA BB CC DD", h.Key)
	}
}

func TestDecodeMessageHeaderNoKeyAboveThreshold(t *testing.T) {
	raw := []byte{0x80, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}
	h, n, err := DecodeMessageHeader(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != MinHeaderSize {
		t.Fatalf("n = %d, want %d", n, MinHeaderSize)
	}
	if h.Key != nil {
		t.Fatalf("key = %v, want nil for session_id >= 0x80", h.Key)
	}
}

func TestEncodeCanForceNoKeyBelowThreshold(t *testing.T) {
	// Session id 0x00 would normally carry a key on decode, but encoding is
	// driven solely by Key being non-nil: a caller can force the
	// "no key follows" wire shape explicitly.
	h := MessageHeader{SessionID: 0x00, StreamID: 0x00, SequenceNum: 0x00, Key: nil}
	buf := make([]byte, MaxHeaderSize)
	n, err := h.Encode(buf)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if n != MinHeaderSize {
		t.Fatalf("n = %d, want %d", n, MinHeaderSize)
	}
}
