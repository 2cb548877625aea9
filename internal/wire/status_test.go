package wire

import "testing"

func TestStatusPayloadRoundTrip(t *testing.T) {
	p := StatusPayload{
		RelatedRequest: RequestId{SequenceNum: 0x0102, ClientKey: ClientKey{1, 2, 3, 4}},
		Result:         Result{Status: StatusOK, ImplementationStatus: 0},
	}
	buf := make([]byte, 16)
	n, err := EncodeStatusPayload(buf, p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, n2, err := DecodeStatusPayload(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n2 != n {
		t.Fatalf("consumed %d, want %d", n2, n)
	}
	if got != p {
		t.Fatalf("got %+v, want %+v", got, p)
	}
}

func TestStatusCodesDistinguishDeniedFromIncompatible(t *testing.T) {
	for _, status := range []uint8{StatusOK, StatusErrDenied, StatusErrUnknownRef, StatusErrIncompatible, StatusErrResourceDeny} {
		p := StatusPayload{Result: Result{Status: status}}
		buf := make([]byte, 16)
		n, err := EncodeStatusPayload(buf, p)
		if err != nil {
			t.Fatalf("status %d: Encode: %v", status, err)
		}
		got, _, err := DecodeStatusPayload(buf[:n])
		if err != nil {
			t.Fatalf("status %d: Decode: %v", status, err)
		}
		if got.Result.Status != status {
			t.Fatalf("status %d: got %d", status, got.Result.Status)
		}
	}
}
