package diagnostics

import (
	"math"
	"testing"
)

func TestRecordRTTAndMean(t *testing.T) {
	h := &HandshakeStats{}
	h.RecordRTT(10)
	h.RecordRTT(20)
	h.RecordRTT(30)

	if got := h.Mean(); math.Abs(got-20) > 1e-9 {
		t.Fatalf("Mean() = %v, want 20", got)
	}
	snap := h.Snapshot()
	if snap.HandshakeOK != 3 || snap.LastRTTMs != 30 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestStdDevRequiresTwoSamples(t *testing.T) {
	h := &HandshakeStats{}
	if got := h.StdDev(); got != 0 {
		t.Fatalf("StdDev() with no samples = %v, want 0", got)
	}
	h.RecordRTT(5)
	if got := h.StdDev(); got != 0 {
		t.Fatalf("StdDev() with one sample = %v, want 0", got)
	}
	h.RecordRTT(15)
	if got := h.StdDev(); got <= 0 {
		t.Fatalf("StdDev() with two samples = %v, want > 0", got)
	}
}

func TestRingWrapsAfterCapacity(t *testing.T) {
	h := &HandshakeStats{}
	for i := 0; i < sampleCapacity+10; i++ {
		h.RecordRTT(float64(i))
	}
	snap := h.Snapshot()
	if len(snap.Samples) != sampleCapacity {
		t.Fatalf("Samples len = %d, want %d", len(snap.Samples), sampleCapacity)
	}
	// oldest surviving sample is the 11th recorded value (index 10), newest
	// is the last one recorded.
	if snap.Samples[0] != 10 {
		t.Fatalf("oldest sample = %v, want 10", snap.Samples[0])
	}
	if snap.LastRTTMs != float64(sampleCapacity+9) {
		t.Fatalf("LastRTTMs = %v, want %v", snap.LastRTTMs, sampleCapacity+9)
	}
}

func TestRecordTimeoutAndCRCDrop(t *testing.T) {
	h := &HandshakeStats{}
	h.RecordTimeout()
	h.RecordCRCDrop()
	h.RecordCRCDrop()

	snap := h.Snapshot()
	if snap.Timeouts != 1 || snap.HandshakeErr != 1 || snap.DroppedCRC != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
