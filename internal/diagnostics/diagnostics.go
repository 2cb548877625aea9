// Package diagnostics tracks handshake link-quality statistics (round trip
// samples, drops, timeouts) for a running session. It is the one piece of
// the core's immediate surroundings that is explicitly safe for concurrent
// use: a reporting goroutine (the host CLI's status printer, say) reads it
// while the session's own goroutine keeps driving the handshake.
package diagnostics

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// sampleCapacity bounds the round-trip ring so a long-lived session doesn't
// grow this unbounded; only the most recent samples matter for a live
// link-quality estimate.
const sampleCapacity = 64

// Stats is a point-in-time copy of HandshakeStats's counters and sample
// window, safe to read without the originating mutex.
type Stats struct {
	Samples      []float64
	DroppedCRC   uint64
	Timeouts     uint64
	LastRTTMs    float64
	HandshakeOK  uint64
	HandshakeErr uint64
}

// HandshakeStats is a mutex-guarded fixed-capacity ring of handshake
// round-trip-time samples (milliseconds) plus counters for CRC-dropped
// frames and handshake timeouts. Only the owning session writes to it (its
// retry loop, plus CRC drops observed during Listen); any number of readers
// may call Snapshot/Mean/StdDev concurrently.
type HandshakeStats struct {
	mu           sync.Mutex
	samples      [sampleCapacity]float64
	count        int
	next         int
	droppedCRC   uint64
	timeouts     uint64
	handshakeOK  uint64
	handshakeErr uint64
}

// RecordRTT appends a successful handshake round-trip sample.
func (h *HandshakeStats) RecordRTT(ms float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples[h.next] = ms
	h.next = (h.next + 1) % sampleCapacity
	if h.count < sampleCapacity {
		h.count++
	}
	h.handshakeOK++
}

// RecordTimeout counts a handshake attempt that never received a reply.
func (h *HandshakeStats) RecordTimeout() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeouts++
	h.handshakeErr++
}

// RecordCRCDrop counts a frame dropped for failing its CRC check.
func (h *HandshakeStats) RecordCRCDrop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.droppedCRC++
}

// Snapshot copies out the current counters and sample window.
func (h *HandshakeStats) Snapshot() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := Stats{
		DroppedCRC:   h.droppedCRC,
		Timeouts:     h.timeouts,
		HandshakeOK:  h.handshakeOK,
		HandshakeErr: h.handshakeErr,
	}
	if h.count == 0 {
		return out
	}
	out.Samples = make([]float64, h.count)
	// samples are stored oldest-to-newest starting at next (the slot that
	// will be overwritten next) once the ring has wrapped.
	start := 0
	if h.count == sampleCapacity {
		start = h.next
	}
	for i := 0; i < h.count; i++ {
		out.Samples[i] = h.samples[(start+i)%sampleCapacity]
	}
	out.LastRTTMs = out.Samples[len(out.Samples)-1]
	return out
}

// Mean returns the sample mean round-trip time, 0 if no samples.
func (h *HandshakeStats) Mean() float64 {
	s := h.Snapshot()
	if len(s.Samples) == 0 {
		return 0
	}
	return stat.Mean(s.Samples, nil)
}

// StdDev returns the sample standard deviation of round-trip time, 0 if
// fewer than two samples.
func (h *HandshakeStats) StdDev() float64 {
	s := h.Snapshot()
	if len(s.Samples) < 2 {
		return 0
	}
	return stat.StdDev(s.Samples, nil)
}
