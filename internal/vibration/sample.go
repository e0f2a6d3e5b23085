// Package vibration implements the tap-test analyzer: it isolates discrete
// tap events from a continuous piezo sample stream and classifies the struck
// tile as hollow or solid from the shape of each event.
package vibration

import (
	"math"
	"time"
)

// Sample is one timestamped vibration reading from the piezo source.
type Sample struct {
	Timestamp time.Time
	Amplitude float64
}

// Valid reports whether the sample carries a usable reading. Malformed
// samples (zero timestamp, NaN or infinite amplitude) are dropped silently
// by the buffer and the detector.
func (s Sample) Valid() bool {
	if s.Timestamp.IsZero() {
		return false
	}
	return !math.IsNaN(s.Amplitude) && !math.IsInf(s.Amplitude, 0)
}

// SampleBuffer is a fixed-capacity ring buffer of samples. The vibration
// pipeline holds only this bounded window of recent readings.
type SampleBuffer struct {
	data []Sample
	pos  int
	full bool
	cap  int
}

// NewSampleBuffer creates a SampleBuffer with the given capacity.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleBuffer{
		data: make([]Sample, capacity),
		cap:  capacity,
	}
}

// Push adds a sample to the buffer, evicting the oldest entry once full.
// Invalid samples are dropped.
func (b *SampleBuffer) Push(s Sample) {
	if !s.Valid() {
		return
	}
	b.data[b.pos] = s
	b.pos++
	if b.pos >= b.cap {
		b.pos = 0
		b.full = true
	}
}

// Len returns the number of samples held.
func (b *SampleBuffer) Len() int {
	if b.full {
		return b.cap
	}
	return b.pos
}

// Slice returns the buffered samples in insertion order.
func (b *SampleBuffer) Slice() []Sample {
	n := b.Len()
	out := make([]Sample, n)
	if b.full {
		copy(out, b.data[b.pos:])
		copy(out[b.cap-b.pos:], b.data[:b.pos])
	} else {
		copy(out, b.data[:b.pos])
	}
	return out
}

// Reset discards all buffered samples.
func (b *SampleBuffer) Reset() {
	b.pos = 0
	b.full = false
}
