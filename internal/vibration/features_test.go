package vibration

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeSineEvent builds a closed event containing a decaying sinusoid.
func makeSineEvent(amp, freq, tau float64, dur time.Duration) TapEvent {
	start := time.Unix(10, 0)
	step := time.Second / sampleRate
	ev := TapEvent{StartTime: start}
	for ts := start; ts.Before(start.Add(dur)); ts = ts.Add(step) {
		t := ts.Sub(start).Seconds()
		v := amp * math.Exp(-t/tau) * math.Sin(2*math.Pi*freq*t)
		if math.Abs(v) > ev.PeakAmplitude {
			ev.PeakAmplitude = math.Abs(v)
		}
		ev.Window = append(ev.Window, Sample{Timestamp: ts, Amplitude: v})
	}
	return ev
}

func TestExtractFeaturesSinusoid(t *testing.T) {
	t.Parallel()
	const floor = 0.02

	t.Run("oscillation count scales with frequency", func(t *testing.T) {
		t.Parallel()
		var prev int
		for _, freq := range []float64{10, 20, 40, 80} {
			ev := makeSineEvent(0.5, freq, 10, 200*time.Millisecond) // negligible decay
			f := ExtractFeatures(ev, floor)
			assert.Greater(t, f.OscillationCount, prev, "freq %.0f", freq)
			prev = f.OscillationCount
		}
	})

	t.Run("duration matches envelope within tolerance", func(t *testing.T) {
		t.Parallel()
		// Envelope 0.5*exp(-t/0.03) falls below the floor at
		// t = 0.03*ln(0.5/0.02) = 0.0966s.
		ev := makeSineEvent(0.5, 50, 0.03, 500*time.Millisecond)
		f := ExtractFeatures(ev, floor)
		assert.InDelta(t, 0.0966, f.DurationAboveFloor, 0.02)
	})

	t.Run("decay rate reflects envelope", func(t *testing.T) {
		t.Parallel()
		fast := ExtractFeatures(makeSineEvent(0.5, 50, 0.02, 300*time.Millisecond), floor)
		slow := ExtractFeatures(makeSineEvent(0.5, 50, 10, 300*time.Millisecond), floor)
		assert.Less(t, fast.DecayRate, slow.DecayRate)
		assert.GreaterOrEqual(t, fast.DecayRate, 0.0)
		assert.LessOrEqual(t, slow.DecayRate, 1.0)
	})
}

func TestExtractFeaturesEdgeCases(t *testing.T) {
	t.Parallel()

	t.Run("empty window yields zero features", func(t *testing.T) {
		t.Parallel()
		f := ExtractFeatures(TapEvent{StartTime: time.Unix(0, 0)}, 0.02)
		assert.Zero(t, f.DurationAboveFloor)
		assert.Zero(t, f.OscillationCount)
		assert.Zero(t, f.DecayRate)
	})

	t.Run("single sample window does not divide by zero", func(t *testing.T) {
		t.Parallel()
		start := time.Unix(0, 0)
		ev := TapEvent{
			StartTime:     start,
			PeakAmplitude: 0.4,
			Window:        []Sample{{Timestamp: start, Amplitude: 0.4}},
		}
		f := ExtractFeatures(ev, 0.02)
		assert.Zero(t, f.DurationAboveFloor) // same instant as start
		assert.Zero(t, f.OscillationCount)
		assert.InDelta(t, 1.0, f.DecayRate, 1e-9)
	})

	t.Run("zero peak yields zero decay", func(t *testing.T) {
		t.Parallel()
		start := time.Unix(0, 0)
		ev := TapEvent{
			StartTime: start,
			Window: []Sample{
				{Timestamp: start, Amplitude: 0},
				{Timestamp: start.Add(time.Millisecond), Amplitude: 0},
			},
		}
		f := ExtractFeatures(ev, 0.02)
		assert.Zero(t, f.DecayRate)
	})

	t.Run("all samples below floor", func(t *testing.T) {
		t.Parallel()
		ev := makeSineEvent(0.01, 50, 10, 100*time.Millisecond)
		f := ExtractFeatures(ev, 0.02)
		assert.Zero(t, f.DurationAboveFloor)
	})
}

func TestExtractFeaturesDeterministic(t *testing.T) {
	t.Parallel()
	ev := makeSineEvent(0.5, 30, 0.05, 300*time.Millisecond)
	a := ExtractFeatures(ev, 0.02)
	b := ExtractFeatures(ev, 0.02)
	require.Equal(t, a, b)
}
