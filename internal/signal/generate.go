package signal

import (
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/sitescan/internal/vibration"
)

// SyntheticQuiet produces sensor noise below the given floor for the
// requested duration at sampleRate Hz.
func SyntheticQuiet(start time.Time, d time.Duration, sampleRate int, floor float64, rng *rand.Rand) []vibration.Sample {
	step := time.Second / time.Duration(sampleRate)
	n := int(d / step)
	out := make([]vibration.Sample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, vibration.Sample{
			Timestamp: start.Add(time.Duration(i) * step),
			Amplitude: (rng.Float64()*2 - 1) * floor * 0.5,
		})
	}
	return out
}

// SyntheticTap produces a decaying sine ring at freq Hz with the given
// peak amplitude and decay time constant, lasting d.
func SyntheticTap(start time.Time, d time.Duration, sampleRate int, peak, freq, tau float64) []vibration.Sample {
	step := time.Second / time.Duration(sampleRate)
	n := int(d / step)
	out := make([]vibration.Sample, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * step.Seconds()
		out = append(out, vibration.Sample{
			Timestamp: start.Add(time.Duration(i) * step),
			Amplitude: peak * math.Exp(-t/tau) * math.Cos(2*math.Pi*freq*t),
		})
	}
	return out
}

// SyntheticSession strings together quiet, tap, quiet segments the way a
// real tap test looks on the wire. Used by the daemon's mock mode.
func SyntheticSession(start time.Time, sampleRate int, floor, peak, freq, tau float64, rng *rand.Rand) []vibration.Sample {
	out := SyntheticQuiet(start, 100*time.Millisecond, sampleRate, floor, rng)
	tapStart := start.Add(100 * time.Millisecond)
	out = append(out, SyntheticTap(tapStart, 200*time.Millisecond, sampleRate, peak, freq, tau)...)
	quietStart := tapStart.Add(200 * time.Millisecond)
	out = append(out, SyntheticQuiet(quietStart, 700*time.Millisecond, sampleRate, floor, rng)...)
	return out
}
