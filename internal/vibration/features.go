package vibration

import "math"

// TapFeatures are the shape descriptors of one tap event. They are derived
// per classification cycle and never stored.
type TapFeatures struct {
	// DurationAboveFloor is how long the amplitude envelope stayed above
	// the noise floor, measured from the event start (seconds).
	DurationAboveFloor float64
	// OscillationCount is the number of sign changes of the signal
	// relative to its running mean within the window.
	OscillationCount int
	// DecayRate is the ratio of the window-end amplitude to the peak.
	// Lower means faster decay, which reads as more solid.
	DecayRate float64
}

// ExtractFeatures computes TapFeatures from a closed event. It is a pure
// function of the window and tolerates short or empty windows: a window
// with no usable samples yields zero features.
func ExtractFeatures(ev TapEvent, noiseFloor float64) TapFeatures {
	var f TapFeatures
	if len(ev.Window) == 0 {
		return f
	}

	// Envelope duration: time from event start to the last sample whose
	// magnitude is still above the floor.
	for i := len(ev.Window) - 1; i >= 0; i-- {
		if math.Abs(ev.Window[i].Amplitude) > noiseFloor {
			f.DurationAboveFloor = ev.Window[i].Timestamp.Sub(ev.StartTime).Seconds()
			break
		}
	}
	if f.DurationAboveFloor < 0 {
		f.DurationAboveFloor = 0
	}

	// Oscillations: sign changes of the running-mean-centered signal.
	var mean float64
	prevSign := 0
	for i, s := range ev.Window {
		mean += (s.Amplitude - mean) / float64(i+1)
		centered := s.Amplitude - mean
		sign := 0
		if centered > 0 {
			sign = 1
		} else if centered < 0 {
			sign = -1
		}
		if sign != 0 && prevSign != 0 && sign != prevSign {
			f.OscillationCount++
		}
		if sign != 0 {
			prevSign = sign
		}
	}

	if ev.PeakAmplitude > 0 {
		end := math.Abs(ev.Window[len(ev.Window)-1].Amplitude)
		f.DecayRate = end / ev.PeakAmplitude
		if f.DecayRate > 1 {
			f.DecayRate = 1
		}
	}

	return f
}
