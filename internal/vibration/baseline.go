package vibration

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Baseline is the rolling reference built from taps on known-solid tiles.
// It persists for the process lifetime and changes only through explicit
// calibration, never as a side effect of classification.
type Baseline struct {
	MeanDuration     float64
	MeanOscillations float64
	MeanDecay        float64
	VarDuration      float64
	SampleCount      int
}

// Calibrator owns the Baseline. Calibration is strictly additive: there is
// no removal operation, and stale samples are never decayed. The caller
// controls when calibration happens (tapping a known-solid tile at setup).
//
// The mutex covers the calibrate/snapshot pair so calibration and
// classification may be issued from different goroutines; with a single
// writer it is uncontended.
type Calibrator struct {
	mu sync.RWMutex

	durations    []float64
	oscillations []float64
	decays       []float64
}

// NewCalibrator returns an empty calibrator.
func NewCalibrator() *Calibrator {
	return &Calibrator{}
}

// Calibrate incorporates one known-solid tap into the baseline.
func (c *Calibrator) Calibrate(f TapFeatures) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations = append(c.durations, f.DurationAboveFloor)
	c.oscillations = append(c.oscillations, float64(f.OscillationCount))
	c.decays = append(c.decays, f.DecayRate)
}

// Reset discards all calibration samples. It exists only as an explicit
// caller operation; nothing in the pipeline calls it.
func (c *Calibrator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations = nil
	c.oscillations = nil
	c.decays = nil
}

// Snapshot returns the current baseline statistics.
func (c *Calibrator) Snapshot() Baseline {
	c.mu.RLock()
	defer c.mu.RUnlock()

	b := Baseline{SampleCount: len(c.durations)}
	if b.SampleCount == 0 {
		return b
	}
	b.MeanDuration = stat.Mean(c.durations, nil)
	b.MeanOscillations = stat.Mean(c.oscillations, nil)
	b.MeanDecay = stat.Mean(c.decays, nil)
	if b.SampleCount > 1 {
		b.VarDuration = stat.Variance(c.durations, nil)
	}
	return b
}
