package vibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibratorEmptySnapshot(t *testing.T) {
	t.Parallel()
	c := NewCalibrator()
	b := c.Snapshot()
	assert.Zero(t, b.SampleCount)
	assert.Zero(t, b.MeanDuration)
}

func TestCalibrateAccumulates(t *testing.T) {
	t.Parallel()
	c := NewCalibrator()
	c.Calibrate(TapFeatures{DurationAboveFloor: 0.04, OscillationCount: 2, DecayRate: 0.2})
	c.Calibrate(TapFeatures{DurationAboveFloor: 0.06, OscillationCount: 4, DecayRate: 0.4})

	b := c.Snapshot()
	require.Equal(t, 2, b.SampleCount)
	assert.InDelta(t, 0.05, b.MeanDuration, 1e-9)
	assert.InDelta(t, 3.0, b.MeanOscillations, 1e-9)
	assert.InDelta(t, 0.3, b.MeanDecay, 1e-9)
	assert.Greater(t, b.VarDuration, 0.0)
}

func TestCalibrateConverges(t *testing.T) {
	t.Parallel()
	// Repeated calibration with the same input leaves the means fixed.
	c := NewCalibrator()
	f := TapFeatures{DurationAboveFloor: 0.05, OscillationCount: 3, DecayRate: 0.25}
	for i := 0; i < 100; i++ {
		c.Calibrate(f)
	}
	b := c.Snapshot()
	assert.Equal(t, 100, b.SampleCount)
	assert.InDelta(t, 0.05, b.MeanDuration, 1e-12)
	assert.InDelta(t, 3.0, b.MeanOscillations, 1e-12)
	assert.InDelta(t, 0.0, b.VarDuration, 1e-12)
}

func TestClassificationDoesNotTouchBaseline(t *testing.T) {
	t.Parallel()
	c := NewCalibrator()
	c.Calibrate(TapFeatures{DurationAboveFloor: 0.05, OscillationCount: 3, DecayRate: 0.25})
	before := c.Snapshot()

	tc := NewTileClassifier(0.15)
	tc.Classify(TapFeatures{DurationAboveFloor: 0.3, OscillationCount: 9, DecayRate: 0.6}, before)

	assert.Equal(t, before, c.Snapshot())
}

func TestCalibratorReset(t *testing.T) {
	t.Parallel()
	c := NewCalibrator()
	c.Calibrate(TapFeatures{DurationAboveFloor: 0.05, OscillationCount: 3, DecayRate: 0.25})
	c.Reset()
	assert.Zero(t, c.Snapshot().SampleCount)
}
