package vibration

// TileLabel is the outcome of a tap classification.
type TileLabel string

const (
	// LabelSolid indicates a well-bonded tile.
	LabelSolid TileLabel = "solid"
	// LabelHollow indicates a debonded (hollow-sounding) tile.
	LabelHollow TileLabel = "hollow"
	// LabelUndetermined indicates the event was too degenerate to judge.
	LabelUndetermined TileLabel = "undetermined"
)

// Classification thresholds (configurable for tuning)
const (
	// DefaultOscillationThreshold is the fallback crossing count above
	// which an uncalibrated tap reads as hollow.
	DefaultOscillationThreshold = 5.0

	// CalibratedConfidenceCeiling caps confidence when a baseline exists.
	CalibratedConfidenceCeiling = 0.95
	// UncalibratedConfidenceCeiling caps confidence on the fallback path,
	// reflecting the reduced certainty without a baseline.
	UncalibratedConfidenceCeiling = 0.85

	// ConfidenceFloor keeps non-degenerate results away from exactly zero.
	ConfidenceFloor = 0.05
)

// Classification is the label plus a confidence in [0,1].
type Classification struct {
	Label      TileLabel
	Confidence float64
}

// TileClassifier combines tap features with the calibrated baseline to
// label a tile hollow or solid. It holds no mutable state; the baseline is
// passed in per call.
type TileClassifier struct {
	// HollowDurationThreshold is the fallback duration cutoff (seconds)
	// used when no baseline exists, and the lower bound when one does.
	HollowDurationThreshold float64
	// BaselineDurationFactor scales the calibrated mean duration into the
	// adaptive hollow cutoff.
	BaselineDurationFactor float64
	// OscillationMargin is how far above the calibrated mean the crossing
	// count must be to read as hollow.
	OscillationMargin float64
}

// NewTileClassifier returns a classifier with the given fallback duration
// threshold and default baseline scaling.
func NewTileClassifier(hollowDurationThreshold float64) *TileClassifier {
	return &TileClassifier{
		HollowDurationThreshold: hollowDurationThreshold,
		BaselineDurationFactor:  1.5,
		OscillationMargin:       2.0,
	}
}

func clampConfidence(value, min, max float64) float64 {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}

// Classify labels one tap. It is deterministic for identical inputs and
// reads the baseline without modifying it. A tie (feature exactly at the
// threshold) resolves to solid, preferring fewer false alarms.
func (tc *TileClassifier) Classify(f TapFeatures, b Baseline) Classification {
	// Degenerate event: nothing measurable in the window.
	if f.DurationAboveFloor <= 0 && f.OscillationCount == 0 && f.DecayRate == 0 {
		return Classification{Label: LabelUndetermined, Confidence: 0}
	}

	durationCutoff := tc.HollowDurationThreshold
	oscCutoff := DefaultOscillationThreshold
	ceiling := UncalibratedConfidenceCeiling

	if b.SampleCount > 0 {
		adapted := b.MeanDuration * tc.BaselineDurationFactor
		if adapted > durationCutoff {
			durationCutoff = adapted
		}
		oscCutoff = b.MeanOscillations + tc.OscillationMargin
		ceiling = CalibratedConfidenceCeiling
	}

	hollow := f.DurationAboveFloor > durationCutoff && float64(f.OscillationCount) > oscCutoff
	if hollow {
		return Classification{
			Label:      LabelHollow,
			Confidence: tc.hollowConfidence(f, durationCutoff, ceiling),
		}
	}
	return Classification{
		Label:      LabelSolid,
		Confidence: tc.solidConfidence(f, durationCutoff, ceiling),
	}
}

// hollowConfidence grows with how far the duration and crossing count sit
// past the decision boundary.
func (tc *TileClassifier) hollowConfidence(f TapFeatures, cutoff, ceiling float64) float64 {
	durExcess := f.DurationAboveFloor/cutoff - 1
	if durExcess > 1 {
		durExcess = 1
	}
	oscScore := float64(f.OscillationCount) / 10.0
	if oscScore > 1 {
		oscScore = 1
	}
	return clampConfidence(0.5+0.3*durExcess+0.2*oscScore, ConfidenceFloor, ceiling)
}

// solidConfidence grows with how far short of the hollow cutoff the
// duration stays; a lingering envelope near the cutoff scores low.
func (tc *TileClassifier) solidConfidence(f TapFeatures, cutoff, ceiling float64) float64 {
	deficit := 1 - f.DurationAboveFloor/cutoff
	if deficit < 0 {
		deficit = 0
	}
	// Fast decay reinforces a solid read.
	decayBonus := (1 - f.DecayRate) * 0.1
	return clampConfidence(0.4+0.45*deficit+decayBonus, ConfidenceFloor, ceiling)
}
