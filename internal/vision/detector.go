package vision

import (
	"errors"
	"math"

	"github.com/banshee-data/sitescan/internal/monitoring"
)

var (
	// ErrInvalidSensitivity indicates the sensitivity must be in (0, 1].
	ErrInvalidSensitivity = errors.New("sensitivity must be in (0, 1]")
	// ErrInvalidEdgeThresholds indicates low must not exceed high.
	ErrInvalidEdgeThresholds = errors.New("edge low threshold must not exceed high threshold")
)

// Geometric filter and scoring constants.
const (
	// referenceSensitivity is the sensitivity at which the configured edge
	// thresholds apply unscaled; lower sensitivity values admit more edges.
	referenceSensitivity = 0.15

	// minElongation rejects pixel clouds with aspect ratios typical of
	// grout joints and soft shadows rather than cracks.
	minElongation = 3.0

	mergeAngleTolRadians = 10 * math.Pi / 180
	mergeGapTolPixels    = 12.0
	mergeLateralTol      = 3.0

	countWeight  = 0.1
	lengthWeight = 0.6
)

// DetectorConfig holds the crack detector tuning knobs. Values come from
// the tuning config.
type DetectorConfig struct {
	// Sensitivity scales the edge hysteresis pair; lower admits more
	// edges (higher sensitivity), per the camera_crack_threshold option.
	Sensitivity float64
	// MinCrackLength is the minimum surviving segment length in pixels.
	MinCrackLength int
	// EdgeLowThreshold and EdgeHighThreshold are the hysteresis pair at
	// reference sensitivity.
	EdgeLowThreshold  int
	EdgeHighThreshold int
}

// CrackResult is the outcome of one pipeline invocation.
type CrackResult struct {
	CrackCount  int
	Confidence  float64
	TotalLength float64 // pixels of surviving segments
	Segments    []LineSegment
	Annotated   *Frame
}

// CrackDetector runs the detection pipeline. It is stateless between
// invocations; a fixed frame and fixed configuration always produce the
// same result.
type CrackDetector struct {
	cfg DetectorConfig
}

// NewCrackDetector validates the configuration and returns a detector.
func NewCrackDetector(cfg DetectorConfig) (*CrackDetector, error) {
	if cfg.Sensitivity <= 0 || cfg.Sensitivity > 1 {
		return nil, ErrInvalidSensitivity
	}
	if cfg.MinCrackLength <= 0 {
		cfg.MinCrackLength = 50
	}
	if cfg.EdgeLowThreshold <= 0 {
		cfg.EdgeLowThreshold = 50
	}
	if cfg.EdgeHighThreshold <= 0 {
		cfg.EdgeHighThreshold = 150
	}
	if cfg.EdgeLowThreshold > cfg.EdgeHighThreshold {
		return nil, ErrInvalidEdgeThresholds
	}
	return &CrackDetector{cfg: cfg}, nil
}

// Detect runs the full pipeline on one frame: preprocess, edge extraction,
// segment grouping, geometric filtering, scoring, annotation. The input
// frame is never mutated; the annotated copy carries the surviving
// segments drawn in red.
func (cd *CrackDetector) Detect(f *Frame) (*CrackResult, error) {
	if f == nil || f.rgba == nil {
		return nil, ErrInvalidFrame
	}
	w, h := f.Width(), f.Height()
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidFrame
	}

	// Preprocess
	gray := grayscale(f)
	blurred := gaussianBlur5(gray, w, h)

	// Edge extraction with sensitivity-scaled hysteresis
	scale := cd.cfg.Sensitivity / referenceSensitivity
	low := float64(cd.cfg.EdgeLowThreshold) * scale
	high := float64(cd.cfg.EdgeHighThreshold) * scale
	mag, dir := sobel(blurred, w, h)
	thin := nonMaxSuppress(mag, dir, w, h)
	edges := hysteresis(thin, w, h, low, high)

	// Line extraction and merging
	var segs []LineSegment
	for _, comp := range traceComponents(edges, w, h) {
		segs = append(segs, fitSegment(comp, w))
	}
	segs = mergeColinear(segs, mergeAngleTolRadians, mergeGapTolPixels, mergeLateralTol)

	// Geometric filtering
	var surviving []LineSegment
	var totalLen float64
	for _, s := range segs {
		if s.Length() < float64(cd.cfg.MinCrackLength) {
			continue
		}
		if s.Elongation < minElongation {
			continue
		}
		surviving = append(surviving, s)
		totalLen += s.Length()
	}

	// Scoring: monotonic in count and in surviving length relative to the
	// frame diagonal, clipped to [0,1].
	diag := math.Hypot(float64(w), float64(h))
	confidence := countWeight*float64(len(surviving)) + lengthWeight*totalLen/diag
	if confidence > 1 {
		confidence = 1
	}

	res := &CrackResult{
		CrackCount:  len(surviving),
		Confidence:  confidence,
		TotalLength: totalLen,
		Segments:    surviving,
		Annotated:   annotate(f, surviving),
	}
	monitoring.Logf("crack detection: count=%d confidence=%.3f total_len=%.1fpx",
		res.CrackCount, res.Confidence, res.TotalLength)
	return res, nil
}
