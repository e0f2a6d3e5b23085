package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/sitescan/internal/anomaly"
	"github.com/banshee-data/sitescan/internal/monitoring"
	"github.com/banshee-data/sitescan/internal/vision"
)

// FrameSource produces one frame from the capture hardware. Capture is an
// external responsibility; implementations wrap whatever camera interface
// the deployment has.
type FrameSource interface {
	Capture(ctx context.Context) (*vision.Frame, error)
}

// FrameSourceFunc adapts a function to the FrameSource interface.
type FrameSourceFunc func(ctx context.Context) (*vision.Frame, error)

// Capture implements FrameSource.
func (f FrameSourceFunc) Capture(ctx context.Context) (*vision.Frame, error) {
	return f(ctx)
}

// Scanner funnels every crack scan, periodic or manual, through the same
// detector and coordinator entry point behind the capture guard.
type Scanner struct {
	guard    *CaptureGuard
	source   FrameSource
	detector *vision.CrackDetector
	coord    *anomaly.Coordinator
	interval time.Duration
}

// NewScanner wires a scanner. interval only matters for Run; Scan and
// AnalyzeFrame work regardless.
func NewScanner(guard *CaptureGuard, source FrameSource, detector *vision.CrackDetector,
	coord *anomaly.Coordinator, interval time.Duration) *Scanner {
	return &Scanner{
		guard:    guard,
		source:   source,
		detector: detector,
		coord:    coord,
		interval: interval,
	}
}

// AnalyzeFrame runs the detection pipeline on an already-decoded frame
// (manual request or uploaded image) and routes the outcome through the
// coordinator. The coordinator treats a failed run as "no anomaly".
func (s *Scanner) AnalyzeFrame(frame *vision.Frame) (*vision.CrackResult, error) {
	res, err := s.detector.Detect(frame)
	s.coord.HandleCrack(res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Scan acquires the capture resource, grabs one frame, and analyzes it.
// Returns ErrResourceBusy when another scan holds the resource.
func (s *Scanner) Scan(ctx context.Context) (*vision.CrackResult, error) {
	var res *vision.CrackResult
	err := s.guard.Do(func() error {
		frame, err := s.source.Capture(ctx)
		if err != nil {
			s.coord.HandleCrack(nil, err)
			return fmt.Errorf("frame capture failed: %w", err)
		}
		res, err = s.AnalyzeFrame(frame)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Run performs a scan every interval until the context is canceled. Busy
// rejections are logged and skipped; the next tick tries again.
func (s *Scanner) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scan interval must be positive, got %s", s.interval)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	monitoring.Logf("scanner: periodic scans every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Scan(ctx); err != nil {
				if errors.Is(err, ErrResourceBusy) {
					monitoring.Logf("scanner: capture busy, skipping tick")
					continue
				}
				monitoring.Logf("scanner: scan failed: %v", err)
			}
		}
	}
}
