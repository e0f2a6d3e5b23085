package scan

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sitescan/internal/anomaly"
	"github.com/banshee-data/sitescan/internal/monitoring"
	"github.com/banshee-data/sitescan/internal/vision"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func testFrame(t *testing.T, cracked bool) *vision.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if cracked {
		draw.Draw(img, image.Rect(100, 20, 104, 220),
			image.NewUniform(color.Black), image.Point{}, draw.Src)
	}
	f, err := vision.NewFrame(img)
	require.NoError(t, err)
	return f
}

func newTestScanner(t *testing.T, source FrameSource, interval time.Duration) (*Scanner, *[]anomaly.Event) {
	t.Helper()
	detector, err := vision.NewCrackDetector(vision.DetectorConfig{
		Sensitivity: 0.15, MinCrackLength: 50, EdgeLowThreshold: 50, EdgeHighThreshold: 150,
	})
	require.NoError(t, err)

	coord := anomaly.NewCoordinator(0.15)
	var mu sync.Mutex
	events := &[]anomaly.Event{}
	coord.OnAnomaly(func(ev anomaly.Event) {
		mu.Lock()
		defer mu.Unlock()
		*events = append(*events, ev)
	})

	return NewScanner(NewCaptureGuard(), source, detector, coord, interval), events
}

func TestCaptureGuard(t *testing.T) {
	t.Parallel()

	t.Run("sequential runs both execute", func(t *testing.T) {
		t.Parallel()
		g := NewCaptureGuard()
		ran := 0
		require.NoError(t, g.Do(func() error { ran++; return nil }))
		require.NoError(t, g.Do(func() error { ran++; return nil }))
		assert.Equal(t, 2, ran)
	})

	t.Run("overlapping run is rejected", func(t *testing.T) {
		t.Parallel()
		g := NewCaptureGuard()
		inner := make(chan error, 1)
		release := make(chan struct{})
		started := make(chan struct{})

		go func() {
			inner <- g.Do(func() error {
				close(started)
				<-release
				return nil
			})
		}()

		<-started
		err := g.Do(func() error { return nil })
		assert.ErrorIs(t, err, ErrResourceBusy)

		close(release)
		assert.NoError(t, <-inner)
	})

	t.Run("fn error propagates", func(t *testing.T) {
		t.Parallel()
		g := NewCaptureGuard()
		want := errors.New("capture jammed")
		assert.ErrorIs(t, g.Do(func() error { return want }), want)
	})
}

func TestScanHappyPath(t *testing.T) {
	t.Parallel()
	source := FrameSourceFunc(func(context.Context) (*vision.Frame, error) {
		return testFrame(t, true), nil
	})
	s, events := newTestScanner(t, source, time.Second)

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.CrackCount, 1)
	assert.NotEmpty(t, *events, "confident crack result reaches the coordinator")
}

func TestScanBlankFrameNoAnomaly(t *testing.T) {
	t.Parallel()
	source := FrameSourceFunc(func(context.Context) (*vision.Frame, error) {
		return testFrame(t, false), nil
	})
	s, events := newTestScanner(t, source, time.Second)

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.CrackCount)
	assert.Empty(t, *events)
}

func TestScanCaptureFailure(t *testing.T) {
	t.Parallel()
	captureErr := errors.New("camera unavailable")
	source := FrameSourceFunc(func(context.Context) (*vision.Frame, error) {
		return nil, captureErr
	})
	s, events := newTestScanner(t, source, time.Second)

	_, err := s.Scan(context.Background())
	assert.ErrorIs(t, err, captureErr)
	assert.Empty(t, *events, "capture failure is no anomaly, not a detected crack")
}

func TestScanBusyRejection(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	started := make(chan struct{})
	source := FrameSourceFunc(func(context.Context) (*vision.Frame, error) {
		close(started)
		<-block
		return testFrame(t, false), nil
	})
	s, _ := newTestScanner(t, source, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Scan(context.Background())
	}()

	<-started
	_, err := s.Scan(context.Background())
	assert.ErrorIs(t, err, ErrResourceBusy)

	close(block)
	<-done
}

func TestAnalyzeFrameInvalidInput(t *testing.T) {
	t.Parallel()
	source := FrameSourceFunc(func(context.Context) (*vision.Frame, error) {
		return testFrame(t, false), nil
	})
	s, events := newTestScanner(t, source, time.Second)

	_, err := s.AnalyzeFrame(nil)
	assert.ErrorIs(t, err, vision.ErrInvalidFrame)
	assert.Empty(t, *events)
}

func TestRunPeriodicScans(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	captures := 0
	source := FrameSourceFunc(func(context.Context) (*vision.Frame, error) {
		mu.Lock()
		captures++
		mu.Unlock()
		return testFrame(t, false), nil
	})
	s, _ := newTestScanner(t, source, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, captures, 2, "expected multiple periodic captures")
}

func TestRunRejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()
	s, _ := newTestScanner(t, FrameSourceFunc(func(context.Context) (*vision.Frame, error) {
		return nil, errors.New("unused")
	}), 0)
	assert.Error(t, s.Run(context.Background()))
}
