// Command sitescand runs the floor inspection daemon: it streams piezo
// samples into the tap-test pipeline and, when enabled, drives periodic
// crack scans over a frame spool directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"math/rand"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/banshee-data/sitescan/internal/anomaly"
	"github.com/banshee-data/sitescan/internal/config"
	"github.com/banshee-data/sitescan/internal/monitoring"
	"github.com/banshee-data/sitescan/internal/scan"
	"github.com/banshee-data/sitescan/internal/signal"
	"github.com/banshee-data/sitescan/internal/vibration"
	"github.com/banshee-data/sitescan/internal/vision"
)

var (
	configPath = flag.String("config", "", "Path to tuning config JSON")
	serialPort = flag.String("port", "/dev/ttyUSB0", "Piezo sensor serial port")
	baudRate   = flag.Int("baud", 115200, "Serial baud rate")
	devMode    = flag.Bool("dev", false, "Replay synthetic samples instead of opening the serial port")
	fixtures   = flag.String("fixtures", "", "With -dev, replay recorded sample lines from this file")
	calibrate  = flag.Int("calibrate", 0, "Treat the first N taps as known-solid baseline references")
	plotDir    = flag.String("plot-dir", "", "Write a waveform PNG per tap event to this directory")
	framesDir  = flag.String("frames-dir", "", "Frame spool directory for periodic crack scans")
	migrations = flag.String("migrations", "", "Run schema migrations from this directory at startup")
)

func loadConfig() *config.TuningConfig {
	if *configPath == "" {
		return config.EmptyTuningConfig()
	}
	cfg, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func newSampleSource() signal.Source {
	if !*devMode {
		src, err := signal.NewSerialSource(*serialPort, *baudRate)
		if err != nil {
			log.Fatalf("failed to open serial port %s: %v", *serialPort, err)
		}
		return src
	}
	if *fixtures != "" {
		data, err := os.ReadFile(*fixtures)
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		var queue []vibration.Sample
		for _, line := range strings.Split(string(data), "\n") {
			s, err := signal.ParseLine(line)
			if err != nil {
				continue
			}
			queue = append(queue, s)
		}
		return signal.NewMockSource(queue)
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var queue []vibration.Sample
	start := time.Now()
	for i := 0; i < 5; i++ {
		queue = append(queue, signal.SyntheticSession(
			start.Add(time.Duration(i)*2*time.Second), 1000, 0.02, 0.5, 25, 0.08, rng)...)
	}
	return signal.NewMockSource(queue)
}

// dirFrameSource reads the most recent image from the frame spool. The
// capture rig drops one file per pan/tilt position.
type dirFrameSource struct {
	dir string
}

func (d dirFrameSource) Capture(ctx context.Context) (*vision.Frame, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif", ".bmp":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no frames in %s", d.dir)
	}
	sort.Strings(names)
	path := filepath.Join(d.dir, names[len(names)-1])

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return vision.NewFrame(img)
}

func main() {
	flag.Parse()
	cfg := loadConfig()

	store, err := anomaly.OpenStore(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("failed to open anomaly store: %v", err)
	}
	defer store.Close()

	if *migrations != "" {
		if err := store.MigrateUp(*migrations); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	coord := anomaly.NewCoordinator(cfg.GetAlertConfidenceThreshold())
	// Alert surface: the buzzer/notifier hardware hangs off this callback
	// in the field; here it is the operator console.
	coord.OnAnomaly(func(ev anomaly.Event) {
		log.Printf("ALERT [%s] %s severity=%s confidence=%.2f %s",
			ev.ID, ev.Source, ev.Severity, ev.Confidence, ev.Detail)
	})
	coord.OnAnomaly(func(ev anomaly.Event) {
		if err := store.RecordEvent(ev); err != nil {
			monitoring.Logf("failed to record anomaly: %v", err)
		}
	})

	calibrator := vibration.NewCalibrator()
	classifier := vibration.NewTileClassifier(cfg.GetHollowDurationThreshold())

	plotter := vibration.NewTapPlotter()
	if *plotDir != "" {
		if err := plotter.Start(*plotDir); err != nil {
			log.Fatalf("failed to start tap plotter: %v", err)
		}
	}

	remaining := *calibrate
	noiseFloor := cfg.GetNoiseFloor()
	detector, err := vibration.NewEventDetector(vibration.DetectorConfig{
		ActivationThreshold: cfg.GetActivationThreshold(),
		NoiseFloor:          noiseFloor,
		SampleWindow:        time.Duration(cfg.GetSampleWindow() * float64(time.Second)),
		Cooldown:            time.Duration(cfg.GetTapThreshold() * float64(time.Second)),
	}, func(ev vibration.TapEvent) {
		plotter.Record(ev)
		features := vibration.ExtractFeatures(ev, noiseFloor)
		if remaining > 0 {
			remaining--
			calibrator.Calibrate(features)
			monitoring.Logf("calibration tap recorded, %d remaining", remaining)
			return
		}
		coord.HandleTap(classifier.Classify(features, calibrator.Snapshot()))
	})
	if err != nil {
		log.Fatalf("failed to build tap detector: %v", err)
	}

	source := newSampleSource()

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := signal.Pump(ctx, source, detector.Ingest); err != nil && err != context.Canceled {
			monitoring.Logf("sample stream stopped: %v", err)
		}
		detector.Flush()
		monitoring.Logf("sample pump terminated")
	}()

	if cfg.GetScanEnabled() {
		if *framesDir == "" {
			log.Fatal("scan_enabled requires -frames-dir")
		}
		crackDetector, err := vision.NewCrackDetector(vision.DetectorConfig{
			Sensitivity:       cfg.GetCameraCrackThreshold(),
			MinCrackLength:    cfg.GetMinCrackLength(),
			EdgeLowThreshold:  cfg.GetEdgeLowThreshold(),
			EdgeHighThreshold: cfg.GetEdgeHighThreshold(),
		})
		if err != nil {
			log.Fatalf("failed to build crack detector: %v", err)
		}
		scanner := scan.NewScanner(scan.NewCaptureGuard(), dirFrameSource{dir: *framesDir},
			crackDetector, coord, cfg.GetScanInterval())

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scanner.Run(ctx); err != nil && err != context.Canceled {
				monitoring.Logf("scanner stopped: %v", err)
			}
			monitoring.Logf("scanner terminated")
		}()
	}

	wg.Wait()

	if *plotDir != "" {
		n, err := plotter.GeneratePlots()
		if err != nil {
			monitoring.Logf("plot generation failed: %v", err)
		} else {
			monitoring.Logf("wrote %d tap plots to %s", n, *plotDir)
		}
	}
}
