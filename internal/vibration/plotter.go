package vibration

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/sitescan/internal/monitoring"
)

// TapPlotter records tap event waveforms during a tuning run and renders
// one PNG per event afterwards. It exists for threshold tuning in the
// field; nothing in the detection path depends on it.
type TapPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string
	events    []TapEvent
}

// NewTapPlotter creates a disabled plotter. Call Start to begin recording.
func NewTapPlotter() *TapPlotter {
	return &TapPlotter{}
}

// Start clears recorded events and enables recording into outputDir.
func (tp *TapPlotter) Start(outputDir string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tp.outputDir = outputDir
	tp.events = nil
	tp.enabled = true
	return nil
}

// Stop disables recording. Call GeneratePlots to produce output files.
func (tp *TapPlotter) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.enabled = false
}

// Record captures one closed event. Safe to install as an EventCallback
// tee; it is a no-op while the plotter is stopped.
func (tp *TapPlotter) Record(ev TapEvent) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if !tp.enabled {
		return
	}
	tp.events = append(tp.events, ev)
}

// GeneratePlots writes one waveform PNG per recorded event and returns the
// number of files written.
func (tp *TapPlotter) GeneratePlots() (int, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	written := 0
	for i, ev := range tp.events {
		if len(ev.Window) == 0 {
			continue
		}
		p := plot.New()
		p.Title.Text = fmt.Sprintf("tap %d  peak=%.4f", i+1, ev.PeakAmplitude)
		p.X.Label.Text = "seconds from trigger"
		p.Y.Label.Text = "amplitude"

		pts := make(plotter.XYs, len(ev.Window))
		for j, s := range ev.Window {
			pts[j].X = s.Timestamp.Sub(ev.StartTime).Seconds()
			pts[j].Y = s.Amplitude
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return written, fmt.Errorf("failed to build waveform line: %w", err)
		}
		p.Add(line)

		out := filepath.Join(tp.outputDir, fmt.Sprintf("tap_%04d.png", i+1))
		if err := p.Save(6*vg.Inch, 3*vg.Inch, out); err != nil {
			return written, fmt.Errorf("failed to save %s: %w", out, err)
		}
		written++
	}
	monitoring.Logf("tap plotter: wrote %d waveform plots to %s", written, tp.outputDir)
	return written, nil
}
