package vibration

import (
	"errors"
	"time"

	"github.com/banshee-data/sitescan/internal/monitoring"
)

var (
	// ErrInvalidActivation indicates the activation threshold must be positive.
	ErrInvalidActivation = errors.New("activation threshold must be positive")
	// ErrInvalidWindow indicates the sample window must be positive.
	ErrInvalidWindow = errors.New("sample window must be positive")
	// ErrInvalidCooldown indicates the cooldown must be non-negative.
	ErrInvalidCooldown = errors.New("cooldown must be non-negative")
	// ErrInvalidNoiseFloor indicates the noise floor must be non-negative.
	ErrInvalidNoiseFloor = errors.New("noise floor must be non-negative")
)

// DetectorState identifies the event detector's position in its cycle.
type DetectorState int

const (
	// StateIdle is the initial state, before the signal has settled below
	// the noise floor for the first time.
	StateIdle DetectorState = iota
	// StateArmed waits for the amplitude to cross the activation threshold.
	StateArmed
	// StateSampling accumulates the event window after a trigger.
	StateSampling
	// StateCooldown rejects re-triggers from decaying vibration of the
	// same tap until the debounce interval has elapsed.
	StateCooldown
)

func (s DetectorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateSampling:
		return "sampling"
	case StateCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// TapEvent is one discrete floor strike isolated from the sample stream.
// It is immutable once closed.
type TapEvent struct {
	StartTime     time.Time
	PeakAmplitude float64
	Window        []Sample
}

// EventCallback receives each closed TapEvent. It is invoked from the
// ingest path and must not block.
type EventCallback func(TapEvent)

// DetectorConfig holds the event detector thresholds. All values come from
// the tuning config.
type DetectorConfig struct {
	// ActivationThreshold is the amplitude that opens a tap event.
	ActivationThreshold float64
	// NoiseFloor is the amplitude below which the signal counts as quiet.
	NoiseFloor float64
	// SampleWindow is how long each event accumulates samples.
	SampleWindow time.Duration
	// Cooldown is the minimum gap between accepted taps (debounce).
	Cooldown time.Duration
	// BufferSize bounds the rolling sample store. Zero selects a default
	// sized for a 1 kHz source over the sample window.
	BufferSize int
}

// EventDetector turns the raw sample stream into discrete TapEvents via a
// small state machine: idle -> armed -> sampling -> cooldown -> armed.
// It is owned by a single ingest goroutine and does no locking.
type EventDetector struct {
	cfg DetectorConfig

	state         DetectorState
	buf           *SampleBuffer
	current       *TapEvent
	windowEnd     time.Time
	cooldownUntil time.Time

	emit EventCallback

	// counters for diagnostics
	eventsEmitted int
	dropped       int
}

// NewEventDetector creates a detector with the given thresholds. The
// callback receives each closed event and may be nil.
func NewEventDetector(cfg DetectorConfig, emit EventCallback) (*EventDetector, error) {
	if cfg.ActivationThreshold <= 0 {
		return nil, ErrInvalidActivation
	}
	if cfg.SampleWindow <= 0 {
		return nil, ErrInvalidWindow
	}
	if cfg.Cooldown < 0 {
		return nil, ErrInvalidCooldown
	}
	if cfg.NoiseFloor < 0 {
		return nil, ErrInvalidNoiseFloor
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = int(cfg.SampleWindow.Seconds()*1000) + 1
	}
	return &EventDetector{
		cfg:   cfg,
		state: StateIdle,
		buf:   NewSampleBuffer(cfg.BufferSize),
		emit:  emit,
	}, nil
}

// State returns the detector's current state.
func (d *EventDetector) State() DetectorState {
	return d.state
}

// EventsEmitted returns the number of events closed so far.
func (d *EventDetector) EventsEmitted() int {
	return d.eventsEmitted
}

// Ingest feeds one sample into the detector. It never blocks; the only
// "wait" in the cycle is the sampling state, which simply keeps
// accumulating samples as they arrive. Malformed samples are dropped.
func (d *EventDetector) Ingest(s Sample) {
	if !s.Valid() {
		d.dropped++
		return
	}
	d.buf.Push(s)

	abs := s.Amplitude
	if abs < 0 {
		abs = -abs
	}

	switch d.state {
	case StateIdle:
		// Arm only once the signal settles, so power-up ringing does not
		// open a phantom event.
		if abs <= d.cfg.NoiseFloor {
			d.state = StateArmed
		}

	case StateArmed:
		if abs > d.cfg.ActivationThreshold {
			d.current = &TapEvent{
				StartTime:     s.Timestamp,
				PeakAmplitude: abs,
				Window:        []Sample{s},
			}
			d.windowEnd = s.Timestamp.Add(d.cfg.SampleWindow)
			d.state = StateSampling
		}

	case StateSampling:
		// A trigger arriving here belongs to the in-flight event: one
		// event at a time, no merging.
		d.current.Window = append(d.current.Window, s)
		if abs > d.current.PeakAmplitude {
			d.current.PeakAmplitude = abs
		}
		if !s.Timestamp.Before(d.windowEnd) {
			d.closeEvent(s.Timestamp)
		}

	case StateCooldown:
		if !s.Timestamp.Before(d.cooldownUntil) && abs <= d.cfg.NoiseFloor {
			d.state = StateArmed
		}
	}
}

// Flush closes the in-flight event early with whatever samples were
// collected. Call it when the sample source stops mid-window.
func (d *EventDetector) Flush() {
	if d.state != StateSampling || d.current == nil {
		return
	}
	last := d.current.Window[len(d.current.Window)-1]
	d.closeEvent(last.Timestamp)
}

func (d *EventDetector) closeEvent(at time.Time) {
	ev := *d.current
	d.current = nil
	d.cooldownUntil = at.Add(d.cfg.Cooldown)
	d.state = StateCooldown
	d.eventsEmitted++
	monitoring.Logf("tap event closed: start=%s peak=%.4f samples=%d",
		ev.StartTime.Format(time.RFC3339Nano), ev.PeakAmplitude, len(ev.Window))
	if d.emit != nil {
		d.emit(ev)
	}
}
