// Package anomaly unifies tap and crack detections into AnomalyEvents and
// decides whether each one warrants an alert.
package anomaly

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/sitescan/internal/monitoring"
	"github.com/banshee-data/sitescan/internal/vibration"
	"github.com/banshee-data/sitescan/internal/vision"
)

// Source identifies which subsystem produced an anomaly.
type Source string

const (
	// SourceTap marks anomalies from the tap-test analyzer.
	SourceTap Source = "tap"
	// SourceCrack marks anomalies from the crack-detection pipeline.
	SourceCrack Source = "crack"
)

// Severity buckets an anomaly by confidence.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Severity band cutoffs.
const (
	mediumConfidenceCutoff = 0.5
	highConfidenceCutoff   = 0.8
)

// Event is the unified record emitted to the alert sink for both tap- and
// crack-sourced anomalies.
type Event struct {
	ID         uuid.UUID
	Source     Source
	Severity   Severity
	Confidence float64
	Detail     string
	Timestamp  time.Time
}

// Sink receives emitted events. Sinks must not block; they run on the
// caller's goroutine.
type Sink func(Event)

// Coordinator applies the single alerting rule to classification and
// crack-detection results. It is stateless apart from sink registration,
// so concurrent use from both pipelines is safe.
type Coordinator struct {
	crackConfidenceThreshold float64

	mu    sync.RWMutex
	sinks []Sink

	now func() time.Time
}

// NewCoordinator creates a coordinator. crackConfidenceThreshold is the
// minimum crack confidence that raises an alert.
func NewCoordinator(crackConfidenceThreshold float64) *Coordinator {
	return &Coordinator{
		crackConfidenceThreshold: crackConfidenceThreshold,
		now:                      time.Now,
	}
}

// OnAnomaly registers a sink for emitted events. Multiple sinks receive
// every event, in registration order.
func (c *Coordinator) OnAnomaly(sink Sink) {
	if sink == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, sink)
}

// HandleTap applies the alert rule to one tap classification. It emits at
// most one event and reports whether it did.
func (c *Coordinator) HandleTap(res vibration.Classification) (Event, bool) {
	if res.Label != vibration.LabelHollow {
		return Event{}, false
	}
	ev := Event{
		ID:         uuid.New(),
		Source:     SourceTap,
		Severity:   severityFor(res.Confidence),
		Confidence: res.Confidence,
		Detail:     fmt.Sprintf("hollow tile (label=%s)", res.Label),
		Timestamp:  c.now(),
	}
	c.emit(ev)
	return ev, true
}

// HandleCrack applies the alert rule to one crack-detection result. A
// failed detection (err != nil) is treated as "no anomaly", never as a
// detected crack; manual and periodic scans both funnel through here so
// the rule is not duplicated per trigger source.
func (c *Coordinator) HandleCrack(res *vision.CrackResult, err error) (Event, bool) {
	if err != nil || res == nil {
		return Event{}, false
	}
	if res.CrackCount == 0 || res.Confidence < c.crackConfidenceThreshold {
		return Event{}, false
	}
	ev := Event{
		ID:         uuid.New(),
		Source:     SourceCrack,
		Severity:   severityFor(res.Confidence),
		Confidence: res.Confidence,
		Detail:     fmt.Sprintf("%d crack(s), %.0fpx total", res.CrackCount, res.TotalLength),
		Timestamp:  c.now(),
	}
	c.emit(ev)
	return ev, true
}

func (c *Coordinator) emit(ev Event) {
	monitoring.Logf("anomaly: source=%s severity=%s confidence=%.3f %s",
		ev.Source, ev.Severity, ev.Confidence, ev.Detail)
	c.mu.RLock()
	sinks := c.sinks
	c.mu.RUnlock()
	for _, s := range sinks {
		s(ev)
	}
}

func severityFor(confidence float64) Severity {
	switch {
	case confidence >= highConfidenceCutoff:
		return SeverityHigh
	case confidence >= mediumConfidenceCutoff:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
