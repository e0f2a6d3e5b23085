// Package scan serialises crack scans over the single image-capture
// resource and drives the periodic scan loop.
package scan

import (
	"errors"
	"sync"
)

// ErrResourceBusy indicates the capture resource is already held by
// another scan. The caller decides whether to retry; nothing here retries
// automatically.
var ErrResourceBusy = errors.New("capture resource busy")

// CaptureGuard scopes exclusive access to the capture resource for the
// duration of one pipeline run. Overlapping requests are rejected rather
// than interleaved, so two concurrent scans can never corrupt camera
// state.
type CaptureGuard struct {
	mu sync.Mutex
}

// NewCaptureGuard returns an unheld guard.
func NewCaptureGuard() *CaptureGuard {
	return &CaptureGuard{}
}

// Do runs fn while holding the capture resource. If the resource is held
// it returns ErrResourceBusy without running fn. fn always runs to
// completion once started; it is never canceled mid-flight.
func (g *CaptureGuard) Do(fn func() error) error {
	if !g.mu.TryLock() {
		return ErrResourceBusy
	}
	defer g.mu.Unlock()
	return fn()
}
