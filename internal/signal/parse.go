// Package signal turns raw sensor transport into vibration samples. The
// wire format is one "seconds,amplitude" line per reading, where seconds
// is a unix timestamp with fractional precision.
package signal

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/sitescan/internal/vibration"
)

// ErrMalformedLine indicates a line that does not decode to a usable
// sample. Sources drop these without stopping the stream.
var ErrMalformedLine = errors.New("malformed sample line")

// ParseLine decodes one sample line. Returns ErrMalformedLine for
// anything that is not exactly two finite floats with a positive
// timestamp.
func ParseLine(line string) (vibration.Sample, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 2 {
		return vibration.Sample{}, ErrMalformedLine
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || secs <= 0 || math.IsInf(secs, 0) {
		return vibration.Sample{}, ErrMalformedLine
	}
	amp, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return vibration.Sample{}, ErrMalformedLine
	}

	whole, frac := math.Modf(secs)
	s := vibration.Sample{
		Timestamp: time.Unix(int64(whole), int64(frac*1e9)),
		Amplitude: amp,
	}
	if !s.Valid() {
		return vibration.Sample{}, ErrMalformedLine
	}
	return s, nil
}
