package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	t.Run("plain sample", func(t *testing.T) {
		t.Parallel()
		s, err := ParseLine("1693412345,0.042")
		require.NoError(t, err)
		assert.Equal(t, time.Unix(1693412345, 0), s.Timestamp)
		assert.InDelta(t, 0.042, s.Amplitude, 1e-9)
	})

	t.Run("fractional timestamp", func(t *testing.T) {
		t.Parallel()
		s, err := ParseLine("1693412345.25,-0.5")
		require.NoError(t, err)
		assert.Equal(t, int64(1693412345), s.Timestamp.Unix())
		assert.InDelta(t, 0.25, float64(s.Timestamp.Nanosecond())/1e9, 1e-6)
		assert.InDelta(t, -0.5, s.Amplitude, 1e-9)
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		t.Parallel()
		_, err := ParseLine("  1693412345 , 0.1  ")
		assert.NoError(t, err)
	})

	t.Run("malformed lines rejected", func(t *testing.T) {
		t.Parallel()
		for _, line := range []string{
			"",
			"1693412345",
			"1693412345,0.1,extra",
			"abc,0.1",
			"1693412345,xyz",
			"-5,0.1",
			"0,0.1",
			"+Inf,0.1",
			"1693412345,NaN",
			"1693412345,Inf",
		} {
			_, err := ParseLine(line)
			assert.ErrorIs(t, err, ErrMalformedLine, "line %q", line)
		}
	})
}
