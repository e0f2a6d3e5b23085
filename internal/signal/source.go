package signal

import (
	"bufio"
	"context"
	"errors"
	"io"

	"go.bug.st/serial"

	"github.com/banshee-data/sitescan/internal/monitoring"
	"github.com/banshee-data/sitescan/internal/vibration"
)

// Source streams vibration samples from some transport. Run blocks until
// the context is canceled or the transport ends; Samples stays readable
// for the lifetime of the run and is closed when Run returns.
type Source interface {
	Samples() <-chan vibration.Sample
	Run(ctx context.Context) error
}

// openPort is swapped out by tests so SerialSource can be exercised
// without hardware.
var openPort = func(name string, baud int) (io.ReadCloser, error) {
	return serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

// SerialSource reads sample lines from a serial port.
type SerialSource struct {
	port    io.ReadCloser
	samples chan vibration.Sample
	dropped int
}

// NewSerialSource opens the named port at the given baud rate.
func NewSerialSource(portName string, baud int) (*SerialSource, error) {
	port, err := openPort(portName, baud)
	if err != nil {
		return nil, err
	}
	return &SerialSource{
		port:    port,
		samples: make(chan vibration.Sample),
	}, nil
}

// Samples returns the channel of decoded samples.
func (s *SerialSource) Samples() <-chan vibration.Sample {
	return s.samples
}

// Dropped reports how many malformed lines were skipped so far.
func (s *SerialSource) Dropped() int {
	return s.dropped
}

// Run reads lines from the port until the context is canceled or the
// port stops producing. Malformed lines are counted and skipped.
func (s *SerialSource) Run(ctx context.Context) error {
	defer close(s.samples)
	defer s.port.Close()

	scan := bufio.NewScanner(s.port)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if !scan.Scan() {
				if err := scan.Err(); err != nil {
					return err
				}
				return io.EOF
			}
			sample, err := ParseLine(scan.Text())
			if err != nil {
				s.dropped++
				continue
			}
			select {
			case s.samples <- sample:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// MockSource replays a fixed slice of samples. It backs the daemon's
// mock mode and lets tests drive the tap pipeline deterministically.
type MockSource struct {
	queue   []vibration.Sample
	samples chan vibration.Sample
}

// NewMockSource returns a source that will replay the given samples in
// order and then end the stream.
func NewMockSource(queue []vibration.Sample) *MockSource {
	return &MockSource{
		queue:   queue,
		samples: make(chan vibration.Sample),
	}
}

// Samples returns the channel of replayed samples.
func (m *MockSource) Samples() <-chan vibration.Sample {
	return m.samples
}

// Run replays the queue and returns io.EOF once it is exhausted.
func (m *MockSource) Run(ctx context.Context) error {
	defer close(m.samples)
	for _, sample := range m.queue {
		select {
		case m.samples <- sample:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return io.EOF
}

// Pump forwards every sample from a source into ingest until the stream
// ends. A clean end of stream is not an error; transport failures are.
func Pump(ctx context.Context, src Source, ingest func(vibration.Sample)) error {
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx)
	}()

	for sample := range src.Samples() {
		ingest(sample)
	}

	err := <-done
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		monitoring.Logf("signal: source stopped: %v", err)
	}
	return err
}
