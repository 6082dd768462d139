// ABOUTME: Null output that drives the mixer without audio hardware
// ABOUTME: Pulls periods on a ticker, or on demand through Pump for tests and offline renders
package output

import (
	"log"
	"sync"
	"time"

	"github.com/yourgame/yourgame-go/pkg/audio"
)

// DefaultPeriod is the Null device callback interval
const DefaultPeriod = 10 * time.Millisecond

// Null discards audio. Unless Manual is set it calls fill once per Period
// from its own goroutine, like a hardware callback would.
type Null struct {
	Volume

	Period time.Duration
	Manual bool

	mu      sync.Mutex
	fill    FillFunc
	format  audio.Format
	buf     []float32
	frames  int64
	stop    chan struct{}
	stopped chan struct{}
}

// NewNull creates a ticker-driven null output
func NewNull() *Null {
	return &Null{Period: DefaultPeriod}
}

// NewManualNull creates a null output that only advances through Pump
func NewManualNull() *Null {
	return &Null{Period: DefaultPeriod, Manual: true}
}

func (n *Null) Name() string { return "null" }

// Open starts the period pump
func (n *Null) Open(format audio.Format, fill FillFunc) error {
	if err := format.Validate(); err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fill != nil {
		return ErrAlreadyOpen
	}

	n.fill = fill
	n.format = format
	n.frames = 0

	if !n.Manual {
		period := n.Period
		if period <= 0 {
			period = DefaultPeriod
		}
		n.stop = make(chan struct{})
		n.stopped = make(chan struct{})
		go n.run(period, n.periodFrames(period), n.stop, n.stopped)
	}

	log.Printf("Audio output initialized: %s (null)", format)
	return nil
}

func (n *Null) periodFrames(period time.Duration) int {
	return max(1, int(period.Seconds()*float64(n.format.SampleRate)))
}

func (n *Null) run(period time.Duration, frames int, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := n.Pump(frames); err != nil {
				return
			}
		}
	}
}

// Pump runs one callback of frames frames synchronously and returns the
// filled period. The slice is reused by the next call.
func (n *Null) Pump(frames int) ([]float32, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fill == nil {
		return nil, ErrNotOpen
	}

	size := frames * n.format.Channels
	if cap(n.buf) < size {
		n.buf = make([]float32, size)
	}
	out := n.buf[:size]

	n.fill(out)
	n.Volume.Apply(out)
	n.frames += int64(frames)
	return out, nil
}

// Frames returns the number of frames pulled since Open
func (n *Null) Frames() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.frames
}

// Close stops the pump
func (n *Null) Close() error {
	n.mu.Lock()
	if n.fill == nil {
		n.mu.Unlock()
		return nil
	}
	n.fill = nil
	stop, stopped := n.stop, n.stopped
	n.stop, n.stopped = nil, nil
	n.mu.Unlock()

	if stop != nil {
		close(stop)
		<-stopped
	}
	return nil
}
