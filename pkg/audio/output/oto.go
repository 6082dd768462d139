// ABOUTME: Oto-based audio output implementation
// ABOUTME: Feeds an oto float32 player from the mixer callback through an io.Reader
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/yourgame/yourgame-go/pkg/audio"
)

// oto allows a single context per process, so it is shared by every Oto device
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
)

// Oto output implementation using oto library
type Oto struct {
	Volume

	// BufferSize is the player buffer duration; zero keeps oto's default
	BufferSize time.Duration

	mu     sync.Mutex
	player *oto.Player
	reader *otoReader
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{BufferSize: 20 * time.Millisecond}
}

func (o *Oto) Name() string { return "oto" }

// Open initializes the output device
func (o *Oto) Open(format audio.Format, fill FillFunc) error {
	if err := format.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		return ErrAlreadyOpen
	}

	ctx, err := sharedOtoContext(format)
	if err != nil {
		return err
	}

	o.reader = &otoReader{fill: fill, volume: &o.Volume, channels: format.Channels}
	o.player = ctx.NewPlayer(o.reader)
	if o.BufferSize > 0 {
		o.player.SetBufferSize(int(o.BufferSize.Seconds()*float64(format.SampleRate)) * format.FrameSize() * 4)
	}
	o.player.Play()

	log.Printf("Audio output initialized: %s (oto)", format)
	return nil
}

// sharedOtoContext returns the process-wide context, creating it on first use
func sharedOtoContext(format audio.Format) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFormat != format {
			return nil, fmt.Errorf("oto context already running at %s, cannot switch to %s", otoFormat, format)
		}
		if err := otoCtx.Resume(); err != nil {
			return nil, fmt.Errorf("failed to resume oto context: %w", err)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoFormat = format
	return ctx, nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}

	o.reader.stop()
	err := o.player.Close()
	o.player = nil
	o.reader = nil

	otoMu.Lock()
	if otoCtx != nil {
		if serr := otoCtx.Suspend(); serr != nil {
			log.Printf("Warning: oto suspend error: %v", serr)
		}
	}
	otoMu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}

// otoReader adapts a FillFunc to the io.Reader oto pulls from
type otoReader struct {
	mu       sync.Mutex
	fill     FillFunc
	volume   *Volume
	channels int
	samples  []float32
	stopped  bool
}

func (r *otoReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameBytes := r.channels * 4
	frames := len(p) / frameBytes
	n := frames * frameBytes
	if frames == 0 {
		return 0, nil
	}

	if r.stopped {
		clear(p[:n])
		return n, nil
	}

	numSamples := frames * r.channels
	if cap(r.samples) < numSamples {
		r.samples = make([]float32, numSamples)
	}
	samples := r.samples[:numSamples]

	r.fill(samples)
	r.volume.Apply(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n, nil
}

// stop guarantees fill is not called once it returns
func (r *otoReader) stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
}
