// ABOUTME: Mixer configuration
// ABOUTME: Zero values select the default device format and the null output
package mixer

import (
	"fmt"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/audio/decode"
	"github.com/yourgame/yourgame-go/pkg/audio/output"
	"github.com/yourgame/yourgame-go/pkg/file"
)

const (
	DefaultChannels   = 2
	DefaultSampleRate = 48000

	// gains closer to 1.0 than this are not applied
	gainEpsilon = 1e-6
)

// FileReader loads a file by logical name
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// Config holds mixer configuration
type Config struct {
	// Channels and SampleRate fix the device format; zero selects the default
	Channels   int
	SampleRate int

	// MaxSources is the size of the source table
	MaxSources int

	// Device receives the mix callback; nil uses a ticker-driven null device
	Device output.Device

	// Files serves StoreFile; nil uses a file.Loader with default options
	Files FileReader

	// Opener creates decoders for stored blobs; nil uses decode.Open
	Opener decode.Opener

	Debug bool
}

func (c Config) withDefaults() Config {
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Device == nil {
		c.Device = output.NewNull()
	}
	if c.Files == nil {
		c.Files = file.NewLoader(file.Options{})
	}
	if c.Opener == nil {
		c.Opener = decode.Open
	}
	return c
}

func (c Config) validate() error {
	if c.MaxSources < 1 {
		return fmt.Errorf("%w: max sources must be at least 1, got %d", ErrInvalidConfig, c.MaxSources)
	}
	format := audio.Format{SampleRate: c.SampleRate, Channels: c.Channels}
	if err := format.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
