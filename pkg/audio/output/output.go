// ABOUTME: Audio output interface definition
// ABOUTME: Callback-driven playback devices that pull float32 periods from a mixer
package output

import (
	"errors"
	"fmt"
	"sort"

	"github.com/yourgame/yourgame-go/pkg/audio"
)

var (
	ErrUnknownDevice = errors.New("unknown output device")
	ErrAlreadyOpen   = errors.New("output device already open")
	ErrNotOpen       = errors.New("output device not open")
)

// FillFunc fills out with interleaved float32 frames. It is called from the
// device's audio thread once per period and must not block for long.
type FillFunc func(out []float32)

// Device represents an audio output device
type Device interface {
	// Open starts playback in the given format, pulling audio from fill
	Open(format audio.Format, fill FillFunc) error

	// Close stops playback. After Close returns fill is no longer called.
	Close() error

	// Name identifies the backend
	Name() string
}

// DefaultDevice is the backend used when no name is given
const DefaultDevice = "malgo"

var factories = map[string]func() Device{
	"oto":   func() Device { return NewOto() },
	"malgo": func() Device { return NewMalgo() },
	"null":  func() Device { return NewNull() },
}

// New creates the named output backend
func New(name string) (Device, error) {
	if name == "" {
		name = DefaultDevice
	}
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownDevice, name, Names())
	}
	return factory(), nil
}

// Names lists the available backends
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
