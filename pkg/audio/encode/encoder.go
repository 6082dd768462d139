// ABOUTME: Writer interface and file type dispatch
// ABOUTME: Picks the encoder for an output file from its extension
package encode

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/yourgame/yourgame-go/pkg/audio"
)

var ErrUnsupportedFile = errors.New("unsupported output file type")

// Writer encodes interleaved float32 samples to an output
type Writer interface {
	// Write encodes samples; len(samples) must be a multiple of the channel count
	Write(samples []float32) error

	// Close flushes buffered audio and finalises the file
	Close() error
}

// Create returns the Writer matching the extension of name. bitDepth only
// applies to WAV.
func Create(w io.WriteSeeker, name string, format audio.Format, bitDepth int) (Writer, error) {
	var (
		writer Writer
		err    error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".wave":
		writer, err = NewWAVWriter(w, format, bitDepth)
	case ".opus", ".ogg":
		writer, err = NewOggOpusWriter(w, format)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
	if err != nil {
		return nil, err
	}
	return writer, nil
}
