// ABOUTME: WAV file writer
// ABOUTME: Converts float32 samples to integer PCM and writes them with go-audio/wav
package encode

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/yourgame/yourgame-go/pkg/audio"
)

const wavFormatPCM = 1

// WAVWriter writes integer PCM WAV files
type WAVWriter struct {
	enc      *wav.Encoder
	format   audio.Format
	bitDepth int
	buf      *goaudio.IntBuffer
	frames   int64
}

// NewWAVWriter creates a WAV writer. The header is finalised by Close.
func NewWAVWriter(w io.WriteSeeker, format audio.Format, bitDepth int) (*WAVWriter, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", bitDepth)
	}

	return &WAVWriter{
		enc:      wav.NewEncoder(w, format.SampleRate, bitDepth, format.Channels, wavFormatPCM),
		format:   format,
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Write clamps and converts samples, then appends them to the file
func (w *WAVWriter) Write(samples []float32) error {
	if len(samples)%w.format.Channels != 0 {
		return fmt.Errorf("sample count %d is not a multiple of %d channels", len(samples), w.format.Channels)
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = audio.Float32ToInt(s, w.bitDepth)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wav write error: %w", err)
	}
	w.frames += int64(len(samples) / w.format.Channels)
	return nil
}

// Frames returns the number of frames written
func (w *WAVWriter) Frames() int64 { return w.frames }

// Close writes the final chunk sizes
func (w *WAVWriter) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise wav file: %w", err)
	}
	return nil
}
