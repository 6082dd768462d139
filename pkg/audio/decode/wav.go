// ABOUTME: WAV audio decoder
// ABOUTME: Decodes integer PCM WAV to float32 samples using go-audio/wav
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/yourgame/yourgame-go/pkg/audio"
)

var ErrNotWAV = errors.New("not a WAV file")

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

type wavStream struct {
	dec      *wav.Decoder
	format   audio.Format
	bitDepth int
	buf      *goaudio.IntBuffer
}

// NewWAV creates a stream for a RIFF/WAVE file with integer PCM data
func NewWAV(data []byte) (Stream, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}

	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: WAV audio format %d", ErrUnsupported, dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupported, bitDepth)
	}

	format := audio.Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid WAV header: %w", err)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find WAV data chunk: %w", err)
	}

	return &wavStream{
		dec:      dec,
		format:   format,
		bitDepth: bitDepth,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			Data:   make([]int, 4096),
		},
	}, nil
}

func (s *wavStream) Format() audio.Format { return s.format }
func (s *wavStream) Close() error         { return nil }

func (s *wavStream) Read(dst []float32) (int, error) {
	n := len(dst) - len(dst)%s.format.Channels
	if n == 0 {
		return 0, nil
	}

	if cap(s.buf.Data) < n {
		s.buf.Data = make([]int, n)
	}
	s.buf.Data = s.buf.Data[:n]

	read, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("wav decode error: %w", err)
	}
	read -= read % s.format.Channels
	if read == 0 {
		return 0, io.EOF
	}

	if s.bitDepth == 8 {
		// 8-bit WAV is unsigned
		for i := range read {
			dst[i] = float32(s.buf.Data[i]-128) / 128.0
		}
	} else {
		for i := range read {
			dst[i] = audio.IntToFloat32(s.buf.Data[i], s.bitDepth)
		}
	}

	return read, nil
}
