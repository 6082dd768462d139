// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 to float32 samples using go-mp3
package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/yourgame/yourgame-go/pkg/audio"
)

// go-mp3 always produces 16-bit little-endian stereo
const (
	mp3Channels      = 2
	mp3BytesPerFrame = mp3Channels * 2
)

type mp3Stream struct {
	dec    io.Reader
	format audio.Format
	buf    []byte
}

// NewMP3 creates a stream for an MP3 file
func NewMP3(data []byte) (Stream, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	return &mp3Stream{
		dec: dec,
		format: audio.Format{
			SampleRate: dec.SampleRate(),
			Channels:   mp3Channels,
		},
		buf: make([]byte, 8192),
	}, nil
}

func (s *mp3Stream) Format() audio.Format { return s.format }
func (s *mp3Stream) Close() error         { return nil }

func (s *mp3Stream) Read(dst []float32) (int, error) {
	frames := len(dst) / mp3Channels
	if frames == 0 {
		return 0, nil
	}

	need := frames * mp3BytesPerFrame
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := io.ReadFull(s.dec, s.buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	} else if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("mp3 decode error: %w", err)
	}

	// drop a trailing partial frame
	n -= n % mp3BytesPerFrame
	samples := n / 2
	for i := range samples {
		dst[i] = audio.Int16ToFloat32(int16(binary.LittleEndian.Uint16(s.buf[i*2:])))
	}

	return samples, err
}
