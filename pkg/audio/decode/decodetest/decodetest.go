// ABOUTME: Test helpers producing encoded audio blobs
// ABOUTME: Provides an exact float32 fake codec and a canonical 16-bit WAV builder
package decodetest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/audio/decode"
)

// Magic prefixes every blob produced by Encode
const Magic = "YGPCM"

const headerSize = len(Magic) + 4 + 2 + 4

var (
	ErrNotFake = errors.New("not a decodetest blob")

	// ErrInjected is returned by streams encoded with FailAfter
	ErrInjected = errors.New("injected decode failure")
)

// Encode packs raw float32 samples into a blob that Open decodes exactly.
// failAfter < 0 disables error injection; otherwise Read fails with
// ErrInjected once that many samples have been produced.
func Encode(format audio.Format, samples []float32, failAfter int) []byte {
	buf := make([]byte, headerSize+len(samples)*4)
	copy(buf, Magic)
	off := len(Magic)
	binary.LittleEndian.PutUint32(buf[off:], uint32(format.SampleRate))
	binary.LittleEndian.PutUint16(buf[off+4:], uint16(format.Channels))
	binary.LittleEndian.PutUint32(buf[off+6:], uint32(int32(failAfter)))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(buf[headerSize+i*4:], math.Float32bits(v))
	}
	return buf
}

// Constant returns a blob of frames frames where every sample equals value
func Constant(format audio.Format, frames int, value float32) []byte {
	samples := make([]float32, frames*format.Channels)
	for i := range samples {
		samples[i] = value
	}
	return Encode(format, samples, -1)
}

// Ramp returns a blob whose frame i has value (i+1)/frames on every channel,
// so the read position can be recovered from any sample
func Ramp(format audio.Format, frames int) []byte {
	samples := make([]float32, frames*format.Channels)
	for f := range frames {
		for ch := range format.Channels {
			samples[f*format.Channels+ch] = float32(f+1) / float32(frames)
		}
	}
	return Encode(format, samples, -1)
}

// PerChannel returns a blob where channel ch always carries values[ch]
func PerChannel(format audio.Format, frames int, values []float32) []byte {
	samples := make([]float32, frames*format.Channels)
	for f := range frames {
		for ch := range format.Channels {
			samples[f*format.Channels+ch] = values[ch]
		}
	}
	return Encode(format, samples, -1)
}

// Open decodes a blob produced by Encode. It satisfies decode.Opener.
func Open(data []byte) (decode.Stream, error) {
	if len(data) < headerSize || string(data[:len(Magic)]) != Magic {
		return nil, ErrNotFake
	}
	off := len(Magic)
	format := audio.Format{
		SampleRate: int(binary.LittleEndian.Uint32(data[off:])),
		Channels:   int(binary.LittleEndian.Uint16(data[off+4:])),
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("decodetest: %w", err)
	}
	failAfter := int(int32(binary.LittleEndian.Uint32(data[off+6:])))

	body := data[headerSize:]
	samples := make([]float32, len(body)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}

	return &Stream{format: format, samples: samples, failAfter: failAfter}, nil
}

// OpenOrDecode tries the fake codec first and falls back to decode.Open
func OpenOrDecode(data []byte) (decode.Stream, error) {
	if len(data) >= len(Magic) && string(data[:len(Magic)]) == Magic {
		return Open(data)
	}
	return decode.Open(data)
}

// Stream is an in-memory decode.Stream
type Stream struct {
	format    audio.Format
	samples   []float32
	pos       int
	failAfter int
	closed    bool
}

// NewStream wraps raw samples without encoding them
func NewStream(format audio.Format, samples []float32) *Stream {
	return &Stream{format: format, samples: samples, failAfter: -1}
}

func (s *Stream) Format() audio.Format { return s.format }

func (s *Stream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called
func (s *Stream) Closed() bool { return s.closed }

func (s *Stream) Read(dst []float32) (int, error) {
	limit := len(s.samples)
	if s.failAfter >= 0 && s.failAfter < limit {
		limit = s.failAfter
	}

	n := len(dst) - len(dst)%s.format.Channels
	n = min(n, limit-s.pos)
	n -= n % s.format.Channels
	copy(dst, s.samples[s.pos:s.pos+n])
	s.pos += n

	if s.pos >= limit {
		if s.failAfter >= 0 && s.failAfter < len(s.samples) {
			return n, ErrInjected
		}
		return n, io.EOF
	}
	return n, nil
}

// WAV builds a canonical 44-byte-header PCM 16-bit WAV file
func WAV(format audio.Format, samples []int16) []byte {
	dataSize := len(samples) * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataSize))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], uint16(format.Channels))
	binary.LittleEndian.PutUint32(buf[24:], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(format.SampleRate*format.Channels*2))
	binary.LittleEndian.PutUint16(buf[32:], uint16(format.Channels*2))
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataSize))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(s))
	}
	return buf
}
