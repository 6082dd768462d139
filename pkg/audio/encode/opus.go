// ABOUTME: Opus audio encoder
// ABOUTME: Encodes fixed-size float32 frames to Opus packets with libopus
package encode

import (
	"fmt"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// largest packet libopus is asked to produce
const maxOpusPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder   *opus.Encoder
	format    audio.Format
	frameSize int
	packet    []byte
}

// NewOpus creates a new Opus encoder for 20ms frames
func NewOpus(format audio.Format) (*OpusEncoder, error) {
	switch format.SampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return nil, fmt.Errorf("unsupported opus sample rate: %d", format.SampleRate)
	}
	if format.Channels < 1 || format.Channels > 2 {
		return nil, fmt.Errorf("unsupported opus channel count: %d", format.Channels)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	return &OpusEncoder{
		encoder:   encoder,
		format:    format,
		frameSize: format.SampleRate / 50,
		packet:    make([]byte, maxOpusPacket),
	}, nil
}

// FrameSize returns the number of frames per packet
func (e *OpusEncoder) FrameSize() int { return e.frameSize }

// Encode converts exactly one frame of interleaved samples to an Opus
// packet. The returned slice is reused by the next call.
func (e *OpusEncoder) Encode(samples []float32) ([]byte, error) {
	if len(samples) != e.frameSize*e.format.Channels {
		return nil, fmt.Errorf("opus frame needs %d samples, got %d", e.frameSize*e.format.Channels, len(samples))
	}

	n, err := e.encoder.EncodeFloat32(samples, e.packet)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}
	return e.packet[:n], nil
}
