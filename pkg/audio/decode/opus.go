// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Demuxes Ogg pages and decodes Opus packets to float32 using libopus
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

const (
	// Opus always decodes at 48kHz
	opusSampleRate = 48000

	// 120ms at 48kHz, the largest Opus frame
	opusMaxFrameSamples = 5760
)

var ErrInvalidOpusHeader = errors.New("invalid OpusHead packet")

type opusStream struct {
	packets  *oggPacketReader
	decoder  *opus.Decoder
	format   audio.Format
	preSkip  int
	decoded  int64
	pcm      []float32
	pending  []float32
	finished bool
}

// NewOpus creates a stream for an Ogg Opus file
func NewOpus(data []byte) (Stream, error) {
	packets := newOggPacketReader(data)

	head, err := packets.next()
	if err != nil {
		return nil, fmt.Errorf("failed to read OpusHead: %w", err)
	}
	channels, preSkip, err := parseOpusHead(head)
	if err != nil {
		return nil, err
	}

	// OpusTags carries no audio
	if _, err := packets.next(); err != nil {
		return nil, fmt.Errorf("failed to read OpusTags: %w", err)
	}

	dec, err := opus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &opusStream{
		packets: packets,
		decoder: dec,
		format: audio.Format{
			SampleRate: opusSampleRate,
			Channels:   channels,
		},
		preSkip: preSkip,
		pcm:     make([]float32, opusMaxFrameSamples*channels),
	}, nil
}

// parseOpusHead returns the channel count and pre-skip of an OpusHead packet
func parseOpusHead(p []byte) (int, int, error) {
	if len(p) < 19 || string(p[:8]) != "OpusHead" {
		return 0, 0, ErrInvalidOpusHeader
	}
	channels := int(p[9])
	preSkip := int(binary.LittleEndian.Uint16(p[10:12]))
	mapping := p[18]

	// multistream mapping families need a multistream decoder
	if mapping != 0 || channels < 1 || channels > 2 {
		return 0, 0, fmt.Errorf("%w: opus with %d channels (mapping family %d)", ErrUnsupported, channels, mapping)
	}
	return channels, preSkip, nil
}

func (s *opusStream) Format() audio.Format { return s.format }
func (s *opusStream) Close() error         { return nil }

func (s *opusStream) Read(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.format.Channels
	out := 0

	for out < want {
		if len(s.pending) > 0 {
			n := copy(dst[out:want], s.pending)
			s.pending = s.pending[n:]
			out += n
			continue
		}
		if s.finished {
			return out, io.EOF
		}
		if err := s.decodeNext(); err != nil {
			if errors.Is(err, io.EOF) {
				s.finished = true
				continue
			}
			return out, err
		}
	}

	return out, nil
}

func (s *opusStream) decodeNext() error {
	packet, err := s.packets.next()
	if err != nil {
		return err
	}
	if len(packet) == 0 {
		return nil
	}

	n, err := s.decoder.DecodeFloat32(packet, s.pcm)
	if err != nil {
		return fmt.Errorf("opus decode failed: %w", err)
	}

	// the end-of-stream page's granule position marks the last real
	// sample; anything decoded past it is encoder padding
	start := s.decoded
	s.decoded += int64(n)
	if s.packets.eos && s.packets.granule >= 0 && s.decoded > s.packets.granule {
		n = int(max(s.packets.granule-start, 0))
	}

	decoded := s.pcm[:n*s.format.Channels]
	if s.preSkip > 0 {
		skip := min(s.preSkip, n)
		s.preSkip -= skip
		decoded = decoded[skip*s.format.Channels:]
	}
	s.pending = decoded
	return nil
}
