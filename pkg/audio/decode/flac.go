// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC frame by frame to float32 samples using mewkiz/flac
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/yourgame/yourgame-go/pkg/audio"
)

type flacStream struct {
	stream   *flac.Stream
	format   audio.Format
	bitDepth int

	// current frame and the next sample index inside it
	frame *frame.Frame
	pos   int
}

// NewFLAC creates a stream for a FLAC file
func NewFLAC(data []byte) (Stream, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	return &flacStream{
		stream: stream,
		format: audio.Format{
			SampleRate: int(info.SampleRate),
			Channels:   int(info.NChannels),
		},
		bitDepth: int(info.BitsPerSample),
	}, nil
}

func (s *flacStream) Format() audio.Format { return s.format }

func (s *flacStream) Close() error {
	return s.stream.Close()
}

func (s *flacStream) Read(dst []float32) (int, error) {
	channels := s.format.Channels
	want := len(dst) - len(dst)%channels
	out := 0

	for out < want {
		if s.frame == nil || s.pos >= int(s.frame.BlockSize) {
			f, err := s.stream.ParseNext()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return out, io.EOF
				}
				return out, fmt.Errorf("flac decode error: %w", err)
			}
			s.frame = f
			s.pos = 0
			continue
		}

		for ch := range channels {
			dst[out] = audio.IntToFloat32(int(s.frame.Subframes[ch].Samples[s.pos]), s.bitDepth)
			out++
		}
		s.pos++
	}

	return out, nil
}
