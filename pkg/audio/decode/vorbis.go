// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes Vorbis to float32 samples using oggvorbis
package decode

import (
	"bytes"
	"fmt"

	"github.com/jfreymuth/oggvorbis"
	"github.com/yourgame/yourgame-go/pkg/audio"
)

// vorbisReader is the subset of oggvorbis.Reader used here
type vorbisReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type vorbisStream struct {
	dec    vorbisReader
	format audio.Format
}

// NewVorbis creates a stream for an Ogg Vorbis file
func NewVorbis(data []byte) (Stream, error) {
	dec, err := oggvorbis.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open vorbis stream: %w", err)
	}

	return &vorbisStream{
		dec: dec,
		format: audio.Format{
			SampleRate: dec.SampleRate(),
			Channels:   dec.Channels(),
		},
	}, nil
}

func (s *vorbisStream) Format() audio.Format { return s.format }
func (s *vorbisStream) Close() error         { return nil }

func (s *vorbisStream) Read(dst []float32) (int, error) {
	// oggvorbis wants whole frames
	n := len(dst) - len(dst)%s.format.Channels
	if n == 0 {
		return 0, nil
	}
	return s.dec.Read(dst[:n])
}
