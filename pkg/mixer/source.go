// ABOUTME: Audio sources held in the source table
// ABOUTME: A voice decodes a cached blob in the device format and restarts it for looping
package mixer

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/audio/convert"
	"github.com/yourgame/yourgame-go/pkg/audio/decode"
)

// SourceID identifies a slot in the source table
type SourceID int

// NoSource is returned by Play when no source was created
const NoSource SourceID = -1

var errEmptyLoop = errors.New("looping stream produced no audio")

// voice is the decoder wrapper: a blob decoded on demand into the device format
type voice struct {
	data   []byte
	open   decode.Opener
	format audio.Format
	reader *convert.Reader

	// frames produced since the last restart
	position int64
	loops    int
}

func newVoice(data []byte, open decode.Opener, format audio.Format) (*voice, error) {
	v := &voice{data: data, open: open, format: format}
	if err := v.restart(); err != nil {
		return nil, err
	}
	return v, nil
}

// restart opens a fresh decoder at the start of the blob
func (v *voice) restart() error {
	stream, err := v.open(v.data)
	if err != nil {
		return err
	}
	if err := stream.Format().Validate(); err != nil {
		stream.Close()
		return fmt.Errorf("decoder reported %w", err)
	}
	if v.reader != nil {
		v.reader.Close()
	}
	v.reader = convert.New(stream, v.format)
	v.position = 0
	return nil
}

// read fills dst with frames. Without loop it returns a short count with
// io.EOF at end of stream; with loop it restarts and keeps filling. Any
// other error is a decode failure.
func (v *voice) read(dst []float32, loop bool) (int, error) {
	ch := v.format.Channels
	want := len(dst) / ch
	got := 0

	for got < want {
		n, err := v.reader.ReadFrames(dst[got*ch : want*ch])
		got += n
		v.position += int64(n)

		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) {
			return got, err
		}
		if !loop {
			return got, io.EOF
		}
		if v.position == 0 {
			return got, errEmptyLoop
		}
		if err := v.restart(); err != nil {
			return got, fmt.Errorf("failed to restart loop: %w", err)
		}
		v.loops++
	}

	return got, nil
}

func (v *voice) close() {
	if v.reader != nil {
		v.reader.Close()
		v.reader = nil
	}
}

// source is one occupied slot of the table
type source struct {
	file   string
	voice  *voice
	gains  []float32
	paused bool
	loop   bool

	framesPlayed int64
}

func newSource(file string, v *voice, channels int, loop bool) *source {
	gains := make([]float32, channels)
	for i := range gains {
		gains[i] = 1
	}
	return &source{file: file, voice: v, gains: gains, loop: loop}
}

// applyGains scales each channel of interleaved samples by its gain,
// skipping channels at unity
func applyGains(samples []float32, gains []float32) {
	channels := len(gains)
	for ch, gain := range gains {
		if math.Abs(float64(gain)-1) <= gainEpsilon {
			continue
		}
		for i := ch; i < len(samples); i += channels {
			samples[i] *= gain
		}
	}
}

// SourceInfo is a snapshot of one active source
type SourceInfo struct {
	ID           SourceID
	File         string
	Loop         bool
	Paused       bool
	Gains        []float32
	FramesPlayed int64

	// Position is the frame offset within the current pass of the file
	Position int64
	Loops    int
}

func (s *source) info(id SourceID) SourceInfo {
	return SourceInfo{
		ID:           id,
		File:         s.file,
		Loop:         s.loop,
		Paused:       s.paused,
		Gains:        append([]float32(nil), s.gains...),
		FramesPlayed: s.framesPlayed,
		Position:     s.voice.position,
		Loops:        s.voice.loops,
	}
}
