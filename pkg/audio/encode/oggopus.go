// ABOUTME: Ogg Opus file writer
// ABOUTME: Buffers samples into 20ms frames, encodes them and muxes the packets into Ogg
package encode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/yourgame/yourgame-go/internal/version"
	"github.com/yourgame/yourgame-go/pkg/audio"
)

// Opus granule positions always count 48kHz samples
const (
	opusGranuleRate = 48000
	opusPreSkip     = 312
	oggOpusSerial   = 0x59474d58
)

// OggOpusWriter writes an Ogg Opus file
type OggOpusWriter struct {
	ogg     *oggWriter
	enc     *OpusEncoder
	format  audio.Format
	pending []float32
	frames  int64
	closed  bool
}

// NewOggOpusWriter creates a writer and emits the Opus header packets
func NewOggOpusWriter(w io.Writer, format audio.Format) (*OggOpusWriter, error) {
	enc, err := NewOpus(format)
	if err != nil {
		return nil, err
	}

	o := &OggOpusWriter{
		ogg:    &oggWriter{w: w, serial: oggOpusSerial},
		enc:    enc,
		format: format,
	}

	if err := o.ogg.writePacket(opusHead(format), 0, false); err != nil {
		return nil, err
	}
	if err := o.ogg.writePacket(opusTags(), 0, false); err != nil {
		return nil, err
	}
	return o, nil
}

func opusHead(format audio.Format) []byte {
	p := make([]byte, 19)
	copy(p, "OpusHead")
	p[8] = 1
	p[9] = byte(format.Channels)
	binary.LittleEndian.PutUint16(p[10:], opusPreSkip)
	binary.LittleEndian.PutUint32(p[12:], uint32(format.SampleRate))
	return p
}

func opusTags() []byte {
	vendor := version.String()
	p := make([]byte, 8+4+len(vendor)+4)
	copy(p, "OpusTags")
	binary.LittleEndian.PutUint32(p[8:], uint32(len(vendor)))
	copy(p[12:], vendor)
	return p
}

// Write buffers samples and encodes every complete frame
func (o *OggOpusWriter) Write(samples []float32) error {
	if o.closed {
		return fmt.Errorf("write to closed opus writer")
	}
	if len(samples)%o.format.Channels != 0 {
		return fmt.Errorf("sample count %d is not a multiple of %d channels", len(samples), o.format.Channels)
	}

	o.pending = append(o.pending, samples...)
	frameSamples := o.enc.FrameSize() * o.format.Channels
	for len(o.pending) >= frameSamples {
		if err := o.encodeFrame(o.pending[:frameSamples], o.enc.FrameSize(), false); err != nil {
			return err
		}
		o.pending = o.pending[frameSamples:]
	}
	return nil
}

// encodeFrame encodes one full frame whose first frames samples are audio
// and the rest padding
func (o *OggOpusWriter) encodeFrame(frame []float32, frames int, last bool) error {
	packet, err := o.enc.Encode(frame)
	if err != nil {
		return err
	}
	o.frames += int64(frames)
	return o.ogg.writePacket(packet, o.granule(), last)
}

func (o *OggOpusWriter) granule() int64 {
	return opusPreSkip + o.frames*opusGranuleRate/int64(o.format.SampleRate)
}

// Close pads and encodes the final partial frame and ends the stream. The
// last page's granule position excludes the padding so decoders trim it.
func (o *OggOpusWriter) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true

	frame := make([]float32, o.enc.FrameSize()*o.format.Channels)
	copy(frame, o.pending)
	tail := len(o.pending) / o.format.Channels
	o.pending = nil
	return o.encodeFrame(frame, tail, true)
}
