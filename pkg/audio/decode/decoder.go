// ABOUTME: Stream interface and codec detection
// ABOUTME: Picks the right decoder for an encoded blob by magic bytes or file name
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yourgame/yourgame-go/pkg/audio"
)

var (
	ErrUnknownFormat = errors.New("unknown audio format")
	ErrUnsupported   = errors.New("unsupported audio encoding")
	ErrTruncated     = errors.New("truncated audio data")
)

// Stream produces interleaved float32 PCM in its native format
type Stream interface {
	// Format returns the native sample rate and channel count
	Format() audio.Format

	// Read fills dst with interleaved samples and returns the number of
	// float32 values written, always a multiple of the channel count.
	// io.EOF is returned once the stream is exhausted, possibly together
	// with the final samples.
	Read(dst []float32) (int, error)

	// Close releases decoder resources
	Close() error
}

// Opener creates a Stream from an encoded blob
type Opener func(data []byte) (Stream, error)

// Codec identifies an encoding
type Codec int

const (
	Unknown Codec = iota
	Vorbis
	Opus
	MP3
	WAV
	FLAC
)

func (c Codec) String() string {
	switch c {
	case Vorbis:
		return "vorbis"
	case Opus:
		return "opus"
	case MP3:
		return "mp3"
	case WAV:
		return "wav"
	case FLAC:
		return "flac"
	default:
		return "unknown"
	}
}

// oggProbeSize bounds how far into an Ogg file the codec id header is searched
const oggProbeSize = 512

// Detect identifies the codec from the leading bytes of a file
func Detect(data []byte) Codec {
	switch {
	case len(data) >= 4 && string(data[:4]) == "OggS":
		head := data[:min(len(data), oggProbeSize)]
		if bytes.Contains(head, []byte("\x01vorbis")) {
			return Vorbis
		}
		if bytes.Contains(head, []byte("OpusHead")) {
			return Opus
		}
		return Unknown
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return WAV
	case len(data) >= 4 && string(data[:4]) == "fLaC":
		return FLAC
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return MP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return MP3
	}
	return Unknown
}

// CodecFromName guesses the codec from a file extension
func CodecFromName(name string) Codec {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ogg", ".oga":
		return Vorbis
	case ".opus":
		return Opus
	case ".mp3":
		return MP3
	case ".wav", ".wave":
		return WAV
	case ".flac":
		return FLAC
	}
	return Unknown
}

// Open detects the codec of data and creates a stream for it
func Open(data []byte) (Stream, error) {
	return OpenCodec(data, Detect(data))
}

// OpenCodec creates a stream for data using the given codec
func OpenCodec(data []byte, codec Codec) (Stream, error) {
	switch codec {
	case Vorbis:
		return NewVorbis(data)
	case Opus:
		return NewOpus(data)
	case MP3:
		return NewMP3(data)
	case WAV:
		return NewWAV(data)
	case FLAC:
		return NewFLAC(data)
	default:
		return nil, fmt.Errorf("%w (%d bytes)", ErrUnknownFormat, len(data))
	}
}
