// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM format and float32 sample conversions
package audio

import (
	"errors"
	"fmt"
)

const (
	// Full-scale integer ranges used when converting to and from float32
	Max16Bit = 32767
	Min16Bit = -32768
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

var (
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidChannels   = errors.New("channel count must be positive")
)

// Format describes an interleaved float32 PCM stream
type Format struct {
	SampleRate int
	Channels   int
}

// Validate reports whether the format can be used for decoding or playback
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, f.Channels)
	}
	return nil
}

// FrameSize returns the number of float32 values in one frame
func (f Format) FrameSize() int {
	return f.Channels
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}

// Clamp limits a sample to [-1, 1]
func Clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Int16ToFloat32 converts a 16-bit sample to [-1, 1)
func Int16ToFloat32(sample int16) float32 {
	return float32(sample) / 32768.0
}

// Float32ToInt16 converts a float sample to 16-bit, clipping out-of-range values
func Float32ToInt16(sample float32) int16 {
	v := Clamp(sample) * Max16Bit
	return int16(v)
}

// IntToFloat32 converts a signed integer sample of the given bit depth to [-1, 1)
func IntToFloat32(sample int, bitDepth int) float32 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	scale := float64(int64(1) << (bitDepth - 1))
	return float32(float64(sample) / scale)
}

// Float32ToInt converts a float sample to a signed integer of the given bit depth
func Float32ToInt(sample float32, bitDepth int) int {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	max := float64(int64(1)<<(bitDepth-1) - 1)
	return int(float64(Clamp(sample)) * max)
}
