// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation and sample conversion functions
package audio

import (
	"errors"
	"math"
	"testing"
)

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr error
	}{
		{"stereo", Format{SampleRate: 44100, Channels: 2}, nil},
		{"mono", Format{SampleRate: 11025, Channels: 1}, nil},
		{"zero rate", Format{SampleRate: 0, Channels: 2}, ErrInvalidSampleRate},
		{"negative channels", Format{SampleRate: 48000, Channels: -1}, ErrInvalidChannels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFormatString(t *testing.T) {
	f := Format{SampleRate: 48000, Channels: 2}
	if f.String() != "48000Hz/2ch" {
		t.Errorf("expected 48000Hz/2ch, got %s", f.String())
	}
	if f.FrameSize() != 2 {
		t.Errorf("expected frame size 2, got %d", f.FrameSize())
	}
}

func TestInt16ToFloat32(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected float32
	}{
		{"zero", 0, 0},
		{"min", -32768, -1},
		{"half", 16384, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Int16ToFloat32(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestFloat32ToInt16Clips(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected int16
	}{
		{"zero", 0, 0},
		{"full scale", 1, 32767},
		{"over range", 3.5, 32767},
		{"under range", -2, -32767},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Float32ToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestIntToFloat32BitDepths(t *testing.T) {
	if v := IntToFloat32(Min24Bit, 24); v != -1 {
		t.Errorf("expected -1 for 24-bit min, got %v", v)
	}
	if v := IntToFloat32(-128, 8); v != -1 {
		t.Errorf("expected -1 for 8-bit min, got %v", v)
	}
	if v := IntToFloat32(100, 0); v != 0 {
		t.Errorf("expected 0 for invalid bit depth, got %v", v)
	}
}

func TestFloat32ToIntRoundTrip(t *testing.T) {
	for _, depth := range []int{16, 24, 32} {
		for _, in := range []float32{-0.75, -0.1, 0, 0.25, 0.9} {
			back := IntToFloat32(Float32ToInt(in, depth), depth)
			if math.Abs(float64(back-in)) > 1e-4 {
				t.Errorf("%d-bit: expected ~%v, got %v", depth, in, back)
			}
		}
	}
}
