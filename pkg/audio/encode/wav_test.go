// ABOUTME: Unit tests for the WAV writer
// ABOUTME: Writes to a temporary file and reads it back with the WAV decoder
package encode_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/audio/decode"
	"github.com/yourgame/yourgame-go/pkg/audio/encode"
)

func TestWAVWriterRoundTrip(t *testing.T) {
	for _, bitDepth := range []int{16, 24} {
		format := audio.Format{SampleRate: 44100, Channels: 2}
		path := filepath.Join(t.TempDir(), "out.wav")
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		w, err := encode.Create(f, path, format, bitDepth)
		if err != nil {
			t.Fatalf("failed to create writer: %v", err)
		}
		input := []float32{0.5, -0.5, 0.25, -0.25, 2, -2}
		if err := w.Write(input); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		f.Close()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back failed: %v", err)
		}
		stream, err := decode.NewWAV(data)
		if err != nil {
			t.Fatalf("%d-bit: decode failed: %v", bitDepth, err)
		}
		if stream.Format() != format {
			t.Errorf("expected format %v, got %v", format, stream.Format())
		}

		out := make([]float32, 16)
		n, _ := stream.Read(out)
		if n != len(input) {
			t.Fatalf("%d-bit: expected %d samples, got %d", bitDepth, len(input), n)
		}

		// out-of-range samples are clamped
		expected := []float32{0.5, -0.5, 0.25, -0.25, 1, -1}
		for i := range expected {
			if math.Abs(float64(out[i]-expected[i])) > 1e-3 {
				t.Errorf("%d-bit sample %d: expected %v, got %v", bitDepth, i, expected[i], out[i])
			}
		}
	}
}

func TestWAVWriterRejectsPartialFrames(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, err := encode.NewWAVWriter(f, audio.Format{SampleRate: 8000, Channels: 2}, 16)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	if err := w.Write([]float32{0.1, 0.2, 0.3}); err == nil {
		t.Error("expected error for odd sample count")
	}
}

func TestCreateUnsupported(t *testing.T) {
	_, err := encode.Create(nil, "out.mp3", audio.Format{SampleRate: 48000, Channels: 2}, 16)
	if !errors.Is(err, encode.ErrUnsupportedFile) {
		t.Errorf("expected ErrUnsupportedFile, got %v", err)
	}

	if _, err := encode.NewWAVWriter(nil, audio.Format{SampleRate: 48000, Channels: 2}, 12); err == nil {
		t.Error("expected error for 12-bit WAV")
	}
}
