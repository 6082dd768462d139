// ABOUTME: Tests for codec detection and stream opening
// ABOUTME: Covers magic-byte detection, extension fallback and unknown data
package decode

import (
	"errors"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Codec
	}{
		{"vorbis", append([]byte("OggS\x00\x02"), []byte("....\x01vorbis")...), Vorbis},
		{"opus", append([]byte("OggS\x00\x02"), []byte("....OpusHead")...), Opus},
		{"other ogg", []byte("OggS\x00\x02 theora"), Unknown},
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), WAV},
		{"riff not wave", []byte("RIFF\x24\x00\x00\x00AVI LIST"), Unknown},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), FLAC},
		{"mp3 id3", []byte("ID3\x04\x00"), MP3},
		{"mp3 sync", []byte{0xFF, 0xFB, 0x90, 0x64}, MP3},
		{"empty", nil, Unknown},
		{"text", []byte("hello world"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.data); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCodecFromName(t *testing.T) {
	tests := map[string]Codec{
		"a//laserSmall_000.ogg": Vorbis,
		"music.OPUS":            Opus,
		"track.mp3":             MP3,
		"hit.wav":               WAV,
		"hires.flac":            FLAC,
		"readme.txt":            Unknown,
		"noext":                 Unknown,
	}

	for name, expected := range tests {
		if got := CodecFromName(name); got != expected {
			t.Errorf("%s: expected %v, got %v", name, expected, got)
		}
	}
}

func TestCodecString(t *testing.T) {
	if Vorbis.String() != "vorbis" {
		t.Errorf("expected vorbis, got %s", Vorbis.String())
	}
	if Codec(99).String() != "unknown" {
		t.Errorf("expected unknown, got %s", Codec(99).String())
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	stream, err := Open([]byte("definitely not audio"))
	if err == nil {
		t.Fatal("expected error for unknown data, got nil")
	}
	if stream != nil {
		t.Fatal("expected nil stream for unknown data")
	}
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestOpenCodecRejectsGarbage(t *testing.T) {
	garbage := []byte("garbage garbage garbage garbage garbage garbage")

	for _, codec := range []Codec{Vorbis, Opus, MP3, WAV, FLAC} {
		t.Run(codec.String(), func(t *testing.T) {
			if _, err := OpenCodec(garbage, codec); err == nil {
				t.Errorf("expected %s decoder to reject garbage", codec)
			}
		})
	}
}
