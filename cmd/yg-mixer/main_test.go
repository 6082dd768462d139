// ABOUTME: Tests for the mixer command startup path
// ABOUTME: Checks the startup file list and that a failed startup releases the device
package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/audio/decode/decodetest"
	"github.com/yourgame/yourgame-go/pkg/audio/output"
	"github.com/yourgame/yourgame-go/pkg/file"
	"github.com/yourgame/yourgame-go/pkg/mixer"
)

var stereo = audio.Format{SampleRate: 48000, Channels: 2}

func newTestLoader(t *testing.T, names ...string) *file.Loader {
	t.Helper()
	root := t.TempDir()
	assets := filepath.Join(root, "assets")
	if err := os.MkdirAll(filepath.Join(assets, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(assets, name), decodetest.Constant(stereo, 10, 0.5), 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	return file.NewLoader(file.Options{AssetDir: assets, SaveDir: filepath.Join(root, "saves")})
}

func testConfig(dev output.Device, loader *file.Loader) mixer.Config {
	return mixer.Config{
		Channels:   stereo.Channels,
		SampleRate: stereo.SampleRate,
		MaxSources: 2,
		Device:     dev,
		Files:      loader,
		Opener:     decodetest.OpenOrDecode,
	}
}

func TestExpandFiles(t *testing.T) {
	loader := newTestLoader(t, "a.fake", "b.fake")

	names, err := expandFiles(loader, "a//*.fake, s//extra.bin,,")
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	expected := []string{"a//a.fake", "a//b.fake", "s//extra.bin"}
	if len(names) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, names)
			break
		}
	}

	// directories are skipped
	names, err = expandFiles(loader, "a//*")
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 files without the sub directory, got %v", names)
	}
}

func TestStartMixer(t *testing.T) {
	loader := newTestLoader(t, "a.fake", "b.fake")
	dev := output.NewManualNull()

	engine, err := startMixer(testConfig(dev, loader), loader, startupFiles{files: "a//*.fake", play: "a//b.fake", loop: true})
	if err != nil {
		t.Fatalf("startup failed: %v", err)
	}
	defer engine.Shutdown()

	if len(engine.StoredFiles()) != 2 {
		t.Errorf("expected 2 stored files, got %v", engine.StoredFiles())
	}
	sources := engine.Sources()
	if len(sources) != 1 || sources[0].File != "a//b.fake" || !sources[0].Loop {
		t.Errorf("expected a//b.fake looping, got %+v", sources)
	}
}

func TestStartMixerFailureReleasesDevice(t *testing.T) {
	loader := newTestLoader(t, "a.fake")
	dev := output.NewManualNull()

	engine, err := startMixer(testConfig(dev, loader), loader, startupFiles{play: "a//missing.fake"})
	if err == nil {
		engine.Shutdown()
		t.Fatal("expected startup to fail for a missing file")
	}
	if !errors.Is(err, mixer.ErrRead) {
		t.Errorf("expected read error, got %v", err)
	}
	if _, err := dev.Pump(16); !errors.Is(err, output.ErrNotOpen) {
		t.Errorf("expected device closed after failed startup, got %v", err)
	}
}
