// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the callback-driven Device interface and its backends
// Package output provides audio playback devices.
//
// A Device owns the audio thread and calls a FillFunc for every period.
// Backends: malgo (miniaudio, default), oto, and null (no hardware).
//
// Example:
//
//	dev, err := output.New("malgo")
//	err = dev.Open(audio.Format{SampleRate: 48000, Channels: 2}, engine.Mix)
//	defer dev.Close()
package output
