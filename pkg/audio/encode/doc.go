// ABOUTME: Audio encoder package for offline renders
// ABOUTME: Writes float32 mixer output to WAV or Ogg Opus files
// Package encode writes mixed audio to files.
//
// Supports: WAV (16, 24 or 32-bit integer PCM via go-audio/wav) and
// Ogg Opus (libopus packets in a minimal Ogg muxer).
//
// Example:
//
//	f, err := os.Create("out.wav")
//	w, err := encode.Create(f, "out.wav", format, 16)
//	err = w.Write(samples)
//	err = w.Close()
package encode
