// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides the Stream interface and decoders for Vorbis, Opus, MP3, WAV, FLAC
// Package decode turns an in-memory encoded audio file into a stream of
// interleaved float32 PCM.
//
// Supports: Ogg Vorbis, Ogg Opus, MP3, WAV (8/16/24/32-bit integer PCM), FLAC
//
// Every decoder reads from a byte slice, so a stream can be re-created from
// the same blob at any time (this is how looping playback restarts).
// Streams keep the native sample rate and channel count of the file;
// conversion to a device format lives in package convert.
//
// Example:
//
//	stream, err := decode.Open(data)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	buf := make([]float32, 4096)
//	n, err := stream.Read(buf)
package decode
