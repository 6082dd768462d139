// ABOUTME: The mix callback
// ABOUTME: Sums every playing source into the device buffer and retires finished ones
package mixer

import (
	"errors"
	"io"
	"log"
)

// Mix fills out with one period of interleaved device-format audio. It is
// the output device callback and holds the table lock for its whole run.
func (e *Engine) Mix(out []float32) {
	clear(out)

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return
	}

	channels := e.format.Channels
	frames := len(out) / channels
	size := frames * channels
	if cap(e.scratch) < size {
		e.scratch = make([]float32, size)
	}
	buf := e.scratch[:size]

	for i, src := range e.sources {
		if src == nil || src.paused {
			continue
		}

		n, err := src.voice.read(buf, src.loop)
		mixed := buf[:n*channels]
		applyGains(mixed, src.gains)
		for j, v := range mixed {
			out[j] += v
		}
		src.framesPlayed += int64(n)

		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if e.debug {
				log.Printf("[DEBUG] Slot %d (%s) finished after %d frames", i, src.file, src.framesPlayed)
			}
		} else {
			e.stats.DecodeErrors++
			log.Printf("Warning: decode error in slot %d (%s), stopping source: %v", i, src.file, err)
		}
		src.voice.close()
		e.sources[i] = nil
		e.stats.Retired++
	}

	e.stats.Periods++
	e.stats.Frames += int64(frames)
}
