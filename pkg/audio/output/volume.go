// ABOUTME: Master volume and mute shared by the output backends
// ABOUTME: Applied to each period after the mixer has filled it
package output

import (
	"log"
	"sync/atomic"
)

// Volume is a master volume (0-100) with mute, safe for use from the audio thread
type Volume struct {
	level atomic.Int32
	muted atomic.Bool
	set   atomic.Bool
}

// SetVolume sets the volume (0-100)
func (v *Volume) SetVolume(volume int) {
	volume = max(0, min(100, volume))
	v.level.Store(int32(volume))
	v.set.Store(true)
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (v *Volume) SetMuted(muted bool) {
	v.muted.Store(muted)
	log.Printf("Muted: %v", muted)
}

// GetVolume returns current volume
func (v *Volume) GetVolume() int {
	if !v.set.Load() {
		return 100
	}
	return int(v.level.Load())
}

// IsMuted returns mute state
func (v *Volume) IsMuted() bool {
	return v.muted.Load()
}

// Apply scales samples in place by the current volume
func (v *Volume) Apply(samples []float32) {
	multiplier := v.multiplier()
	if multiplier == 1 {
		return
	}
	for i := range samples {
		samples[i] *= multiplier
	}
}

func (v *Volume) multiplier() float32 {
	if v.muted.Load() {
		return 0
	}
	return float32(v.GetVolume()) / 100
}
