// Package mixer implements a fixed-capacity real-time audio mixer.
//
// An Engine owns a table of source slots, a cache of encoded files and an
// output device. The device calls Engine.Mix once per period; Mix decodes
// every playing source into the device format, applies its per-channel
// gains and sums it into the output. Non-looping sources leave the table
// when they reach the end of their file, looping ones restart.
//
// A single mutex guards the table. Control calls and the callback
// serialize on it, so a slow control call can delay a period.
//
// Example:
//
//	engine, err := mixer.New(mixer.Config{MaxSources: 8, Device: output.NewMalgo()})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Shutdown()
//
//	engine.StoreFile("a//laserSmall_000.ogg")
//	id, err := engine.Play("a//laserSmall_000.ogg", false)
//	engine.SetChannelGains(id, []float32{0.5, 1})
package mixer
