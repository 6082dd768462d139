// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Runs a miniaudio f32 playback device whose data callback calls the mixer
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/yourgame/yourgame-go/pkg/audio"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	Volume

	// PeriodFrames requests a callback size; zero lets miniaudio decide
	PeriodFrames int

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format

	// guards fill against Close racing an in-flight callback
	cbMu    sync.Mutex
	fill    FillFunc
	samples []float32
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	return &Malgo{}
}

func (m *Malgo) Name() string { return "malgo" }

// Open initializes the output device with specified format
func (m *Malgo) Open(format audio.Format, fill FillFunc) error {
	if err := format.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return ErrAlreadyOpen
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Printf("malgo: %s", message)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(m.PeriodFrames)
	deviceConfig.Alsa.NoMMap = 1

	m.cbMu.Lock()
	m.fill = fill
	m.format = format
	m.cbMu.Unlock()

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample, frameCount)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		freeContext(ctx)
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		freeContext(ctx)
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.malgoCtx = ctx
	m.device = device

	log.Printf("Audio output initialized: %s (malgo/f32)", format)
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()

	numSamples := int(frameCount) * m.format.Channels
	if m.fill == nil || len(pOutput) < numSamples*4 {
		clear(pOutput)
		return
	}

	if cap(m.samples) < numSamples {
		m.samples = make([]float32, numSamples)
	}
	samples := m.samples[:numSamples]

	m.fill(samples)
	m.Volume.Apply(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(pOutput[i*4:], math.Float32bits(s))
	}
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return nil
	}

	if err := m.device.Stop(); err != nil {
		log.Printf("Warning: device stop error: %v", err)
	}
	m.device.Uninit()
	m.device = nil

	m.cbMu.Lock()
	m.fill = nil
	m.cbMu.Unlock()

	freeContext(m.malgoCtx)
	m.malgoCtx = nil
	return nil
}

func freeContext(ctx *malgo.AllocatedContext) {
	if err := ctx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
	}
	ctx.Free()
}
