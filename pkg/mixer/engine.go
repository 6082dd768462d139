// ABOUTME: Mixer engine owning the source table, file cache and output device
// ABOUTME: Implements init/shutdown and the control operations guarded by one mutex
package mixer

import (
	"fmt"
	"log"
	"sync"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/audio/decode"
	"github.com/yourgame/yourgame-go/pkg/audio/output"
)

// Engine is a fixed-capacity multi-source mixer. New initializes it and
// Shutdown tears it down; in between the output device calls Mix.
type Engine struct {
	format audio.Format
	device output.Device
	files  FileReader
	opener decode.Opener
	debug  bool

	cache *fileCache

	// mu guards the table, scratch and stats, and is held for all of Mix
	mu          sync.Mutex
	initialized bool
	sources     []*source
	scratch     []float32
	stats       Stats
}

// Stats counts mixer activity since New
type Stats struct {
	Periods      int64
	Frames       int64
	Retired      int64
	DecodeErrors int64

	Active      int
	StoredFiles int
	StoredBytes int
}

// New initializes a mixer and opens its output device
func New(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		format:      audio.Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels},
		device:      cfg.Device,
		files:       cfg.Files,
		opener:      cfg.Opener,
		debug:       cfg.Debug,
		cache:       newFileCache(),
		sources:     make([]*source, cfg.MaxSources),
		initialized: true,
	}

	if err := e.device.Open(e.format, e.Mix); err != nil {
		e.initialized = false
		return nil, fmt.Errorf("%w (%s): %w", ErrDeviceInit, e.device.Name(), err)
	}

	log.Printf("Mixer initialized: %s, %d sources, device %s", e.format, cfg.MaxSources, e.device.Name())
	return e, nil
}

// Shutdown stops every source, clears the file cache and closes the device.
// Calling it again is a no-op.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil
	}
	e.initialized = false
	e.mu.Unlock()

	// the device may be waiting on mu inside Mix, so close it unlocked
	closeErr := e.device.Close()

	e.mu.Lock()
	stopped := 0
	for i, src := range e.sources {
		if src != nil {
			src.voice.close()
			e.sources[i] = nil
			stopped++
		}
	}
	e.mu.Unlock()

	e.cache.clear()

	log.Printf("Mixer shut down (%d sources stopped)", stopped)
	if closeErr != nil {
		return fmt.Errorf("failed to close output device: %w", closeErr)
	}
	return nil
}

// IsInitialized reports whether the mixer is between New and Shutdown
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Format returns the fixed device format
func (e *Engine) Format() audio.Format { return e.format }

// Capacity returns the size of the source table
func (e *Engine) Capacity() int { return len(e.sources) }

// DeviceName returns the name of the output backend
func (e *Engine) DeviceName() string { return e.device.Name() }

// StoreFile reads name through the file reader and caches its bytes
func (e *Engine) StoreFile(name string) error {
	if !e.IsInitialized() {
		return ErrNotInitialized
	}
	if e.cache.has(name) {
		return fmt.Errorf("%w: %s", ErrAlreadyStored, name)
	}

	data, err := e.files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRead, name, err)
	}

	return e.StoreData(name, data)
}

// StoreData caches caller-provided encoded audio under name
func (e *Engine) StoreData(name string, data []byte) error {
	if !e.IsInitialized() {
		return ErrNotInitialized
	}
	if !e.cache.put(name, data) {
		return fmt.Errorf("%w: %s", ErrAlreadyStored, name)
	}
	if e.debug {
		log.Printf("[DEBUG] Stored %s (%d bytes)", name, len(data))
	}
	return nil
}

// ClearCache drops every stored file. Playing sources keep their data.
func (e *Engine) ClearCache() {
	e.cache.clear()
}

// StoredFiles returns the cached filenames in sorted order
func (e *Engine) StoredFiles() []string {
	return e.cache.names()
}

// Play starts a source for a stored file in the first free slot
func (e *Engine) Play(name string, loop bool) (SourceID, error) {
	if !e.IsInitialized() {
		return NoSource, ErrNotInitialized
	}

	data, ok := e.cache.get(name)
	if !ok {
		return NoSource, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	e.mu.Lock()
	free := e.freeSlot()
	e.mu.Unlock()
	if free == NoSource {
		return NoSource, ErrNoFreeSlot
	}

	// decoder setup runs outside the lock so the callback never waits on it
	v, err := newVoice(data, e.opener, e.format)
	if err != nil {
		return NoSource, fmt.Errorf("%w: %s: %w", ErrDecodeInit, name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		v.close()
		return NoSource, ErrNotInitialized
	}
	id := e.freeSlot()
	if id == NoSource {
		v.close()
		return NoSource, ErrNoFreeSlot
	}

	e.sources[id] = newSource(name, v, e.format.Channels, loop)
	if e.debug {
		log.Printf("[DEBUG] Playing %s in slot %d (loop=%v, source format %s)", name, id, loop, v.reader.SourceFormat())
	}
	return id, nil
}

// freeSlot returns the lowest empty slot; callers hold mu
func (e *Engine) freeSlot() SourceID {
	for i, src := range e.sources {
		if src == nil {
			return SourceID(i)
		}
	}
	return NoSource
}

// lookup returns the active source at id; callers hold mu
func (e *Engine) lookup(op string, id SourceID) (*source, error) {
	if !e.initialized {
		return nil, &SourceError{Op: op, ID: id, Err: ErrNotInitialized}
	}
	if id < 0 || int(id) >= len(e.sources) {
		return nil, &SourceError{Op: op, ID: id, Err: ErrInvalidID}
	}
	src := e.sources[id]
	if src == nil {
		return nil, &SourceError{Op: op, ID: id, Err: ErrNotActive}
	}
	return src, nil
}

// Stop releases a source and empties its slot
func (e *Engine) Stop(id SourceID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.lookup("stop", id)
	if err != nil {
		return err
	}
	src.voice.close()
	e.sources[id] = nil

	if e.debug {
		log.Printf("[DEBUG] Stopped slot %d (%s)", id, src.file)
	}
	return nil
}

// Pause pauses or resumes a source
func (e *Engine) Pause(id SourceID, paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.lookup("pause", id)
	if err != nil {
		return err
	}
	src.paused = paused
	return nil
}

// SetChannelGains replaces the per-channel gains of a source. gains must
// have one entry per device channel.
func (e *Engine) SetChannelGains(id SourceID, gains []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.lookup("set gains of", id)
	if err != nil {
		return err
	}
	if len(gains) != e.format.Channels {
		return &SourceError{
			Op:  "set gains of",
			ID:  id,
			Err: fmt.Errorf("%w: got %d, want %d", ErrGainCountMismatch, len(gains), e.format.Channels),
		}
	}
	copy(src.gains, gains)
	return nil
}

// Source returns a snapshot of one active source
func (e *Engine) Source(id SourceID) (SourceInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, err := e.lookup("inspect", id)
	if err != nil {
		return SourceInfo{}, err
	}
	return src.info(id), nil
}

// Sources returns snapshots of all active sources in slot order
func (e *Engine) Sources() []SourceInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	var infos []SourceInfo
	for i, src := range e.sources {
		if src != nil {
			infos = append(infos, src.info(SourceID(i)))
		}
	}
	return infos
}

// Stats returns activity counters
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	stats := e.stats
	for _, src := range e.sources {
		if src != nil {
			stats.Active++
		}
	}
	e.mu.Unlock()

	stats.StoredFiles, stats.StoredBytes = e.cache.size()
	return stats
}
