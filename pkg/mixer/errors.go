// ABOUTME: Error taxonomy of the mixer
// ABOUTME: Sentinel errors matched with errors.Is and a SourceError carrying the source id
package mixer

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStored     = errors.New("file already stored")
	ErrRead              = errors.New("failed to read file")
	ErrNotFound          = errors.New("file not stored")
	ErrNoFreeSlot        = errors.New("no free source slot")
	ErrDecodeInit        = errors.New("failed to initialize decoder")
	ErrInvalidID         = errors.New("invalid source id")
	ErrNotActive         = errors.New("source not active")
	ErrGainCountMismatch = errors.New("gain count does not match channel count")
	ErrDeviceInit        = errors.New("failed to initialize output device")
	ErrNotInitialized    = errors.New("mixer not initialized")
	ErrInvalidConfig     = errors.New("invalid mixer config")
)

// SourceError records a failed operation on a source id
type SourceError struct {
	Op  string
	ID  SourceID
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s source %d: %v", e.Op, e.ID, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
