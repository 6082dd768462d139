// ABOUTME: Mixer control protocol message type definitions
// ABOUTME: Defines the JSON envelopes exchanged between control clients and the mixer
package protocol

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the control protocol version spoken by this package
const ProtocolVersion = 1

// Path is the HTTP path the control websocket is served on
const Path = "/yourgame/audio"

// Message types
const (
	TypeClientHello   = "client/hello"
	TypeClientGoodbye = "client/goodbye"
	TypeServerHello   = "server/hello"
	TypeServerError   = "server/error"
	TypeStore         = "audio/store"
	TypePlay          = "audio/play"
	TypeStop          = "audio/stop"
	TypePause         = "audio/pause"
	TypeGains         = "audio/gains"
	TypeStatus        = "audio/status"
	TypeResult        = "audio/result"
	TypeState         = "audio/state"
)

// Error codes carried in Result.Error
const (
	CodeAlreadyStored     = "already_stored"
	CodeReadError         = "read_error"
	CodeNotFound          = "not_found"
	CodeNoFreeSlot        = "no_free_slot"
	CodeDecodeInitFailed  = "decode_init_failed"
	CodeInvalidID         = "invalid_id"
	CodeNotActive         = "not_active"
	CodeGainCountMismatch = "gain_count_mismatch"
	CodeNotInitialized    = "not_initialized"
	CodeBadRequest        = "bad_request"
	CodeInternal          = "internal"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// DecodePayload re-marshals a generic payload into the concrete type v
func DecodePayload(payload interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// AudioFormat describes the mixer's device format
type AudioFormat struct {
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID   string      `json:"server_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	Format     AudioFormat `json:"format"`
	MaxSources int         `json:"max_sources"`
}

// ServerError is sent before the server drops a connection it refuses
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ClientGoodbye is sent by a client before it disconnects
type ClientGoodbye struct {
	Reason string `json:"reason"`
}

// StoreRequest asks the mixer to cache a file. When Data is set the bytes
// are stored under File directly instead of being read by the server.
type StoreRequest struct {
	RequestID string `json:"request_id"`
	File      string `json:"file"`
	Data      []byte `json:"data,omitempty"`
}

// PlayRequest starts a cached file on a free slot
type PlayRequest struct {
	RequestID string `json:"request_id"`
	File      string `json:"file"`
	Loop      bool   `json:"loop"`
}

// StopRequest stops the source in slot ID
type StopRequest struct {
	RequestID string `json:"request_id"`
	ID        int    `json:"id"`
}

// PauseRequest pauses or resumes the source in slot ID
type PauseRequest struct {
	RequestID string `json:"request_id"`
	ID        int    `json:"id"`
	Paused    bool   `json:"paused"`
}

// GainsRequest sets per-channel gains of the source in slot ID
type GainsRequest struct {
	RequestID string    `json:"request_id"`
	ID        int       `json:"id"`
	Gains     []float32 `json:"gains"`
}

// StatusRequest asks for an audio/state snapshot
type StatusRequest struct {
	RequestID string `json:"request_id"`
}

// Result answers every store/play/stop/pause/gains request
type Result struct {
	RequestID string `json:"request_id"`
	OK        bool   `json:"ok"`
	ID        *int   `json:"id,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SourceState describes one active slot
type SourceState struct {
	ID           int       `json:"id"`
	File         string    `json:"file"`
	Loop         bool      `json:"loop"`
	Paused       bool      `json:"paused"`
	Gains        []float32 `json:"gains"`
	FramesPlayed int64     `json:"frames_played"`
}

// State is the slot snapshot sent after mutations and in answer to audio/status.
// RequestID is empty for unsolicited broadcasts.
type State struct {
	RequestID   string        `json:"request_id,omitempty"`
	Sources     []SourceState `json:"sources"`
	StoredFiles []string      `json:"stored_files"`
}
