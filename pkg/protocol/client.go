// ABOUTME: WebSocket client for the mixer control protocol
// ABOUTME: Handles connection, handshake and request/result correlation
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultTimeout bounds the handshake when Config.Timeout is zero
const DefaultTimeout = 5 * time.Second

var (
	// ErrNotConnected is returned when sending on a closed client
	ErrNotConnected = errors.New("not connected")
	// ErrClosed is returned to requests pending when the connection drops
	ErrClosed = errors.New("connection closed")
)

// RemoteError is a failed audio/result
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	DeviceInfo DeviceInfo
	Timeout    time.Duration
}

// Client is a control connection to a mixer server
type Client struct {
	config  Config
	conn    *websocket.Conn
	mu      sync.RWMutex
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan Message

	// States receives unsolicited audio/state broadcasts
	States chan State

	server    ServerHello
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new control client
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.ClientID == "" {
		config.ClientID = uuid.NewString()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:  config,
		pending: make(map[string]chan Message),
		States:  make(chan State, 10),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: Path}
	log.Printf("Connecting to %s", u.String())

	dialer := websocket.Dialer{HandshakeTimeout: c.config.Timeout}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID:   c.config.ClientID,
		Name:       c.config.Name,
		Version:    ProtocolVersion,
		DeviceInfo: &c.config.DeviceInfo,
	}

	if err := c.sendJSON(Message{Type: TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(c.config.Timeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	switch msg.Type {
	case TypeServerHello:
	case TypeServerError:
		var refused ServerError
		if err := DecodePayload(msg.Payload, &refused); err != nil {
			return err
		}
		return &RemoteError{Code: refused.Error, Message: refused.Message}
	default:
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	var server ServerHello
	if err := DecodePayload(msg.Payload, &server); err != nil {
		return err
	}

	c.mu.Lock()
	c.server = server
	c.mu.Unlock()

	log.Printf("Handshake complete with %s (%d sources, %dHz/%dch)",
		server.Name, server.MaxSources, server.Format.SampleRate, server.Format.Channels)
	return nil
}

// Server returns the server/hello received during the handshake
func (c *Client) Server() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

func (c *Client) sendJSON(msg Message) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()

	if !connected {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()
	defer c.failPending()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Read error: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Failed to parse JSON message: %v", err)
			continue
		}
		c.route(msg)
	}
}

func (c *Client) route(msg Message) {
	var requestID string
	switch msg.Type {
	case TypeResult:
		var res Result
		if err := DecodePayload(msg.Payload, &res); err != nil {
			log.Printf("Failed to parse audio/result: %v", err)
			return
		}
		requestID = res.RequestID
	case TypeState:
		var state State
		if err := DecodePayload(msg.Payload, &state); err != nil {
			log.Printf("Failed to parse audio/state: %v", err)
			return
		}
		if state.RequestID == "" {
			select {
			case c.States <- state:
			case <-time.After(100 * time.Millisecond):
				log.Printf("State channel full, dropping message")
			}
			return
		}
		requestID = state.RequestID
	default:
		log.Printf("Unknown message type: %s", msg.Type)
		return
	}

	c.pendingMu.Lock()
	waiter, ok := c.pending[requestID]
	delete(c.pending, requestID)
	c.pendingMu.Unlock()

	if !ok {
		log.Printf("Warning: no pending request %q for %s", requestID, msg.Type)
		return
	}
	waiter <- msg
}

func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, waiter := range c.pending {
		close(waiter)
		delete(c.pending, id)
	}
}

// request sends a message carrying requestID and waits for its reply
func (c *Client) request(ctx context.Context, requestID, msgType string, payload interface{}) (Message, error) {
	waiter := make(chan Message, 1)

	c.pendingMu.Lock()
	c.pending[requestID] = waiter
	c.pendingMu.Unlock()

	if err := c.sendJSON(Message{Type: msgType, Payload: payload}); err != nil {
		c.forget(requestID)
		return Message{}, fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	select {
	case msg, ok := <-waiter:
		if !ok {
			return Message{}, ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		c.forget(requestID)
		return Message{}, ctx.Err()
	case <-c.ctx.Done():
		return Message{}, ErrClosed
	}
}

func (c *Client) forget(requestID string) {
	c.pendingMu.Lock()
	delete(c.pending, requestID)
	c.pendingMu.Unlock()
}

// call sends a request answered by audio/result
func (c *Client) call(ctx context.Context, requestID, msgType string, payload interface{}) (Result, error) {
	msg, err := c.request(ctx, requestID, msgType, payload)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if err := DecodePayload(msg.Payload, &res); err != nil {
		return Result{}, err
	}
	if !res.OK {
		return res, &RemoteError{Code: res.Error, Message: res.Message}
	}
	return res, nil
}

// Store asks the server to read and cache a file
func (c *Client) Store(ctx context.Context, file string) error {
	id := uuid.NewString()
	_, err := c.call(ctx, id, TypeStore, StoreRequest{RequestID: id, File: file})
	return err
}

// StoreData uploads encoded audio and caches it under file
func (c *Client) StoreData(ctx context.Context, file string, data []byte) error {
	id := uuid.NewString()
	_, err := c.call(ctx, id, TypeStore, StoreRequest{RequestID: id, File: file, Data: data})
	return err
}

// Play starts a cached file and returns its slot
func (c *Client) Play(ctx context.Context, file string, loop bool) (int, error) {
	id := uuid.NewString()
	res, err := c.call(ctx, id, TypePlay, PlayRequest{RequestID: id, File: file, Loop: loop})
	if err != nil {
		return -1, err
	}
	if res.ID == nil {
		return -1, fmt.Errorf("audio/result for play is missing id")
	}
	return *res.ID, nil
}

// Stop stops the source in slot
func (c *Client) Stop(ctx context.Context, slot int) error {
	id := uuid.NewString()
	_, err := c.call(ctx, id, TypeStop, StopRequest{RequestID: id, ID: slot})
	return err
}

// Pause pauses or resumes the source in slot
func (c *Client) Pause(ctx context.Context, slot int, paused bool) error {
	id := uuid.NewString()
	_, err := c.call(ctx, id, TypePause, PauseRequest{RequestID: id, ID: slot, Paused: paused})
	return err
}

// SetGains sets the per-channel gains of the source in slot
func (c *Client) SetGains(ctx context.Context, slot int, gains []float32) error {
	id := uuid.NewString()
	_, err := c.call(ctx, id, TypeGains, GainsRequest{RequestID: id, ID: slot, Gains: gains})
	return err
}

// Status fetches a snapshot of the slot table
func (c *Client) Status(ctx context.Context) (State, error) {
	id := uuid.NewString()
	msg, err := c.request(ctx, id, TypeStatus, StatusRequest{RequestID: id})
	if err != nil {
		return State{}, err
	}
	if msg.Type == TypeResult {
		var res Result
		if err := DecodePayload(msg.Payload, &res); err != nil {
			return State{}, err
		}
		return State{}, &RemoteError{Code: res.Error, Message: res.Message}
	}

	var state State
	if err := DecodePayload(msg.Payload, &state); err != nil {
		return State{}, err
	}
	return state, nil
}

// SendGoodbye sends a client/goodbye message before disconnecting
func (c *Client) SendGoodbye(reason string) error {
	return c.sendJSON(Message{Type: TypeClientGoodbye, Payload: ClientGoodbye{Reason: reason}})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
