// ABOUTME: WebSocket control server exposing the mixer to remote tools
// ABOUTME: Manages connections, dispatches audio/* requests and broadcasts slot state
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yourgame/yourgame-go/internal/discovery"
	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/file"
	"github.com/yourgame/yourgame-go/pkg/mixer"
	"github.com/yourgame/yourgame-go/pkg/protocol"
)

const (
	// DefaultPort is the control port when Config.Port is zero
	DefaultPort = 8928

	// DefaultMaxMessageBytes bounds a single request, uploads included
	DefaultMaxMessageBytes = 16 << 20

	sendBuffer    = 100
	pingInterval  = 30 * time.Second
	writeDeadline = 10 * time.Second
	helloTimeout  = 10 * time.Second
	shutdownGrace = 5 * time.Second
)

// Mixer is the subset of *mixer.Engine the server drives
type Mixer interface {
	Format() audio.Format
	Capacity() int
	StoreFile(name string) error
	StoreData(name string, data []byte) error
	Play(name string, loop bool) (mixer.SourceID, error)
	Stop(id mixer.SourceID) error
	Pause(id mixer.SourceID, paused bool) error
	SetChannelGains(id mixer.SourceID, gains []float32) error
	Sources() []mixer.SourceInfo
	StoredFiles() []string
}

// Config holds server configuration
type Config struct {
	Port            int
	Name            string
	EnableMDNS      bool
	Debug           bool
	MaxMessageBytes int64
}

// Server serves the control protocol for one mixer
type Server struct {
	config   Config
	serverID string
	mixer    Mixer

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	clients   map[string]*client
	clientsMu sync.RWMutex

	mdnsManager *discovery.Manager

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// client is one connected control session
type client struct {
	ID     string
	Name   string
	connID string
	conn   *websocket.Conn

	sendChan chan interface{}
}

// New creates a control server for m
func New(config Config, m Mixer) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.MaxMessageBytes <= 0 {
		config.MaxMessageBytes = DefaultMaxMessageBytes
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mixer:    m,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// control clients are local tools; browsers get a warning
				if origin := r.Header.Get("Origin"); origin != "" {
					log.Printf("Warning: accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:  make(map[string]*client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)
	return s
}

// ID returns the server instance id sent in server/hello
func (s *Server) ID() string { return s.serverID }

// Handler returns the HTTP handler serving the control websocket
func (s *Server) Handler() http.Handler { return s.mux }

// Start listens on the configured port and blocks until Stop is called
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(listener)
}

// Serve accepts control connections on listener until Stop is called
func (s *Server) Serve(listener net.Listener) error {
	log.Printf("Control server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		port := s.config.Port
		if addr, ok := listener.Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        port,
			Path:        protocol.Path,
			Sources:     s.mixer.Capacity(),
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	s.httpServer = &http.Server{Handler: s.mux}
	log.Printf("WebSocket server listening on %s%s", listener.Addr(), protocol.Path)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Control server shutting down...")
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// hijacked websocket connections are not closed by Shutdown
	s.closeClients()
	s.wg.Wait()
	log.Printf("Control server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Clients returns the number of connected control sessions
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		c.conn.Close()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	shutdown := s.isShutdown
	s.shutdownMu.RUnlock()
	if shutdown {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	// counted before the upgrade so Shutdown cannot finish ahead of Add
	s.wg.Add(1)
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// readHello waits for and validates client/hello
func (s *Server) readHello(conn *websocket.Conn) (protocol.ClientHello, error) {
	var hello protocol.ClientHello

	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("failed to read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return hello, fmt.Errorf("failed to parse hello: %w", err)
	}
	if msg.Type != protocol.TypeClientHello {
		return hello, fmt.Errorf("expected client/hello, got %s", msg.Type)
	}
	if err := protocol.DecodePayload(msg.Payload, &hello); err != nil {
		return hello, err
	}

	if hello.ClientID == "" {
		return hello, errors.New("client hello missing client_id")
	}
	if hello.Name == "" {
		return hello, errors.New("client hello missing name")
	}
	if hello.Version != protocol.ProtocolVersion {
		return hello, fmt.Errorf("unsupported protocol version %d", hello.Version)
	}
	return hello, nil
}

// refuse sends server/error directly on conn; the writer is not running yet
func refuse(conn *websocket.Conn, code, message string) {
	msg := protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.ServerError{Error: code, Message: message},
	}
	if data, err := json.Marshal(msg); err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(s.config.MaxMessageBytes)

	if s.config.Debug {
		log.Printf("[DEBUG] New connection, waiting for handshake")
	}

	hello, err := s.readHello(conn)
	if err != nil {
		log.Printf("Rejecting connection: %v", err)
		refuse(conn, protocol.CodeBadRequest, err.Error())
		return
	}

	c := &client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		connID:   uuid.NewString(),
		conn:     conn,
		sendChan: make(chan interface{}, sendBuffer),
	}
	log.Printf("Client hello: %s (ID: %s, connection %s)", c.Name, c.ID, c.connID)

	s.clientsMu.Lock()
	if existing, exists := s.clients[c.ID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", c.ID, existing.Name)
		refuse(conn, "duplicate_client_id", "Client ID already connected")
		return
	}
	s.clients[c.ID] = c
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.ID)
		s.clientsMu.Unlock()
		close(c.sendChan)
		log.Printf("Client disconnected: %s", c.Name)
	}()

	format := s.mixer.Format()
	serverHello := protocol.ServerHello{
		ServerID:   s.serverID,
		Name:       s.config.Name,
		Version:    protocol.ProtocolVersion,
		Format:     protocol.AudioFormat{SampleRate: format.SampleRate, Channels: format.Channels},
		MaxSources: s.mixer.Capacity(),
	}
	if err := s.sendMessage(c, protocol.TypeServerHello, serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if done := s.handleClientMessage(c, data); done {
			return
		}
	}
}

// clientWriter owns all writes to the client's connection
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing text message: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage dispatches one request; it reports true on client/goodbye
func (s *Server) handleClientMessage(c *client, data []byte) bool {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return false
	}

	if s.config.Debug {
		log.Printf("[DEBUG] %s from %s", msg.Type, c.Name)
	}

	switch msg.Type {
	case protocol.TypeStore:
		s.handleStore(c, msg.Payload)
	case protocol.TypePlay:
		s.handlePlay(c, msg.Payload)
	case protocol.TypeStop:
		s.handleStop(c, msg.Payload)
	case protocol.TypePause:
		s.handlePause(c, msg.Payload)
	case protocol.TypeGains:
		s.handleGains(c, msg.Payload)
	case protocol.TypeStatus:
		s.handleStatus(c, msg.Payload)
	case protocol.TypeClientGoodbye:
		var bye protocol.ClientGoodbye
		if err := protocol.DecodePayload(msg.Payload, &bye); err == nil && bye.Reason != "" {
			log.Printf("Client %s leaving: %s", c.Name, bye.Reason)
		}
		return true
	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
	return false
}

func (s *Server) handleStore(c *client, payload interface{}) {
	var req protocol.StoreRequest
	if !s.decodeRequest(c, payload, &req, func() string { return req.RequestID }) {
		return
	}

	var err error
	if req.Data != nil {
		err = s.mixer.StoreData(req.File, req.Data)
	} else if _, err = file.AssetPath(req.File); err == nil {
		// remote peers may only load from the asset directory
		err = s.mixer.StoreFile(req.File)
	} else {
		log.Printf("Warning: client %s asked to load %q outside the assets", c.Name, req.File)
	}
	s.reply(c, req.RequestID, nil, err)
}

func (s *Server) handlePlay(c *client, payload interface{}) {
	var req protocol.PlayRequest
	if !s.decodeRequest(c, payload, &req, func() string { return req.RequestID }) {
		return
	}

	id, err := s.mixer.Play(req.File, req.Loop)
	if err != nil {
		s.reply(c, req.RequestID, nil, err)
		return
	}
	slot := int(id)
	s.reply(c, req.RequestID, &slot, nil)
}

func (s *Server) handleStop(c *client, payload interface{}) {
	var req protocol.StopRequest
	if !s.decodeRequest(c, payload, &req, func() string { return req.RequestID }) {
		return
	}
	s.reply(c, req.RequestID, nil, s.mixer.Stop(mixer.SourceID(req.ID)))
}

func (s *Server) handlePause(c *client, payload interface{}) {
	var req protocol.PauseRequest
	if !s.decodeRequest(c, payload, &req, func() string { return req.RequestID }) {
		return
	}
	s.reply(c, req.RequestID, nil, s.mixer.Pause(mixer.SourceID(req.ID), req.Paused))
}

func (s *Server) handleGains(c *client, payload interface{}) {
	var req protocol.GainsRequest
	if !s.decodeRequest(c, payload, &req, func() string { return req.RequestID }) {
		return
	}
	s.reply(c, req.RequestID, nil, s.mixer.SetChannelGains(mixer.SourceID(req.ID), req.Gains))
}

func (s *Server) handleStatus(c *client, payload interface{}) {
	var req protocol.StatusRequest
	if !s.decodeRequest(c, payload, &req, func() string { return req.RequestID }) {
		return
	}
	state := s.snapshot()
	state.RequestID = req.RequestID
	if err := s.sendMessage(c, protocol.TypeState, state); err != nil {
		log.Printf("Error sending state to %s: %v", c.Name, err)
	}
}

// decodeRequest parses payload into v, answering bad_request on failure
func (s *Server) decodeRequest(c *client, payload interface{}, v interface{}, requestID func() string) bool {
	if err := protocol.DecodePayload(payload, v); err != nil {
		log.Printf("Error decoding request from %s: %v", c.Name, err)
		s.sendResult(c, protocol.Result{
			RequestID: requestID(),
			Error:     protocol.CodeBadRequest,
			Message:   err.Error(),
		})
		return false
	}
	return true
}

// reply answers a request and, when it changed the mixer, broadcasts state
func (s *Server) reply(c *client, requestID string, id *int, err error) {
	if err != nil {
		if s.config.Debug {
			log.Printf("[DEBUG] Request %s from %s failed: %v", requestID, c.Name, err)
		}
		s.sendResult(c, protocol.Result{
			RequestID: requestID,
			Error:     ErrorCode(err),
			Message:   err.Error(),
		})
		return
	}

	s.sendResult(c, protocol.Result{RequestID: requestID, OK: true, ID: id})
	s.broadcastState()
}

func (s *Server) sendResult(c *client, res protocol.Result) {
	if err := s.sendMessage(c, protocol.TypeResult, res); err != nil {
		log.Printf("Error sending result to %s: %v", c.Name, err)
	}
}

// snapshot converts the mixer's slot table to protocol form
func (s *Server) snapshot() protocol.State {
	infos := s.mixer.Sources()
	state := protocol.State{
		Sources:     make([]protocol.SourceState, 0, len(infos)),
		StoredFiles: s.mixer.StoredFiles(),
	}
	for _, info := range infos {
		state.Sources = append(state.Sources, protocol.SourceState{
			ID:           int(info.ID),
			File:         info.File,
			Loop:         info.Loop,
			Paused:       info.Paused,
			Gains:        info.Gains,
			FramesPlayed: info.FramesPlayed,
		})
	}
	if state.StoredFiles == nil {
		state.StoredFiles = []string{}
	}
	return state
}

// broadcastState sends an unsolicited audio/state to every client
func (s *Server) broadcastState() {
	state := s.snapshot()

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		if err := s.sendMessage(c, protocol.TypeState, state); err != nil {
			log.Printf("Warning: dropping state for %s: %v", c.Name, err)
		}
	}
}

// sendMessage queues a JSON message for the client's writer
func (s *Server) sendMessage(c *client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case c.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// ErrorCode maps a mixer error to its protocol code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, mixer.ErrAlreadyStored):
		return protocol.CodeAlreadyStored
	case errors.Is(err, mixer.ErrRead):
		return protocol.CodeReadError
	case errors.Is(err, mixer.ErrNotFound):
		return protocol.CodeNotFound
	case errors.Is(err, mixer.ErrNoFreeSlot):
		return protocol.CodeNoFreeSlot
	case errors.Is(err, mixer.ErrDecodeInit):
		return protocol.CodeDecodeInitFailed
	case errors.Is(err, mixer.ErrInvalidID):
		return protocol.CodeInvalidID
	case errors.Is(err, mixer.ErrNotActive):
		return protocol.CodeNotActive
	case errors.Is(err, mixer.ErrGainCountMismatch):
		return protocol.CodeGainCountMismatch
	case errors.Is(err, mixer.ErrNotInitialized):
		return protocol.CodeNotInitialized
	case errors.Is(err, file.ErrNotAsset):
		return protocol.CodeBadRequest
	default:
		return protocol.CodeInternal
	}
}
