package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/tripvoice/domain"
	"github.com/satriahrh/tripvoice/domain/entities"
	"github.com/satriahrh/tripvoice/domain/repositories"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024

	// Maximum audio buffered for a single utterance.
	defaultMaxAudioBytes = 10 * 1024 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Transcriber turns a finished utterance into a stored transcription
type Transcriber interface {
	Transcribe(ctx context.Context, source entities.TranscriptionSource, audio []byte, config repositories.AudioConfig) (*entities.Transcription, error)
}

// ClientObserver is notified when voice clients come and go
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
}

// Hub maintains the set of connected voice clients.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	transcriber   Transcriber
	observer      ClientObserver
	maxAudioBytes int

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub. observer may be nil.
func NewHub(transcriber Transcriber, observer ClientObserver, logger *zap.Logger) *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		stopped:       make(chan struct{}),
		transcriber:   transcriber,
		observer:      observer,
		maxAudioBytes: defaultMaxAudioBytes,
		logger:        logger,
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				client.cancel()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			if h.observer != nil {
				h.observer.ClientConnected()
			}
			h.logger.Info("Client registered", zap.String("clientID", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client.id]
			delete(h.clients, client.id)
			h.mu.Unlock()
			if ok && h.observer != nil {
				h.observer.ClientDisconnected()
			}
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))
		}
	}
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	id     string
	logger *zap.Logger

	// ctx ends when the connection goes away; in-flight transcriptions use it.
	ctx    context.Context
	cancel context.CancelFunc

	mutex       sync.Mutex
	sessionID   string
	audioConfig repositories.AudioConfig
	audio       []byte
	startedAt   time.Time
}

// HandleWebSocket upgrades the request and serves the voice protocol.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan WriteData, 256),
		id:     id,
		logger: h.logger.With(zap.String("clientID", id)),
		ctx:    ctx,
		cancel: cancel,
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		cancel()
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the client.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps queued messages to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendJSON queues v for the write pump. Messages for a closed client are dropped.
func (c *Client) sendJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to encode message", zap.Error(err))
		return
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	case <-c.ctx.Done():
	}
}

// processMessage handles a control message from the browser
func (c *Client) processMessage(message []byte) {
	msg, err := ParseClientMessage(message)
	if err != nil {
		c.logger.Warn("Invalid client message", zap.Error(err))
		c.sendJSON(newError(c.currentSessionID(), ErrorCodeInvalidMessage, err.Error()))
		return
	}

	switch msg.Type {
	case MessageTypeListeningStart:
		c.handleListeningStart(msg)
	case MessageTypeListeningEnd:
		c.handleListeningEnd()
	case MessageTypePing:
		c.sendJSON(newPong())
	}
}

// processBinaryAudioChunk appends PCM to the active utterance
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()

	if c.sessionID == "" {
		c.mutex.Unlock()
		c.logger.Warn("Received audio chunk but no active session", zap.Int("size", len(data)))
		return
	}

	if len(c.audio)+len(data) > c.hub.maxAudioBytes {
		sessionID := c.sessionID
		c.resetLocked()
		c.mutex.Unlock()

		c.logger.Warn("Utterance exceeds audio limit, discarding",
			zap.String("sessionID", sessionID),
			zap.Int("limit", c.hub.maxAudioBytes))
		c.sendJSON(newError(sessionID, ErrorCodeAudioTooLarge, "audio exceeds the per-utterance limit"))
		return
	}

	c.audio = append(c.audio, data...)
	c.mutex.Unlock()
}

// handleListeningStart opens a new utterance, discarding any unfinished one
func (c *Client) handleListeningStart(msg *ClientMessage) {
	audioConfig := repositories.DefaultAudioConfig()
	if msg.SampleRate > 0 {
		audioConfig.SampleRate = msg.SampleRate
	}
	if msg.Encoding != "" {
		audioConfig.Encoding = msg.Encoding
	}
	audioConfig.Language = msg.Language

	c.mutex.Lock()
	if c.sessionID != "" {
		c.logger.Info("Discarding unfinished utterance", zap.String("sessionID", c.sessionID))
	}
	c.sessionID = uuid.NewString()
	c.audioConfig = audioConfig
	c.audio = make([]byte, 0, 64*1024)
	c.startedAt = time.Now()
	sessionID := c.sessionID
	c.mutex.Unlock()

	c.logger.Info("Audio session started",
		zap.String("sessionID", sessionID),
		zap.Int("sampleRate", audioConfig.SampleRate))
	c.sendJSON(newListeningStart(sessionID))
}

// handleListeningEnd transcribes the buffered utterance in the background
// so pings keep flowing while the recognizer works.
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	sessionID := c.sessionID
	audio := c.audio
	audioConfig := c.audioConfig
	startedAt := c.startedAt
	c.resetLocked()
	c.mutex.Unlock()

	if sessionID == "" {
		c.sendJSON(newError("", ErrorCodeNotListening, "listening_end received without listening_start"))
		return
	}

	c.logger.Info("Audio session ended",
		zap.String("sessionID", sessionID),
		zap.Int("audioBytes", len(audio)),
		zap.Duration("listened", time.Since(startedAt)))

	go func() {
		record, err := c.hub.transcriber.Transcribe(c.ctx, entities.TranscriptionSourceStream, audio, audioConfig)
		if err != nil {
			c.sendJSON(newError(sessionID, domain.ErrorKind(err), err.Error()))
			return
		}
		c.sendJSON(newTranscript(sessionID, record.Transcript, record.ID))
	}()
}

func (c *Client) resetLocked() {
	c.sessionID = ""
	c.audio = nil
	c.audioConfig = repositories.AudioConfig{}
}

func (c *Client) currentSessionID() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.sessionID
}
