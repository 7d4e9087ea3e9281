package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/pipeline"
	"github.com/vaanihq/vaani/usecase"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TurnRunner is the slice of the turn service the hub needs.
type TurnRunner interface {
	ProcessTurnStream(ctx context.Context, userText string, pc entities.ProcessContext) (<-chan pipeline.Item, error)
}

// VoiceRunner is the slice of the voice session service the hub needs for
// audio turns. May be nil when no recognizer or synthesizer is configured.
type VoiceRunner interface {
	ProcessAudioTurn(ctx context.Context, audio <-chan []byte, cfg repositories.AudioConfig, pc entities.ProcessContext) (<-chan usecase.AudioSegment, error)
}

// WriteData is one outbound frame queued on a client's send channel.
type WriteData struct {
	MessageType int
	Payload     []byte
}

// Hub tracks the connected device clients.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	turns      TurnRunner
	voice      VoiceRunner
	logger     *zap.Logger
}

// NewHub creates a hub serving text turns through turns and audio turns
// through voice. A nil voice rejects audio_start messages.
func NewHub(turns TurnRunner, voice VoiceRunner, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		turns:      turns,
		voice:      voice,
		logger:     logger,
	}
}

// Run processes register/unregister events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.deviceID]; ok {
				// One live connection per device; the newer one wins.
				old.close()
			}
			h.clients[client.deviceID] = client
			h.mu.Unlock()
			h.logger.Info("client connected", zap.String("deviceID", client.deviceID))

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client.deviceID] == client {
				delete(h.clients, client.deviceID)
			}
			h.mu.Unlock()
			client.close()
			h.logger.Info("client disconnected", zap.String("deviceID", client.deviceID))

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				client.close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// ClientCount returns the number of connected devices.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client is one device connection. A turn in flight on the connection is
// cancelled when a new turn_start arrives or the connection drops.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	deviceID string
	send     chan WriteData
	logger   *zap.Logger

	closeOnce sync.Once

	// turn state, owned by readPump
	turn       *turnState
	voiceTurn  *voiceTurnState
	cancelTurn context.CancelFunc
}

type turnState struct {
	pc     entities.ProcessContext
	chunks []string
}

type voiceTurnState struct {
	pc    entities.ProcessContext
	cfg   repositories.AudioConfig
	ctx   context.Context
	audio chan []byte
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// HandleWebSocketWithAuth upgrades an authenticated request and serves the
// turn protocol until the connection closes.
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, deviceID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("websocket upgrade failed",
			zap.String("deviceID", deviceID),
			zap.Error(err))
		return err
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		deviceID: deviceID,
		send:     make(chan WriteData, 64),
		logger:   logger.With(zap.String("deviceID", deviceID)),
	}
	hub.register <- client

	go client.writePump()
	client.readPump(c.Request().Context())
	return nil
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.supersedeTurn()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected websocket close", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("", "bad_message", "message is not valid JSON")
			continue
		}
		c.handleMessage(ctx, env)
	}
}

func (c *Client) handleMessage(ctx context.Context, env Envelope) {
	switch env.Type {
	case TypeTurnStart:
		ts, err := DecodeTurnStart(env.Data)
		if err != nil {
			c.sendError("", "bad_turn_start", err.Error())
			return
		}
		// A fresh turn_start supersedes whatever is still in flight.
		c.supersedeTurn()
		pc := entities.NewProcessContext(entities.Language(ts.Language), ts.Domain, ts.ConversationID)
		if ts.Segment != "" {
			pc = pc.WithSegment(ts.Segment)
		}
		c.turn = &turnState{pc: pc}

	case TypeTextChunk:
		if c.turn == nil {
			c.sendError("", "no_open_turn", "text_chunk before turn_start")
			return
		}
		var tc TextChunk
		if err := json.Unmarshal(env.Data, &tc); err != nil {
			c.sendError(c.turn.pc.TurnID, "bad_message", "invalid text_chunk payload")
			return
		}
		if text := strings.TrimSpace(tc.Text); text != "" {
			c.turn.chunks = append(c.turn.chunks, text)
		}

	case TypeTurnEnd:
		if c.turn == nil {
			c.sendError("", "no_open_turn", "turn_end before turn_start")
			return
		}
		turn := c.turn
		c.turn = nil

		turnCtx, cancel := context.WithCancel(ctx)
		c.cancelTurn = cancel
		go c.runTurn(turnCtx, turn)

	case TypeAudioStart:
		if c.hub.voice == nil {
			c.sendError("", "voice_unavailable", "no recognizer or synthesizer configured")
			return
		}
		as, err := DecodeAudioStart(env.Data)
		if err != nil {
			c.sendError("", "bad_audio_start", err.Error())
			return
		}
		c.supersedeTurn()
		pc := entities.NewProcessContext(entities.Language(as.Language), as.Domain, as.ConversationID)
		if as.Segment != "" {
			pc = pc.WithSegment(as.Segment)
		}
		turnCtx, cancel := context.WithCancel(ctx)
		c.cancelTurn = cancel
		c.voiceTurn = &voiceTurnState{
			pc: pc,
			cfg: repositories.AudioConfig{
				SampleRate: as.SampleRate,
				Encoding:   as.Encoding,
				Language:   as.Language,
			},
			ctx:   turnCtx,
			audio: make(chan []byte, 32),
		}
		go c.runVoiceTurn(turnCtx, c.voiceTurn)

	case TypeAudioChunk:
		if c.voiceTurn == nil {
			c.sendError("", "no_open_turn", "audio_chunk before audio_start")
			return
		}
		var ac AudioChunk
		if err := json.Unmarshal(env.Data, &ac); err != nil {
			c.sendError(c.voiceTurn.pc.TurnID, "bad_message", "invalid audio_chunk payload")
			return
		}
		data, err := base64.StdEncoding.DecodeString(ac.Data)
		if err != nil {
			c.sendError(c.voiceTurn.pc.TurnID, "bad_message", "audio_chunk data is not valid base64")
			return
		}
		select {
		case c.voiceTurn.audio <- data:
		case <-c.voiceTurn.ctx.Done():
			c.voiceTurn = nil
		}

	case TypeAudioEnd:
		if c.voiceTurn == nil {
			c.sendError("", "no_open_turn", "audio_end before audio_start")
			return
		}
		// Closing the audio channel hands the turn to the voice goroutine.
		close(c.voiceTurn.audio)
		c.voiceTurn = nil

	default:
		c.sendError("", "unknown_message", "unknown message type "+env.Type)
	}
}

// supersedeTurn cancels whatever turn is still in flight and releases its
// state. Closing the audio channel unblocks a voice turn still consuming it.
func (c *Client) supersedeTurn() {
	if c.cancelTurn != nil {
		c.cancelTurn()
		c.cancelTurn = nil
	}
	if c.voiceTurn != nil {
		close(c.voiceTurn.audio)
		c.voiceTurn = nil
	}
	c.turn = nil
}

// runTurn streams one turn's response sentences back to the device.
func (c *Client) runTurn(ctx context.Context, turn *turnState) {
	userText := strings.Join(turn.chunks, " ")
	if userText == "" {
		c.sendError(turn.pc.TurnID, "empty_turn", "turn ended with no recognized text")
		return
	}

	items, err := c.hub.turns.ProcessTurnStream(ctx, userText, turn.pc)
	if err != nil {
		c.logger.Error("turn failed",
			zap.String("turnID", turn.pc.TurnID),
			zap.Error(err))
		c.sendError(turn.pc.TurnID, "turn_failed", "could not process turn")
		return
	}

	for item := range items {
		if item.Err != nil {
			c.logger.Warn("degraded sentence",
				zap.String("turnID", turn.pc.TurnID),
				zap.Int("seq", item.Seq),
				zap.Error(item.Err))
		}
		c.sendJSON(TypeSentence, Sentence{
			TurnID: turn.pc.TurnID,
			Seq:    item.Seq,
			Text:   item.Text,
		})
	}
	if ctx.Err() != nil {
		return
	}
	c.sendJSON(TypeTurnComplete, TurnComplete{
		TurnID:         turn.pc.TurnID,
		ConversationID: turn.pc.ConversationID,
	})
}

// runVoiceTurn streams one audio turn's response back to the device: the
// text of each sentence, its synthesized audio chunks, and a final frame per
// sentence.
func (c *Client) runVoiceTurn(ctx context.Context, vt *voiceTurnState) {
	segments, err := c.hub.voice.ProcessAudioTurn(ctx, vt.audio, vt.cfg, vt.pc)
	if err != nil {
		// The reader may still be pushing chunks; drain them so it never
		// blocks on a dead turn.
		go func() {
			for range vt.audio {
			}
		}()
		c.logger.Error("audio turn failed",
			zap.String("turnID", vt.pc.TurnID),
			zap.Error(err))
		c.sendError(vt.pc.TurnID, "turn_failed", "could not process audio turn")
		return
	}

	for segment := range segments {
		c.sendJSON(TypeSentence, Sentence{
			TurnID: vt.pc.TurnID,
			Seq:    segment.Seq,
			Text:   segment.Text,
		})
		for chunk := range segment.Audio {
			c.sendJSON(TypeAudio, AudioFrame{
				TurnID: vt.pc.TurnID,
				Seq:    segment.Seq,
				Data:   base64.StdEncoding.EncodeToString(chunk),
			})
		}
		c.sendJSON(TypeAudio, AudioFrame{
			TurnID: vt.pc.TurnID,
			Seq:    segment.Seq,
			Final:  true,
		})
	}
	if ctx.Err() != nil {
		return
	}
	c.sendJSON(TypeTurnComplete, TurnComplete{
		TurnID:         vt.pc.TurnID,
		ConversationID: vt.pc.ConversationID,
	})
}

func (c *Client) sendJSON(msgType string, payload any) {
	data, err := Encode(msgType, payload)
	if err != nil {
		c.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	defer func() {
		// send may be closed by the hub while a turn is still draining.
		recover()
	}()
	select {
	case c.send <- WriteData{MessageType: websocket.TextMessage, Payload: data}:
	default:
		c.logger.Warn("send buffer full, dropping message", zap.String("type", msgType))
	}
}

func (c *Client) sendError(turnID, code, message string) {
	c.sendJSON(TypeError, ErrorMessage{TurnID: turnID, Code: code, Message: message})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msg.MessageType, msg.Payload); err != nil {
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
