// Package transport owns the duplex websocket connections: framing,
// keepalive, per-connection outbound buffering and the connection-id ->
// *Conn directory that lets other components address a specific peer.
// Conn and Hub are deliberately ignorant of rooms, chat and uploads — the
// Dispatcher in this package wires those in.
package transport

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"meetingd/internal/protocol"
)

// Tuning constants mirror the teacher's server_room.go and
// PufferBlow-media-sfu's RTC_WS_* environment defaults.
const (
	DefaultWriteWait    = 10 * time.Second
	DefaultPongWait     = 60 * time.Second
	DefaultPingInterval = (DefaultPongWait * 9) / 10
	DefaultReadLimit    = 1 << 20 // 1 MiB ceiling on every inbound frame, text or binary; upload byte quotas are enforced separately by the upload manager
	sendBufferSize      = 256
)

// Conn wraps one live websocket connection with a buffered outbound queue
// so a slow reader can never block the goroutine that's trying to send to
// it — fan-out uses Send, which drops the connection rather than block.
type Conn struct {
	ID string

	ws   *websocket.Conn
	send chan []byte

	writeWait    time.Duration
	pongWait     time.Duration
	pingInterval time.Duration

	recorder  Recorder
	closeOnce sync.Once
	onClose   func(*Conn)
}

// Timing overrides the default keepalive/read-limit tuning; the zero value
// means "use the package defaults".
type Timing struct {
	ReadLimit    int64
	WriteWait    time.Duration
	PongWait     time.Duration
	PingInterval time.Duration
}

// NewConn wraps ws with default timing. onClose fires exactly once, from
// ReadLoop when the read loop ends; a write failure in WritePump closes the
// socket, which ends the read loop.
func NewConn(id string, ws *websocket.Conn, onClose func(*Conn)) *Conn {
	return NewConnWithTiming(id, ws, Timing{}, onClose)
}

// NewConnWithTiming is NewConn with explicit keepalive tuning, for applying
// operator-configured values.
func NewConnWithTiming(id string, ws *websocket.Conn, t Timing, onClose func(*Conn)) *Conn {
	return NewConnWithRecorder(id, ws, t, onClose, nil)
}

// NewConnWithRecorder is NewConnWithTiming with an explicit observability
// hook, fired whenever this connection's outbound buffer overflows.
func NewConnWithRecorder(id string, ws *websocket.Conn, t Timing, onClose func(*Conn), rec Recorder) *Conn {
	c := &Conn{
		ID:           id,
		ws:           ws,
		send:         make(chan []byte, sendBufferSize),
		writeWait:    orDefault(t.WriteWait, DefaultWriteWait),
		pongWait:     orDefault(t.PongWait, DefaultPongWait),
		pingInterval: orDefault(t.PingInterval, DefaultPingInterval),
		recorder:     rec,
		onClose:      onClose,
	}
	readLimit := t.ReadLimit
	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}
	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(c.pongWait))
	ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})
	return c
}

func orDefault(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}

// Send marshals event/payload into an envelope and enqueues it for
// delivery. If the outbound buffer is full the connection is dropped —
// the documented overflow policy — instead of blocking the caller.
func (c *Conn) Send(event string, payload any) {
	body, err := protocol.Encode(event, payload)
	if err != nil {
		log.Printf("transport: encode %s for %s failed: %v", event, c.ID, err)
		return
	}
	select {
	case c.send <- body:
	default:
		log.Printf("transport: outbound buffer full for %s, dropping connection", c.ID)
		if c.recorder != nil {
			c.recorder.EventDropped("buffer_overflow")
		}
		c.Close()
	}
}

// Close closes the underlying socket exactly once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		_ = c.ws.Close()
	})
}

// WritePump owns all writes to the socket: outbound queue delivery and the
// keepalive ping ticker. Run it in its own goroutine.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadLoop reads frames until the socket errors or closes, dispatching
// text frames as onText(payload) and binary frames as onBinary(payload).
// It runs the onClose callback exactly once when the loop ends, in the
// caller's goroutine, before returning.
func (c *Conn) ReadLoop(onText func([]byte), onBinary func([]byte)) {
	defer func() {
		close(c.send)
		if c.onClose != nil {
			c.onClose(c)
		}
	}()
	for {
		messageType, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		switch messageType {
		case websocket.TextMessage:
			onText(payload)
		case websocket.BinaryMessage:
			onBinary(payload)
		}
	}
}
