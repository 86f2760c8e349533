// Package httpapi exposes the room-creation REST surface, the websocket
// upgrade endpoint and static serving of uploaded files, following the
// teacher's raw net/http mux and writeJSON/writeError/methodNotAllowed
// helper convention.
package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"meetingd/internal/metrics"
	"meetingd/internal/ratelimiter"
	"meetingd/internal/room"
	"meetingd/internal/transport"
)

var errMissingRoomID = errors.New("missing room id")

// Server bundles everything the HTTP mux needs to answer requests.
type Server struct {
	registry     *room.Registry
	dispatcher   *transport.Dispatcher
	hub          *transport.Hub
	limiter      *ratelimiter.Limiter
	metrics      *metrics.Metrics
	gatherer     prometheus.Gatherer
	uploadDir    string
	clientOrigin string
	timing       transport.Timing
	upgrader     websocket.Upgrader
}

// New builds the HTTP server surface. clientOrigin controls the
// CheckOrigin policy for websocket upgrades: "*" allows every origin.
// gatherer is the Prometheus registry /metrics serves; m may be nil to
// disable metric recording entirely.
func New(registry *room.Registry, dispatcher *transport.Dispatcher, hub *transport.Hub, limiter *ratelimiter.Limiter, m *metrics.Metrics, gatherer prometheus.Gatherer, uploadDir, clientOrigin string, timing transport.Timing) *Server {
	s := &Server{
		registry:     registry,
		dispatcher:   dispatcher,
		hub:          hub,
		limiter:      limiter,
		metrics:      m,
		gatherer:     gatherer,
		uploadDir:    uploadDir,
		clientOrigin: clientOrigin,
		timing:       timing,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.clientOrigin == "*" || s.clientOrigin == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == s.clientOrigin
}

// Mux builds the complete handler tree.
func (s *Server) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/create-room", s.handleCreateRoom)
	mux.HandleFunc("/api/room/", s.handleRoomLookup)
	mux.HandleFunc("/ws", s.handleWebsocket)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", metrics.Handler(s.gatherer))
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
	return mux
}

type createRoomResponse struct {
	RoomID  string `json:"roomId"`
	Success bool   `json:"success"`
}

type roomLookupResponse struct {
	RoomID           string `json:"roomId"`
	ParticipantCount int    `json:"participantCount"`
	Exists           bool   `json:"exists"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if !s.limiter.Allow(clientIP(r)) {
		http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		return
	}
	code := s.registry.Mint()
	writeJSON(w, http.StatusCreated, createRoomResponse{RoomID: code, Success: true})
}

func (s *Server) handleRoomLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/api/room/")
	if code == "" {
		writeError(w, http.StatusBadRequest, errMissingRoomID)
		return
	}
	if !s.registry.Exists(code) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Room not found"})
		return
	}
	writeJSON(w, http.StatusOK, roomLookupResponse{
		RoomID:           strings.ToUpper(code),
		ParticipantCount: s.registry.ParticipantCount(code),
		Exists:           true,
	})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	connID := uuid.NewString()
	if s.metrics != nil {
		s.metrics.ConnectionsActive.Inc()
	}

	var rec transport.Recorder
	if s.metrics != nil {
		rec = s.metrics
	}
	c := transport.NewConnWithRecorder(connID, ws, s.timing, func(*transport.Conn) {
		s.dispatcher.Teardown(connID)
		if s.metrics != nil {
			s.metrics.ConnectionsActive.Dec()
		}
	}, rec)
	s.hub.Register(c)

	go c.WritePump()
	go c.ReadLoop(
		func(text []byte) { s.dispatcher.HandleText(connID, text) },
		func(bin []byte) { s.dispatcher.HandleBinary(connID, bin) },
	)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
