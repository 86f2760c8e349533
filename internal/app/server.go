// Package app wires every subsystem into a running HTTP/WebSocket server
// and owns its graceful lifecycle, the way the teacher's
// internal/app/server.go owns its store-backed HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"meetingd/internal/chat"
	"meetingd/internal/config"
	"meetingd/internal/httpapi"
	"meetingd/internal/metrics"
	"meetingd/internal/presence"
	"meetingd/internal/ratelimiter"
	"meetingd/internal/room"
	"meetingd/internal/signaling"
	"meetingd/internal/transport"
	"meetingd/internal/upload"
)

// ServerHandle represents a running HTTP/WebSocket server instance.
type ServerHandle struct {
	addr   string
	server *http.Server
	done   chan struct{}
	err    error
}

// Addr returns the actual listen address (after the OS allocated a port).
func (h *ServerHandle) Addr() string {
	return h.addr
}

// Stop triggers a graceful shutdown with the provided context deadline.
func (h *ServerHandle) Stop(ctx context.Context) error {
	if h == nil || h.server == nil {
		return nil
	}
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	return h.server.Shutdown(ctx)
}

// Wait blocks until the server exits.
func (h *ServerHandle) Wait() error {
	if h == nil {
		return nil
	}
	<-h.done
	return h.err
}

// RunServer wires the room registry, chat, presence, signaling and upload
// services onto a Hub/Dispatcher pair, mounts the HTTP surface and starts
// serving in the background. Call Stop/Wait to manage its lifecycle.
func RunServer(ctx context.Context, cfg config.Config) (*ServerHandle, error) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	registry := room.NewRegistryWithRecorder(cfg.RoomCapacity, m)
	uploads, err := upload.NewManager(cfg.UploadDir, cfg.MaxUploadBytes, m)
	if err != nil {
		return nil, fmt.Errorf("init upload manager: %w", err)
	}

	hub := transport.NewHub()
	chatSvc := chat.NewServiceWithRecorder(registry, hub, m)
	presenceSvc := presence.NewService(registry, hub)
	sig := signaling.NewRouter(registry, hub, m)
	dispatcher := transport.NewDispatcherWithRecorder(hub, registry, chatSvc, presenceSvc, sig, uploads, m)

	limiter := ratelimiter.NewFromConfig(cfg)
	timing := transport.Timing{
		ReadLimit:    cfg.WSReadLimit,
		WriteWait:    cfg.WSWriteTimeout,
		PongWait:     cfg.WSPongWait,
		PingInterval: cfg.WSPingInterval,
	}

	httpServer := httpapi.New(registry, dispatcher, hub, limiter, m, reg, cfg.UploadDir, cfg.ClientOrigin, timing)

	addr := cfg.Port
	if addr == "" {
		addr = "3001"
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = ":" + addr
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: httpServer.Mux(),
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	handle := &ServerHandle{
		addr:   listener.Addr().String(),
		server: srv,
		done:   make(chan struct{}),
	}

	go func() {
		if ctx == nil {
			return
		}
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server shutdown error: %v", err)
		}
	}()

	go handle.serve(listener)

	return handle, nil
}

func (h *ServerHandle) serve(listener net.Listener) {
	defer close(h.done)
	err := h.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	h.err = err
}
