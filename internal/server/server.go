// Package server hands generated levels to a renderer over WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/dungen/internal/config"
	"github.com/lawnchairsociety/dungen/internal/genlog"
	"github.com/lawnchairsociety/dungen/internal/logger"
	"github.com/lawnchairsociety/dungen/internal/pipeline"
)

const cleanupInterval = 5 * time.Minute

// LevelServer answers level requests sent over /ws.
type LevelServer struct {
	pipeline    *pipeline.Pipeline
	history     genlog.History
	cfg         config.ServerConfig
	connLimiter *ConnLimiter
	rateLimiter *RequestLimiter
	upgrader    websocket.Upgrader
}

// NewLevelServer creates a server. history may be nil, which disables the
// history command.
func NewLevelServer(p *pipeline.Pipeline, history genlog.History, cfg config.ServerConfig) *LevelServer {
	s := &LevelServer{
		pipeline:    p,
		history:     history,
		cfg:         cfg,
		connLimiter: NewConnLimiter(cfg.Connections),
		rateLimiter: NewRequestLimiter(cfg.RateLimit),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}
	return s
}

// Handler returns the HTTP routes of the server.
func (s *LevelServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *LevelServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warning("Level server shutdown failed", "error", err)
				}
				return
			case <-ticker.C:
				s.rateLimiter.Cleanup()
			}
		}
	}()

	logger.Always("Level server listening", "address", s.cfg.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth reports liveness and the open connection counts.
func (s *LevelServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.connLimiter.Stats()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok\nconnections %d\nips %d\n", stats.Open, stats.IPs)
}

func (s *LevelServer) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)
	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(clientIP)
		return
	}

	defer s.connLimiter.Release(clientIP)
	client := NewWebSocketClient(conn, s.cfg.WebSocket.MaxMessageSize)
	defer client.Close()
	newSession(s, client, clientIP).serve(r.Context())
}

// getRealIP prefers the proxy headers over the socket address.
func getRealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return extractIP(r.RemoteAddr)
}
