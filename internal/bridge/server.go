// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jeranaias/chatdesk/internal/catalog"
	"github.com/jeranaias/chatdesk/internal/chatstore"
	"github.com/jeranaias/chatdesk/internal/ollama"
	"github.com/jeranaias/chatdesk/internal/settings"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the bridge listener.
	DefaultPort = 4517

	// MaxRequestBodySize caps invoke payloads (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// Version is the bridge protocol version.
	Version = "0.1.0"
)

// ============================================================================
// WINDOW CONTROLLER
// ============================================================================

// WindowController receives the window send-channel commands. The windowing
// shell is an external collaborator; the default implementation only logs.
type WindowController interface {
	Minimize()
	ToggleMaximize()
	Close()
}

type logWindowController struct{}

func (logWindowController) Minimize()       { log.Printf("WINDOW | minimize requested") }
func (logWindowController) ToggleMaximize() { log.Printf("WINDOW | maximize toggle requested") }
func (logWindowController) Close()          { log.Printf("WINDOW | close requested") }

// ============================================================================
// SERVER
// ============================================================================

// Server is the bridge gateway host.
type Server struct {
	host   string
	port   int
	router *http.ServeMux
	server *http.Server

	chats     *chatstore.Store
	settings  *settings.Store
	ollama    *ollama.Client
	catalog   *catalog.Client
	window    WindowController
	hub       *Hub
	userFiles string

	rateLimit float64
	rateBurst int

	invokeHandlers map[string]invokeHandler
}

// NewServer creates a bridge server over the given stores.
// If port is 0, DefaultPort is used; an empty host means 127.0.0.1.
func NewServer(host string, port int, chats *chatstore.Store, sett *settings.Store) *Server {
	if host == "" {
		host = "127.0.0.1"
	}
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		host:      host,
		port:      port,
		router:    http.NewServeMux(),
		chats:     chats,
		settings:  sett,
		ollama:    ollama.NewClient("", 0),
		catalog:   catalog.NewClient("", 0),
		window:    logWindowController{},
		hub:       NewHub(),
		rateLimit: 50,
		rateBurst: 100,
	}

	s.invokeHandlers = s.buildInvokeHandlers()
	s.setupRoutes()
	return s
}

// WithOllamaClient sets a custom Ollama client.
func (s *Server) WithOllamaClient(client *ollama.Client) *Server {
	s.ollama = client
	return s
}

// WithCatalogClient sets a custom model catalog client.
func (s *Server) WithCatalogClient(client *catalog.Client) *Server {
	s.catalog = client
	return s
}

// WithWindowController sets the window command sink.
func (s *Server) WithWindowController(wc WindowController) *Server {
	s.window = wc
	return s
}

// WithUserFilesPath sets the path answered on the user-files-path channel.
func (s *Server) WithUserFilesPath(path string) *Server {
	s.userFiles = path
	return s
}

// WithRateLimit overrides the per-client request budget.
func (s *Server) WithRateLimit(rps float64, burst int) *Server {
	s.rateLimit = rps
	s.rateBurst = burst
	return s
}

// Hub returns the notify hub for publishing push events.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, fmt.Sprintf("%d", s.port))
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /v1/invoke/{channel}", s.handleInvoke)
	s.router.HandleFunc("POST /v1/send/{channel}", s.handleSend)
	s.router.HandleFunc("GET /v1/events", s.handleEvents)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the fully wrapped HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(NewRateLimiter(s.rateLimit, s.rateBurst)),
	)(s.router)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP listener. Blocks until shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.Addr(),
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: /v1/events holds its response open.
		IdleTimeout: 120 * time.Second,
	}

	log.Printf("BRIDGE_START | addr=%s version=%s", s.Addr(), Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and the notify hub.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("BRIDGE_SHUTDOWN | starting graceful shutdown")
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

// ============================================================================
// SEND / EVENTS
// ============================================================================

// handleSend dispatches fire-and-forget channels. Always answers 202:
// the sender gets no delivery feedback, invalid names are logged and dropped.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")

	if !ValidSendChannel(channel) {
		log.Printf("SEND_DROPPED | invalid channel=%s", channel)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	switch channel {
	case ChannelMinimizeApp:
		s.window.Minimize()
	case ChannelMaximizeApp:
		s.window.ToggleMaximize()
	case ChannelCloseApp:
		s.window.Close()
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleEvents serves the SSE stream of notify-channel events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log.Printf("EVENTS_SUBSCRIBE | id=%s", id)
	for {
		select {
		case <-r.Context().Done():
			log.Printf("EVENTS_UNSUBSCRIBE | id=%s", id)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.Write(encodeSSE(ev))
			flusher.Flush()
		}
	}
}

// ============================================================================
// HEALTH
// ============================================================================

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Subscribers int    `json:"subscribers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Version:     Version,
		Subscribers: s.hub.SubscriberCount(),
	})
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
