// Package gateway exposes the operational HTTP surface of the cache:
// aggregate health with a store snapshot, Prometheus metrics, and a
// WebSocket feed of cache events relayed from NATS.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/sportscache/cache"
	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/health"
	"github.com/c360/sportscache/metric"
	"github.com/c360/sportscache/natsclient"
)

// Config holds everything the gateway serves. Cache and Addr are required;
// the rest degrade gracefully when absent (no metrics endpoint, no event
// relay, empty health aggregate).
type Config struct {
	Addr       string
	Cache      *cache.ProfileCache
	Categories *cache.CategoryCache
	Monitor    *health.Monitor
	Metrics    *metric.MetricsRegistry
	NATSClient *natsclient.Client
	Logger     *slog.Logger
}

// Server is the ops HTTP server.
type Server struct {
	addr       string
	cache      *cache.ProfileCache
	categories *cache.CategoryCache
	monitor    *health.Monitor
	metrics    *metric.MetricsRegistry
	natsClient *natsclient.Client
	logger     *slog.Logger

	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader

	clients   map[*websocket.Conn]*clientState
	clientsMu sync.Mutex

	lifecycleMu sync.Mutex
	running     atomic.Bool
}

// clientState tracks one connected WebSocket client. writeMu serializes
// writes to the connection, which gorilla/websocket requires.
type clientState struct {
	conn        *websocket.Conn
	connectedAt time.Time
	writeMu     sync.Mutex
}

// EventMessage is the wire shape of one relayed cache event.
type EventMessage struct {
	Subject   string          `json:"subject"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
	Payload   json.RawMessage `json:"payload"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status     string              `json:"status"`
	Components []health.Status     `json:"components,omitempty"`
	Cache      cache.Snapshot      `json:"cache"`
	Categories map[string][]string `json:"category_locales,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// New validates the config and builds a stopped server.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Gateway", "New", "addr is required")
	}
	if cfg.Cache == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Gateway", "New", "cache is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:       cfg.Addr,
		cache:      cfg.Cache,
		categories: cfg.Categories,
		monitor:    cfg.Monitor,
		metrics:    cfg.Metrics,
		natsClient: cfg.NATSClient,
		logger:     logger.With("component", "gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*clientState),
	}, nil
}

// Start binds the listener, subscribes to the cache event stream, and
// serves in the background.
func (s *Server) Start(_ context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.running.Load() {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Gateway", "Start", "server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.WrapFatal(err, "Gateway", "Start", fmt.Sprintf("listen on %s", s.addr))
	}

	if s.natsClient != nil {
		if err := s.natsClient.Subscribe(cache.EventSubjectPrefix+".>", s.relayEvent); err != nil {
			_ = listener.Close()
			return errors.Wrap(err, "Gateway", "Start", "subscribe to cache events")
		}
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.running.Store(true)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("gateway server failed", "error", err)
		}
	}()

	s.logger.Info("gateway started", "addr", listener.Addr().String())
	if s.monitor != nil {
		s.monitor.UpdateHealthy("gateway", "serving on "+listener.Addr().String())
	}
	return nil
}

// Stop shuts the server down and closes all WebSocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.running.Swap(false) {
		return nil
	}

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
		s.server = nil
	}
	s.listener = nil
	s.closeAllClients()

	if s.monitor != nil {
		s.monitor.UpdateUnhealthy("gateway", "stopped")
	}
	if err != nil {
		return errors.Wrap(err, "Gateway", "Stop", "server shutdown")
	}
	return nil
}

// Address returns the bound address, or the configured one before Start.
// Useful when the configured port is 0.
func (s *Server) Address() string {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/events", s.handleEvents)
	if s.metrics != nil {
		mux.Handle("/metrics", metric.Handler(s.metrics))
	}
	return mux
}

// handleHealth serves the aggregate health of all registered components plus
// a snapshot of the store. Unhealthy aggregates get a 503 so load balancers
// can act on the plain status code.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Cache:     s.cache.HealthSnapshot(),
		Timestamp: time.Now(),
	}
	if s.monitor != nil {
		aggregate := s.monitor.AggregateHealth("sportscache")
		response.Status = aggregate.Status
		response.Components = aggregate.SubStatuses
	}
	if s.categories != nil {
		response.Categories = s.categories.Sports()
	}

	code := http.StatusOK
	if response.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Warn("health response write failed", "error", err)
	}
}

// handleEvents upgrades the connection and keeps it registered until the
// client goes away. Events arrive via relayEvent; the read loop exists only
// to notice closes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &clientState{conn: conn, connectedAt: time.Now()}
	s.clientsMu.Lock()
	s.clients[conn] = client
	s.clientsMu.Unlock()
	s.logger.Debug("event client connected", "remote", r.RemoteAddr)

	go s.readLoop(client)
}

// readLoop drains the connection until it closes, then unregisters the
// client. Incoming frames are discarded; the event feed is one-way.
func (s *Server) readLoop(client *clientState) {
	defer s.removeClient(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// relayEvent forwards one NATS cache event to every connected client.
func (s *Server) relayEvent(subject string, data []byte) {
	if !s.running.Load() {
		return
	}
	message, err := json.Marshal(EventMessage{
		Subject:   subject,
		Timestamp: time.Now().UnixMilli(),
		Payload:   json.RawMessage(data),
	})
	if err != nil {
		s.logger.Warn("event encode failed", "subject", subject, "error", err)
		return
	}
	s.broadcast(message)
}

// broadcast writes message to every client, dropping the ones whose writes
// fail. Writes are serialized per connection and bounded by a deadline so a
// stalled client cannot back up the relay.
func (s *Server) broadcast(message []byte) {
	s.clientsMu.Lock()
	clients := make([]*clientState, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsMu.Unlock()

	for _, client := range clients {
		client.writeMu.Lock()
		_ = client.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		err := client.conn.WriteMessage(websocket.TextMessage, message)
		client.writeMu.Unlock()

		if err != nil {
			s.logger.Debug("event client write failed, dropping", "error", err)
			s.removeClient(client)
		}
	}
}

func (s *Server) removeClient(client *clientState) {
	s.clientsMu.Lock()
	_, present := s.clients[client.conn]
	delete(s.clients, client.conn)
	s.clientsMu.Unlock()

	if present {
		_ = client.conn.Close()
	}
}

func (s *Server) closeAllClients() {
	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]*clientState)
	s.clientsMu.Unlock()
}
