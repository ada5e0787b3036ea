package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Mshel/lightcycle/internal/game"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	maxRequestBytes = 8 << 20
	shutdownTimeout = 5 * time.Second
)

// DefaultMatchTTL is how long a ?match= controller survives without a request.
const DefaultMatchTTL = 10 * time.Minute

// ConfigSource returns the engine config new controllers are built with.
// It is read once per controller so reloads apply from the next match on.
type ConfigSource func() game.Config

type moveResponse struct {
	Move      string  `json:"move"`
	Mode      string  `json:"mode"`
	Error     string  `json:"error,omitempty"`
	ElapsedMS float64 `json:"elapsedMs"`
}

func newMoveResponse(decision game.Decision) moveResponse {
	resp := moveResponse{
		Move:      decision.Direction.String(),
		Mode:      decision.Mode.String(),
		ElapsedMS: float64(decision.Elapsed.Microseconds()) / 1000,
	}
	if decision.Err != nil {
		resp.Error = decision.Err.Error()
	}
	return resp
}

// Server answers judge requests over plain HTTP and websockets.
//
// POST /move decides a single turn and always answers with a move, falling
// back to the tie-break order when the body cannot be used. Requests
// carrying ?match=<id> share a controller, so the opponent history builds
// up across the match; DELETE /move?match=<id> forgets it, and matches idle
// for longer than the match TTL are dropped. A websocket on /ws gets its own
// controller for the lifetime of the connection.
type Server struct {
	config   ConfigSource
	registry *prometheus.Registry
	metrics  *game.Metrics
	upgrader websocket.Upgrader
	logger   *log.Logger

	connections prometheus.Gauge

	mu        sync.Mutex
	matches   map[string]*matchEntry
	matchTTL  time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type matchEntry struct {
	controller *game.Controller
	lastUsed   time.Time
}

type ServerOption func(*Server)

// WithMatchTTL sets how long an idle match controller is kept. Zero or
// less keeps them until DELETE.
func WithMatchTTL(ttl time.Duration) ServerOption {
	return func(s *Server) {
		s.matchTTL = ttl
	}
}

func NewServer(config ConfigSource, registry *prometheus.Registry, opts ...ServerOption) *Server {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if config == nil {
		config = game.DefaultConfig
	}

	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lightcycle",
		Subsystem: "judge",
		Name:      "websocket_connections",
		Help:      "Open judge websocket connections.",
	})
	registry.MustRegister(connections)

	s := &Server{
		config:   config,
		registry: registry,
		metrics:  game.NewMetrics(registry),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:      log.WithPrefix("judge"),
		connections: connections,
		matches:     make(map[string]*matchEntry),
		matchTTL:    DefaultMatchTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) newController() *game.Controller {
	return game.NewController(s.config(), game.WithMetrics(s.metrics), game.WithLogger(s.logger))
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /move", s.handleMove)
	mux.HandleFunc("DELETE /move", s.handleForget)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting judge server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("judge server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("Stopping judge server")
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("judge server shutdown: %w", err)
	}
	return nil
}

func (s *Server) controllerFor(matchID string) *game.Controller {
	if matchID == "" {
		return s.newController()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.evictIdleLocked(now)

	entry, ok := s.matches[matchID]
	if !ok {
		entry = &matchEntry{controller: s.newController()}
		s.matches[matchID] = entry
		s.logger.Debug("New match controller", "match", matchID)
	}
	entry.lastUsed = now
	return entry.controller
}

// evictIdleLocked drops matches not used within the TTL. It walks the map
// at most once per quarter TTL. s.mu must be held.
func (s *Server) evictIdleLocked(now time.Time) {
	if s.matchTTL <= 0 || now.Sub(s.lastSweep) < s.matchTTL/4 {
		return
	}
	s.lastSweep = now

	for id, entry := range s.matches {
		if now.Sub(entry.lastUsed) > s.matchTTL {
			delete(s.matches, id)
			s.logger.Debug("Evicted idle match", "match", id, "idle", now.Sub(entry.lastUsed))
		}
	}
}

// fallback answers a turn that could not be parsed. The controller sees an
// empty turn, so the move is the first in its tie-break order and the
// fallback is counted like any other.
func fallback(controller *game.Controller, cause error) moveResponse {
	resp := newMoveResponse(controller.Decide(game.TurnState{}))
	resp.Error = cause.Error()
	return resp
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	controller := s.controllerFor(r.URL.Query().Get("match"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, fallback(controller, err))
		return
	}

	ts, err := game.ParseTurnState(body)
	if err != nil {
		s.logger.Warn("Malformed turn state", "remote", r.RemoteAddr, "error", err)
		writeJSON(w, http.StatusOK, fallback(controller, err))
		return
	}

	// A busy controller still answers with its safe default in fallback mode.
	writeJSON(w, http.StatusOK, newMoveResponse(controller.Decide(ts)))
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("match")
	if matchID == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing match"))
		return
	}

	s.mu.Lock()
	_, ok := s.matches[matchID]
	delete(s.matches, matchID)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown match %q", matchID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWebsocket reads one TurnState per text message and answers each
// with a move. A message that cannot be parsed still gets a fallback move.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	s.connections.Inc()
	defer s.connections.Dec()

	controller := s.newController()
	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Info("Judge connected")

	for turn := 1; ; turn++ {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Judge connection dropped", "error", err)
			}
			logger.Info("Judge disconnected", "turns", turn-1)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var resp moveResponse
		ts, err := game.ParseTurnState(payload)
		if err != nil {
			logger.Warn("Malformed turn state", "turn", turn, "error", err)
			resp = fallback(controller, err)
		} else {
			resp = newMoveResponse(controller.Decide(ts))
		}

		data, err := json.Marshal(resp)
		if err != nil {
			logger.Error("Failed to marshal move", "error", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Warn("Failed to send move", "error", err)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
