package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/observe/internal/scenario"
	"github.com/vango-dev/observe/pkg/arraydiff"
	"github.com/vango-dev/observe/pkg/observe"
)

const (
	// DefaultQueueSize is the per-client outgoing message buffer.
	DefaultQueueSize = 64

	// DefaultWriteTimeout bounds a single WebSocket write.
	DefaultWriteTimeout = 10 * time.Second

	// maxOpBody limits POST /array/ops request bodies.
	maxOpBody = 1 << 20
)

// Server streams an ObservableArray to HTTP and WebSocket clients.
type Server struct {
	arr *observe.ObservableArray[any]

	// opMu serializes mutations and snapshot reads.
	opMu sync.Mutex

	logger         *slog.Logger
	queueSize      int
	writeTimeout   time.Duration
	metricsHandler http.Handler
	upgrader       websocket.Upgrader

	hub  *hub
	subs []*observe.Subscription

	closeOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithQueueSize sets the per-client message buffer. Values below 1 are
// ignored.
func WithQueueSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithWriteTimeout sets the WebSocket write deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithMetricsHandler replaces the handler served at /metrics.
// Pass nil to disable the route.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithCheckOrigin sets the WebSocket origin check. The default accepts
// every origin.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// New creates a server for arr and subscribes it to the array's derived
// events. Call Close to release the subscriptions and disconnect clients.
func New(arr *observe.ObservableArray[any], opts ...Option) *Server {
	s := &Server{
		arr:            arr,
		logger:         slog.Default(),
		queueSize:      DefaultQueueSize,
		writeTimeout:   DefaultWriteTimeout,
		metricsHandler: promhttp.Handler(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(s.logger)

	for _, event := range observe.ArrayEvents() {
		s.subs = append(s.subs, arr.Subscribe(func(v any) {
			s.hub.broadcast(Message{Event: string(event), Edits: v})
		}, observe.ForEvent(event)))
	}
	return s
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Route("/array", func(r chi.Router) {
		r.Get("/", s.handleValues)
		r.Get("/script", s.handleScript)
		r.Post("/ops", s.handleOp)
	})
	r.Get("/ws", s.handleWebSocket)
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}
	return r
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	return s.hub.count()
}

// Close disposes the array subscriptions and disconnects all clients.
// It is safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		for _, sub := range s.subs {
			sub.Dispose()
		}
		s.hub.closeAll()
	})
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"values": s.values()})
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"edits": s.script()})
}

// opRequest is the body of POST /array/ops.
type opRequest struct {
	Op   string `json:"op"`
	Args []any  `json:"args"`
}

func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	var req opRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOpBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, values, err := s.apply(req)
	if err != nil {
		s.logger.Debug("operation rejected", "op", req.Op, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("operation applied", "op", req.Op, "args", len(req.Args))
	writeJSON(w, http.StatusOK, map[string]any{"result": result, "values": values})
}

// apply runs one operation and snapshots the result under opMu. A panicking
// operation still releases the lock.
func (s *Server) apply(req opRequest) (any, []any, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	result, err := scenario.Apply(s.arr, req.Op, req.Args)
	return result, s.arr.Values(), err
}

func (s *Server) script() arraydiff.Script[any] {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.arr.EditScript()
}

func (s *Server) values() []any {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.arr.Values()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
