// Package api provides the HTTP and WebSocket server fronting the engine
// fleet: instrument discovery, manual stepping, metrics history, and a
// streaming WebSocket feed of every StepResult as it's produced.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/atlas-desktop/macrosignal/internal/engine"
	"github.com/atlas-desktop/macrosignal/internal/feed"
	"github.com/atlas-desktop/macrosignal/internal/metrics"
	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// Config holds the server's listen address and timeouts.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	WebSocketPath string
}

// DefaultConfig returns sane defaults for local/demo use.
func DefaultConfig() Config {
	return Config{
		Host:          "0.0.0.0",
		Port:          8080,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		WebSocketPath: "/ws",
	}
}

// Server is the HTTP/WebSocket API server.
type Server struct {
	logger     *zap.Logger
	config     Config
	router     *mux.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader
	hub        *Hub
	feedStore  *feed.Store
	facades    map[string]*engine.Facade
	collectors *metrics.Collectors
}

// NewServer wires a router over the given engine fleet (keyed by pair name),
// feed store, and metrics collectors.
func NewServer(logger *zap.Logger, config Config, facades map[string]*engine.Facade, feedStore *feed.Store, collectors *metrics.Collectors) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")

	server := &Server{
		logger:     logger,
		config:     config,
		router:     mux.NewRouter(),
		hub:        NewHub(logger),
		feedStore:  feedStore,
		facades:    facades,
		collectors: collectors,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	server.setupRoutes()
	go server.hub.Run()
	return server
}

// Router exposes the underlying router, primarily for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/v1/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/v1/instruments", s.handleListInstruments).Methods("GET")
	s.router.HandleFunc("/api/v1/instruments/{pair}/history", s.handleGetHistory).Methods("GET")
	s.router.HandleFunc("/api/v1/instruments/{pair}/step", s.handleStep).Methods("POST")
	s.router.HandleFunc("/api/v1/instruments/{pair}/metrics", s.handleGetMetrics).Methods("GET")

	if s.collectors != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.collectors.Registry(), promhttp.HandlerOpts{})).Methods("GET")
	}

	s.router.HandleFunc(s.config.WebSocketPath, s.handleWebSocket)
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("starting api server", zap.String("addr", addr))

	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) handleListInstruments(w http.ResponseWriter, r *http.Request) {
	pairs := make([]string, 0, len(s.facades))
	for pair := range s.facades {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)

	writeJSON(w, map[string]interface{}{"instruments": pairs})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	pair := mux.Vars(r)["pair"]

	end := time.Now()
	start := end.AddDate(0, -1, 0)
	if v := r.URL.Query().Get("start"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			start = t
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			end = t
		}
	}

	records, err := s.feedStore.LoadSeries(pair, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, map[string]interface{}{
		"pair":    pair,
		"records": records,
		"count":   len(records),
	})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	pair := mux.Vars(r)["pair"]

	facade, ok := s.facades[pair]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown instrument: "+pair)
		return
	}

	var obs types.Observation
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid observation body: "+err.Error())
			return
		}
	}
	if obs == nil {
		obs = types.Observation{}
	}

	result := facade.Step(obs)

	if s.collectors != nil {
		s.collectors.Observe(pair, result)
	}
	s.hub.BroadcastStep(pair, result)

	writeJSON(w, result)
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	pair := mux.Vars(r)["pair"]

	facade, ok := s.facades[pair]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown instrument: "+pair)
		return
	}

	history := facade.History()

	limit := len(history)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	if limit < len(history) {
		history = history[len(history)-limit:]
	}

	writeJSON(w, map[string]interface{}{
		"pair":    pair,
		"history": history,
		"count":   len(history),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(uuid.New().String(), s.hub, conn)
	s.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
