// Status and remote input server
//
// Serves baby-step status and remote input over HTTP and a Moonraker-style
// JSON-RPC websocket.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"babystep-go/pkg/babystep"
	"babystep-go/pkg/log"
	"babystep-go/pkg/metrics"
)

const apiVersion = "1.0.0"

// StatusSource reports the current baby-step state.
type StatusSource interface {
	Status() map[string]any
}

// InputSink accepts remote key presses and encoder detents.
type InputSink interface {
	PushKey(k babystep.Key)
	AddTicks(n int)
}

// Config holds server configuration.
type Config struct {
	// Addr to listen on, e.g. "127.0.0.1:7126"
	Addr string

	Status  StatusSource
	Input   InputSink
	Metrics *metrics.BabystepMetrics
	Logger  *log.Logger
}

// Server exposes the screen to remote clients. It is also a
// babystep.Presenter: every redraw is pushed to websocket clients.
type Server struct {
	status  StatusSource
	input   InputSink
	metrics *metrics.BabystepMetrics
	log     *log.Logger

	httpServer *http.Server
	listener   net.Listener
	addr       string

	wsUpgrader websocket.Upgrader
	wsClients  map[int64]*wsClient
	wsClientMu sync.RWMutex
	nextWSID   int64

	running   atomic.Bool
	startTime time.Time
}

var _ babystep.Presenter = (*Server)(nil)

// New creates a server. Nothing listens until Start.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLogger("statusapi")
	}
	return &Server{
		status:    cfg.Status,
		input:     cfg.Input,
		metrics:   cfg.Metrics,
		log:       logger,
		addr:      cfg.Addr,
		wsClients: make(map[int64]*wsClient),
		startTime: time.Now(),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/jsonrpc", s.handleJSONRPC).Methods(http.MethodPost)
	r.HandleFunc("/websocket", s.handleWebSocket)
	r.HandleFunc("/server/info", s.handleServerInfo).Methods(http.MethodGet)
	r.HandleFunc("/babystep/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/babystep/key/{key}", s.handleKey).Methods(http.MethodPost)
	r.HandleFunc("/babystep/ticks", s.handleTicks).Methods(http.MethodPost)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	return corsMiddleware(r)
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("status server listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.running.Store(true)
	s.log.Info("status server listening on %s", ln.Addr())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("status server stopped")
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop closes every websocket client and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.running.Store(false)

	s.wsClientMu.Lock()
	for _, client := range s.wsClients {
		client.Close()
	}
	s.wsClients = make(map[int64]*wsClient)
	s.wsClientMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// JSON-RPC 2.0 structures

type jsonRPCRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
	ID      any            `json:"id,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonRPCError `json:"error,omitempty"`
	ID      any           `json:"id,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonRPCNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req jsonRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, jsonRPCResponse{JSONRPC: "2.0", Error: &jsonRPCError{Code: -32700, Message: "Parse error"}})
		return
	}
	writeJSON(w, http.StatusOK, s.call(req, nil))
}

func (s *Server) call(req jsonRPCRequest, client *wsClient) jsonRPCResponse {
	result, err := s.dispatchMethod(req.Method, req.Params, client)
	if err != nil {
		return jsonRPCResponse{JSONRPC: "2.0", Error: &jsonRPCError{Code: -32000, Message: err.Error()}, ID: req.ID}
	}
	return jsonRPCResponse{JSONRPC: "2.0", Result: result, ID: req.ID}
}

// dispatchMethod routes a method call to its handler.
func (s *Server) dispatchMethod(method string, params map[string]any, client *wsClient) (any, error) {
	switch method {
	case "server.info":
		return s.serverInfo(), nil
	case "server.connection.identify":
		return s.methodIdentify(params, client)
	case "babystep.status":
		return s.currentStatus(), nil
	case "babystep.key":
		name, _ := params["key"].(string)
		if err := s.pushKey(name); err != nil {
			return nil, err
		}
		return "ok", nil
	case "babystep.ticks":
		count, ok := params["count"].(float64)
		if !ok || count != float64(int(count)) {
			return nil, fmt.Errorf("'count' must be an integer")
		}
		if err := s.addTicks(int(count)); err != nil {
			return nil, err
		}
		return "ok", nil
	default:
		return nil, fmt.Errorf("method not found: %s", method)
	}
}

func (s *Server) serverInfo() map[string]any {
	hostname, _ := os.Hostname()
	s.wsClientMu.RLock()
	clients := len(s.wsClients)
	s.wsClientMu.RUnlock()
	return map[string]any{
		"hostname":        hostname,
		"api_version":     apiVersion,
		"websocket_count": clients,
		"uptime":          time.Since(s.startTime).Seconds(),
		"remote_input":    s.input != nil,
	}
}

func (s *Server) methodIdentify(params map[string]any, client *wsClient) (any, error) {
	if client == nil {
		return nil, fmt.Errorf("identify requires a websocket connection")
	}
	name, _ := params["client_name"].(string)
	if name == "" {
		name = "unknown"
	}
	s.log.With("client", client.id).Info("websocket client identified as %s", name)
	return map[string]any{"connection_id": client.id}, nil
}

func (s *Server) currentStatus() map[string]any {
	if s.status == nil {
		return map[string]any{"open": false}
	}
	return s.status.Status()
}

func (s *Server) pushKey(name string) error {
	if s.input == nil {
		return fmt.Errorf("remote input is disabled")
	}
	k, ok := babystep.ParseKey(name)
	if !ok || k == babystep.KeyNone {
		return fmt.Errorf("unknown key %q", name)
	}
	s.input.PushKey(k)
	return nil
}

func (s *Server) addTicks(n int) error {
	if s.input == nil {
		return fmt.Errorf("remote input is disabled")
	}
	s.input.AddTicks(n)
	return nil
}

// REST handlers

func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"result": s.serverInfo()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"result": s.currentStatus()})
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	if err := s.pushKey(mux.Vars(r)["key"]); err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": "ok"})
}

func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Errorf("bad count: %w", err))
		return
	}
	if err := s.addTicks(n); err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.metrics.Export(w)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{"code": code, "message": err.Error()},
	})
}

// Presenter notifications

// ShowPage tells clients the menu was (re)drawn.
func (s *Server) ShowPage(page babystep.Page) {
	items := make([]map[string]any, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, map[string]any{"key": item.Key.String(), "icon": item.Icon, "label": item.Label})
	}
	s.broadcast("notify_babystep_page", map[string]any{"title": page.Title, "items": items})
}

// ShowOffsets pushes the new offsets.
func (s *Server) ShowOffsets(pending, reference float64) {
	s.broadcast("notify_babystep_update", map[string]any{
		"pending_offset":   pending,
		"reference_offset": reference,
	})
}

// ShowUnit pushes the selected unit.
func (s *Server) ShowUnit(unit babystep.Unit) {
	s.broadcast("notify_babystep_update", map[string]any{
		"unit":       unit.Size,
		"unit_label": unit.Label,
	})
}

func (s *Server) broadcast(method string, payload map[string]any) {
	msg := jsonRPCNotification{JSONRPC: "2.0", Method: method, Params: []any{payload}}
	s.wsClientMu.RLock()
	defer s.wsClientMu.RUnlock()
	for _, client := range s.wsClients {
		client.Send(msg)
	}
}

// StatusFunc adapts a function to StatusSource.
type StatusFunc func() map[string]any

func (f StatusFunc) Status() map[string]any { return f() }
