// Package httpserver is the HTTP transport shell for the dispatcher. It
// decodes request bodies, hands them to the dispatcher, encodes responses,
// and manages the long-lived notification channel.
package httpserver

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/loopwork-ai/switchboard/jsonrpc"
	"github.com/loopwork-ai/switchboard/mcp"
)

// DefaultHeartbeatInterval is the notification channel's heartbeat cadence
const DefaultHeartbeatInterval = 30 * time.Second

// Server serves the dispatcher over HTTP: POST /rpc for requests, GET /rpc
// for the notification channel, POST /{tool} as a per-tool convenience
// route, and the generated documentation surface.
type Server struct {
	dispatcher *mcp.Server
	registry   *mcp.Registry
	router     *chi.Mux
	logger     *slog.Logger
	token      string
	heartbeat  time.Duration
	serverID   string
	openapi    []byte
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger used for transport diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithToken enables bearer-token enforcement on the rpc and tool routes.
// An empty token leaves the endpoints open.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithHeartbeatInterval overrides the notification channel's heartbeat cadence
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(s *Server) {
		if interval > 0 {
			s.heartbeat = interval
		}
	}
}

// New creates an HTTP transport over the given registry and dispatcher. The
// documentation surface is generated up front from the registry projection;
// an invalid generated document fails construction rather than serving.
func New(registry *mcp.Registry, dispatcher *mcp.Server, opts ...Option) (*Server, error) {
	s := &Server{
		dispatcher: dispatcher,
		registry:   registry,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		heartbeat:  DefaultHeartbeatInterval,
		serverID:   newServerID(),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := buildDocument(registry.Tools())
	if err != nil {
		return nil, fmt.Errorf("generating documentation: %w", err)
	}
	s.openapi = doc

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/openapi.json", s.handleOpenAPI)
	r.Get("/docs", s.handleDocs)

	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/rpc", s.handleRPC)
		r.Get("/rpc", s.handleEvents)
		r.Post("/{tool}", s.handleToolRoute)
	})

	s.router = r
	return s, nil
}

// Router exposes the root HTTP handler
func (s *Server) Router() http.Handler { return s.router }

// ServerID reports the identifier announced on the notification channel
func (s *Server) ServerID() string { return s.serverID }

func newServerID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "serverId": s.serverID})
}

// handleRPC decodes one JSON-RPC request, dispatches it, and writes the
// response. Tool-level failures travel inside a 200 result; only
// dispatcher-level failures map to a non-2xx status.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeResponse(w, jsonrpc.NewResponse(nil, nil, jsonrpc.NewError(jsonrpc.ErrParse, err.Error())))
		return
	}

	var request jsonrpc.Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeResponse(w, jsonrpc.NewResponse(nil, nil, jsonrpc.NewError(jsonrpc.ErrParse, err.Error())))
		return
	}

	s.writeResponse(w, s.dispatcher.Handle(r.Context(), request))
}

// handleToolRoute accepts a raw argument object on POST /{tool} and
// dispatches it as a call_tool request, so the per-tool routes promised by
// the documentation surface share the dispatcher's semantics exactly.
func (s *Server) handleToolRoute(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "tool")

	var arguments map[string]any
	body, err := io.ReadAll(r.Body)
	if err == nil && len(body) > 0 {
		err = json.Unmarshal(body, &arguments)
	}
	if err != nil {
		s.writeResponse(w, jsonrpc.NewResponse(nil, nil, jsonrpc.NewError(jsonrpc.ErrParse, err.Error())))
		return
	}

	params, err := json.Marshal(mcp.CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		s.writeResponse(w, jsonrpc.NewResponse(nil, nil, jsonrpc.NewError(jsonrpc.ErrInternal, err.Error())))
		return
	}

	request := jsonrpc.NewRequest(mcp.MethodCallTool, params, nil)
	s.writeResponse(w, s.dispatcher.Handle(r.Context(), request))
}

func (s *Server) writeResponse(w http.ResponseWriter, response jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(response.Error))
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

// statusFor maps dispatcher-level errors to HTTP statuses: client mistakes
// (parse, request shape, params) are 400, an unknown method or tool is 404,
// everything else is 500. Success, including isError tool results, is 200.
func statusFor(err *jsonrpc.Error) int {
	if err == nil {
		return http.StatusOK
	}
	switch err.Code {
	case jsonrpc.ErrParse, jsonrpc.ErrInvalidRequest, jsonrpc.ErrInvalidParams:
		return http.StatusBadRequest
	case jsonrpc.ErrMethodNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleEvents opens the long-lived notification channel: a connected event
// carrying the server id, then a heartbeat on every tick until the client
// disconnects. The ticker is released on every exit path.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(event string, data any) {
		payload, err := json.Marshal(data)
		if err != nil {
			s.logger.Error("encoding event", "event", event, "error", err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
		flusher.Flush()
	}

	writeEvent("connected", map[string]string{"serverId": s.serverID})
	s.logger.Debug("notification channel opened", "serverId", s.serverID)

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("notification channel closed")
			return
		case t := <-ticker.C:
			writeEvent("heartbeat", map[string]string{"timestamp": t.UTC().Format(time.RFC3339)})
		}
	}
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.openapi)
}

func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}
