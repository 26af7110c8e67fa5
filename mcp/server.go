package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/loopwork-ai/switchboard/jsonrpc"
)

// method enumerates the operations the dispatcher supports. Requests carry
// the method as a string; parsing it into a variant up front keeps the
// dispatch switch exhaustive and makes adding an operation a compile-checked
// change.
type method int

const (
	methodUnknown method = iota
	methodListTools
	methodCallTool
	methodListResources
	methodReadResource
)

// Wire-level method names
const (
	MethodListTools     = "list_tools"
	MethodCallTool      = "call_tool"
	MethodListResources = "list_resources"
	MethodReadResource  = "read_resource"
)

func parseMethod(name string) method {
	switch name {
	case MethodListTools:
		return methodListTools
	case MethodCallTool:
		return methodCallTool
	case MethodListResources:
		return methodListResources
	case MethodReadResource:
		return methodReadResource
	default:
		return methodUnknown
	}
}

// Server dispatches JSON-RPC requests to registered tools. It holds no state
// across calls beyond the registry, which is read-only at call time, so
// concurrent requests are safe, including two calls to the same tool.
type Server struct {
	registry *Registry
	logger   *slog.Logger
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithLogger sets the logger used for dispatch diagnostics
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a dispatcher over the given registry
func NewServer(registry *Registry, opts ...ServerOption) *Server {
	s := &Server{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ jsonrpc.Handler = (*Server)(nil)

// Handle processes a single JSON-RPC request and returns a response
func (s *Server) Handle(ctx context.Context, request jsonrpc.Request) jsonrpc.Response {
	switch parseMethod(request.Method) {
	case methodListTools:
		return s.handleListTools(request)
	case methodCallTool:
		return s.handleCallTool(ctx, request)
	case methodListResources:
		return s.handleListResources(request)
	case methodReadResource:
		return s.handleReadResource(request)
	default:
		s.logger.Debug("unknown method", "method", request.Method)
		return jsonrpc.NewResponse(request.ID, nil,
			jsonrpc.NewError(jsonrpc.ErrMethodNotFound, fmt.Sprintf("unknown method: %s", request.Method)))
	}
}

func (s *Server) handleListTools(request jsonrpc.Request) jsonrpc.Response {
	return jsonrpc.NewResponse(request.ID, ToolsListResult{Tools: s.registry.Tools()}, nil)
}

func (s *Server) handleCallTool(ctx context.Context, request jsonrpc.Request) (response jsonrpc.Response) {
	var params CallToolParams
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, &params); err != nil {
			return jsonrpc.NewResponse(request.ID, nil,
				jsonrpc.NewError(jsonrpc.ErrInvalidParams, err.Error()))
		}
	}
	if params.Name == "" {
		return jsonrpc.NewResponse(request.ID, nil,
			jsonrpc.NewError(jsonrpc.ErrInvalidParams, "missing tool name"))
	}

	tool, ok := s.registry.Get(params.Name)
	if !ok {
		return jsonrpc.NewResponse(request.ID, nil,
			jsonrpc.NewError(jsonrpc.ErrMethodNotFound, fmt.Sprintf("unknown tool: %s", params.Name)))
	}

	if verr := tool.ValidateArguments(params.Arguments); verr != nil {
		s.logger.Debug("invalid arguments", "tool", params.Name, "violations", verr.Violations)
		return jsonrpc.NewResponse(request.ID, nil,
			jsonrpc.NewError(jsonrpc.ErrInvalidParams, verr.Violations))
	}

	// A panicking handler is a bug, not a tool-level failure; it surfaces as
	// an internal error rather than an isError envelope.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool handler panicked", "tool", params.Name, "panic", r)
			response = jsonrpc.NewResponse(request.ID, nil,
				jsonrpc.NewError(jsonrpc.ErrInternal, fmt.Sprintf("tool %s: %v", params.Name, r)))
		}
	}()

	result, err := tool.Call(ctx, params.Arguments)
	if err != nil {
		// Handlers catch their own upstream failures; an error return is
		// still contained here so a downstream fault never becomes a
		// protocol-level failure.
		s.logger.Warn("tool handler returned error", "tool", params.Name, "error", err)
		result = NewToolResultError(params.Name, err)
	}
	if len(result.Content) == 0 {
		result.Content = []Content{NewTextContent(fmt.Sprintf("%s produced no output", params.Name))}
	}

	return jsonrpc.NewResponse(request.ID, result, nil)
}

func (s *Server) handleListResources(request jsonrpc.Request) jsonrpc.Response {
	// No tool defines resources; the method exists for protocol completeness.
	return jsonrpc.NewResponse(request.ID, ListResourcesResult{Resources: []Resource{}}, nil)
}

func (s *Server) handleReadResource(request jsonrpc.Request) jsonrpc.Response {
	var params ReadResourceParams
	if len(request.Params) > 0 {
		_ = json.Unmarshal(request.Params, &params)
	}
	return jsonrpc.NewResponse(request.ID, nil,
		jsonrpc.NewError(jsonrpc.ErrMethodNotFound, fmt.Sprintf("no such resource: %s", params.URI)))
}
