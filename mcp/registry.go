package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrDuplicateTool is returned when registering a tool whose name is already
// taken. Names are the registry key and the externally addressable route
// segment, so a collision is always a programming error.
var ErrDuplicateTool = errors.New("tool already registered")

// ToolHandler is the function a tool supplies to service validated calls.
// Handlers are expected to catch their own upstream failures and report them
// through an isError result; a returned error is treated as a tool-level
// failure by the dispatcher.
type ToolHandler func(ctx context.Context, args map[string]any) (CallToolResult, error)

// ServerTool pairs a tool declaration with its handler for registration
type ServerTool struct {
	Tool    Tool
	Handler ToolHandler
}

// RegisteredTool is a registry entry: the tool declaration, its handler, and
// the input schema resolved once at registration time.
type RegisteredTool struct {
	Tool     Tool
	handler  ToolHandler
	resolved *jsonschema.Resolved
}

// ValidateArguments checks args against the tool's input schema. A nil return
// means the handler may be invoked with args as-is.
func (t *RegisteredTool) ValidateArguments(args map[string]any) *ValidationError {
	return validateArguments(t.Tool.InputSchema, t.resolved, args)
}

// Call invokes the tool's handler with already-validated arguments
func (t *RegisteredTool) Call(ctx context.Context, args map[string]any) (CallToolResult, error) {
	return t.handler(ctx, args)
}

// Registry holds every tool known to the server, keyed by unique name. It is
// populated at startup and read-only thereafter; registration is still
// mutex-guarded so concurrent setup is safe.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*RegisteredTool
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegisteredTool),
	}
}

// Register adds a tool to the registry. It fails when the name is already
// taken, when the handler is missing, or when the input schema does not
// resolve to a valid JSON Schema.
func (r *Registry) Register(tool Tool, handler ToolHandler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %q: handler must not be nil", tool.Name)
	}
	if tool.InputSchema == nil {
		return fmt.Errorf("tool %q: input schema must not be nil", tool.Name)
	}

	resolved, err := tool.InputSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("tool %q: resolving input schema: %w", tool.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("tool %q: %w", tool.Name, ErrDuplicateTool)
	}

	r.entries[tool.Name] = &RegisteredTool{
		Tool:     tool,
		handler:  handler,
		resolved: resolved,
	}
	r.order = append(r.order, tool.Name)
	return nil
}

// RegisterAll registers a batch of tools, stopping at the first failure
func (r *Registry) RegisterAll(tools []ServerTool) error {
	for _, t := range tools {
		if err := r.Register(t.Tool, t.Handler); err != nil {
			return err
		}
	}
	return nil
}

// Get looks up a tool by name
func (r *Registry) Get(name string) (*RegisteredTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.entries[name]
	return t, ok
}

// Tools returns the declarations of every registered tool in registration
// order. Handlers are never part of the projection; the result is safe to
// serialize for the list_tools method and for documentation generation.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].Tool)
	}
	return tools
}

// Len reports the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
