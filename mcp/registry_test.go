package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool() (Tool, ToolHandler) {
	tool := Tool{
		Name:        "echo",
		Description: "Echoes back the given text",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"text": {Type: "string"},
			},
			Required: []string{"text"},
		},
	}
	handler := func(ctx context.Context, args map[string]any) (CallToolResult, error) {
		return NewToolResultText(args["text"].(string)), nil
	}
	return tool, handler
}

func TestRegistryRegister(t *testing.T) {
	registry := NewRegistry()
	tool, handler := echoTool()

	require.NoError(t, registry.Register(tool, handler))
	assert.Equal(t, 1, registry.Len())

	got, ok := registry.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Tool.Name)
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	registry := NewRegistry()
	tool, handler := echoTool()

	require.NoError(t, registry.Register(tool, handler))

	err := registry.Register(tool, handler)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryRejectsInvalidEntries(t *testing.T) {
	registry := NewRegistry()
	tool, handler := echoTool()

	t.Run("empty name", func(t *testing.T) {
		unnamed := tool
		unnamed.Name = ""
		assert.Error(t, registry.Register(unnamed, handler))
	})

	t.Run("nil handler", func(t *testing.T) {
		assert.Error(t, registry.Register(tool, nil))
	})

	t.Run("nil schema", func(t *testing.T) {
		unschemad := tool
		unschemad.InputSchema = nil
		assert.Error(t, registry.Register(unschemad, handler))
	})
}

func TestRegistryGetMissing(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Get("nope")
	assert.False(t, ok)
}

func TestRegistryToolsProjection(t *testing.T) {
	registry := NewRegistry()
	tool, handler := echoTool()
	require.NoError(t, registry.Register(tool, handler))

	tools := registry.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0].Name)
	assert.Equal(t, "Echoes back the given text", tools[0].Description)

	// The projection serializes name, description, and schema, never the handler
	data, err := json.Marshal(tools[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "handler")
	assert.Contains(t, string(data), `"inputSchema"`)
}

func TestRegistryToolsOrderStable(t *testing.T) {
	registry := NewRegistry()
	_, handler := echoTool()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		tool := Tool{Name: name, InputSchema: &jsonschema.Schema{Type: "object"}}
		require.NoError(t, registry.Register(tool, handler))
	}

	first := registry.Tools()
	second := registry.Tools()
	assert.Equal(t, first, second)

	names := make([]string, 0, len(first))
	for _, tool := range first {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"charlie", "alpha", "bravo"}, names)
}
