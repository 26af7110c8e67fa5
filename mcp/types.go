package mcp

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool describes a single callable tool: its registry name, a human-readable
// description used for documentation, and the JSON Schema its arguments must
// satisfy. The handler is deliberately not part of this projection.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// Content represents one typed block of tool output
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// NewTextContent creates a text content block
func NewTextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// NewImageContent creates an image content block from base64-encoded data
func NewImageContent(data string, mimeType string) Content {
	return Content{Type: "image", Data: data, MimeType: mimeType}
}

// CallToolResult is the envelope every tool handler produces: an ordered,
// never-empty sequence of content blocks, and an error flag distinguishing a
// tool-level failure from a successful payload.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// NewToolResultText creates a successful result with a single text block
func NewToolResultText(text string) CallToolResult {
	return CallToolResult{Content: []Content{NewTextContent(text)}}
}

// NewToolResultError creates a failed result carrying the uniform
// "Error in <tool>: <message>" description
func NewToolResultError(tool string, err error) CallToolResult {
	return CallToolResult{
		Content: []Content{NewTextContent(fmt.Sprintf("Error in %s: %v", tool, err))},
		IsError: true,
	}
}

// ToolsListResult represents the result of the list_tools method
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams represents the parameters of the call_tool method
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Resource represents a readable resource exposed by the server. No tool in
// this server defines resources; the type exists for protocol completeness.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListResourcesResult represents the result of the list_resources method
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

// ReadResourceParams represents the parameters of the read_resource method
type ReadResourceParams struct {
	URI string `json:"uri"`
}
