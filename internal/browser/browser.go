// Package browser exposes stubbed browser-automation tools. No browser is
// driven; each handler returns a fixed simulated description of the action
// it would perform. The tools keep the registry's external surface stable
// while the real automation backend remains unimplemented.
package browser

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/loopwork-ai/switchboard/mcp"
)

// placeholderPNG is a base64-encoded 1x1 transparent PNG returned by the
// screenshot stub.
const placeholderPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// Tools returns the browser-automation stubs
func Tools() []mcp.ServerTool {
	urlSchema := &jsonschema.Schema{Type: "string", Description: "Page URL"}
	selectorSchema := &jsonschema.Schema{Type: "string", Description: "CSS selector"}

	return []mcp.ServerTool{
		{
			Tool: mcp.Tool{
				Name:        "browser_navigate",
				Description: "Navigate a browser session to a URL. Currently simulated.",
				InputSchema: &jsonschema.Schema{
					Type:       "object",
					Properties: map[string]*jsonschema.Schema{"url": urlSchema},
					Required:   []string{"url"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				return mcp.NewToolResultText(fmt.Sprintf("Simulated navigation to %s. Browser automation is not yet implemented; no page was loaded.", args["url"])), nil
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "browser_screenshot",
				Description: "Capture a screenshot of the current page. Currently simulated with a placeholder image.",
				InputSchema: &jsonschema.Schema{
					Type:       "object",
					Properties: map[string]*jsonschema.Schema{"url": urlSchema},
					Required:   []string{"url"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				return mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent(fmt.Sprintf("Simulated screenshot of %s. Browser automation is not yet implemented; a placeholder image is attached.", args["url"])),
						mcp.NewImageContent(placeholderPNG, "image/png"),
					},
				}, nil
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "browser_read",
				Description: "Read the text content of a page. Currently simulated.",
				InputSchema: &jsonschema.Schema{
					Type:       "object",
					Properties: map[string]*jsonschema.Schema{"url": urlSchema},
					Required:   []string{"url"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				return mcp.NewToolResultText(fmt.Sprintf("Simulated page read of %s. Browser automation is not yet implemented; no content was extracted.", args["url"])), nil
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "browser_click",
				Description: "Click an element identified by a CSS selector. Currently simulated.",
				InputSchema: &jsonschema.Schema{
					Type:       "object",
					Properties: map[string]*jsonschema.Schema{"selector": selectorSchema},
					Required:   []string{"selector"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				return mcp.NewToolResultText(fmt.Sprintf("Simulated click on %q. Browser automation is not yet implemented; no element was clicked.", args["selector"])), nil
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "browser_type",
				Description: "Type text into an element identified by a CSS selector. Currently simulated.",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"selector": selectorSchema,
						"text":     {Type: "string", Description: "Text to type"},
					},
					Required: []string{"selector", "text"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				return mcp.NewToolResultText(fmt.Sprintf("Simulated typing %q into %q. Browser automation is not yet implemented; no input was sent.", args["text"], args["selector"])), nil
			},
		},
	}
}
