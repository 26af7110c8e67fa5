package httpserver

import (
	"encoding/json"
	"fmt"

	"github.com/pb33f/libopenapi"

	"github.com/loopwork-ai/switchboard/mcp"
)

// resultSchema describes the envelope every tool responds with
var resultSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"content": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type":     map[string]any{"type": "string"},
					"text":     map[string]any{"type": "string"},
					"data":     map[string]any{"type": "string"},
					"mimeType": map[string]any{"type": "string"},
				},
				"required": []string{"type"},
			},
		},
		"isError": map[string]any{"type": "boolean"},
	},
	"required": []string{"content"},
}

// buildDocument generates an OpenAPI 3.1 document from the registry
// projection: every tool becomes a POST operation at /{name} with its input
// schema as the request body and the result envelope as the response. The
// generated bytes are parsed back through libopenapi so a malformed document
// is caught at startup instead of being served.
func buildDocument(tools []mcp.Tool) ([]byte, error) {
	paths := map[string]any{}
	for _, tool := range tools {
		schemaJSON, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %q: marshaling input schema: %w", tool.Name, err)
		}
		var inputSchema map[string]any
		if err := json.Unmarshal(schemaJSON, &inputSchema); err != nil {
			return nil, fmt.Errorf("tool %q: projecting input schema: %w", tool.Name, err)
		}

		paths["/"+tool.Name] = map[string]any{
			"post": map[string]any{
				"operationId": tool.Name,
				"summary":     tool.Description,
				"requestBody": map[string]any{
					"required": true,
					"content": map[string]any{
						"application/json": map[string]any{"schema": inputSchema},
					},
				},
				"responses": map[string]any{
					"200": map[string]any{
						"description": "Tool result envelope",
						"content": map[string]any{
							"application/json": map[string]any{"schema": resultSchema},
						},
					},
				},
			},
		}
	}

	document := map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":       "switchboard",
			"description": "Tools exposed by this server. Each tool accepts a JSON argument object on POST /{name}.",
			"version":     "1.0.0",
		},
		"paths": paths,
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}

	doc, err := libopenapi.NewDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parsing generated document: %w", err)
	}
	if _, errs := doc.BuildV3Model(); errs != nil {
		return nil, fmt.Errorf("generated document failed validation: %v", errs)
	}

	return data, nil
}

// docsPage is a minimal interactive explorer over the generated document
const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>switchboard API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/openapi.json",
      dom_id: "#swagger-ui"
    });
  </script>
</body>
</html>
`
