// Package database exposes a managed database's REST interface as
// switchboard tools: row-level query, insert, update, and delete against
// named tables, plus raw SQL execution through the service's RPC endpoint.
// Filters follow the column=eq.value convention of the upstream service.
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/loopwork-ai/switchboard/mcp"
)

// Config carries the base URL and service credentials of the database's
// REST interface
type Config struct {
	URL    string
	APIKey string
}

// Client is a minimal client for the database REST interface
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a database REST client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}
}

// do issues one request against the REST interface and decodes the response
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (any, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}

	if len(data) == 0 {
		return map[string]any{"status": resp.StatusCode}, nil
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return result, nil
}

// filterQuery encodes equality filters as column=eq.value query parameters
func filterQuery(filters map[string]any) url.Values {
	q := url.Values{}
	for column, value := range filters {
		q.Set(column, "eq."+fmt.Sprint(value))
	}
	return q
}

// Select reads rows from a table
func (c *Client) Select(ctx context.Context, table string, columns []string, filters map[string]any, limit int) (any, error) {
	q := filterQuery(filters)
	if len(columns) > 0 {
		q.Set("select", strings.Join(columns, ","))
	} else {
		q.Set("select", "*")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.do(ctx, http.MethodGet, "/"+table, q, nil)
}

// Insert adds rows to a table
func (c *Client) Insert(ctx context.Context, table string, rows any) (any, error) {
	return c.do(ctx, http.MethodPost, "/"+table, nil, rows)
}

// Update modifies the rows a filter matches
func (c *Client) Update(ctx context.Context, table string, values, filters map[string]any) (any, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("refusing to update without filters")
	}
	return c.do(ctx, http.MethodPatch, "/"+table, filterQuery(filters), values)
}

// Delete removes the rows a filter matches
func (c *Client) Delete(ctx context.Context, table string, filters map[string]any) (any, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("refusing to delete without filters")
	}
	return c.do(ctx, http.MethodDelete, "/"+table, filterQuery(filters), nil)
}

// Execute runs a raw SQL statement through the service's RPC endpoint
func (c *Client) Execute(ctx context.Context, sql string) (any, error) {
	return c.do(ctx, http.MethodPost, "/rpc/execute_sql", nil, map[string]any{"query": sql})
}

// Tools returns the database tools backed by this client
func Tools(c *Client) []mcp.ServerTool {
	tableSchema := &jsonschema.Schema{Type: "string", Description: "Table name", Pattern: "^[A-Za-z_][A-Za-z0-9_]*$"}
	filtersSchema := &jsonschema.Schema{Type: "object", Description: "Equality filters, column name to value"}

	return []mcp.ServerTool{
		{
			Tool: mcp.Tool{
				Name:        "database_query",
				Description: "Read rows from a table, optionally projecting columns and applying equality filters.",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"table":   tableSchema,
						"columns": {Type: "array", Description: "Columns to return; all when omitted", Items: &jsonschema.Schema{Type: "string"}},
						"filters": filtersSchema,
						"limit":   {Type: "integer", Description: "Maximum rows to return", Minimum: f64(1)},
					},
					Required: []string{"table"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				result, err := c.Select(ctx, stringArg(args, "table"), stringsArg(args, "columns"), objectArg(args, "filters"), intArg(args, "limit"))
				return envelope("database_query", result, err)
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "database_insert",
				Description: "Insert one or more rows into a table.",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"table": tableSchema,
						"rows":  {Type: "array", Description: "Rows to insert", Items: &jsonschema.Schema{Type: "object"}},
					},
					Required: []string{"table", "rows"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				result, err := c.Insert(ctx, stringArg(args, "table"), args["rows"])
				return envelope("database_insert", result, err)
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "database_update",
				Description: "Update the rows matching equality filters. Filters are required to guard against full-table updates.",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"table":   tableSchema,
						"values":  {Type: "object", Description: "Column values to set"},
						"filters": filtersSchema,
					},
					Required: []string{"table", "values", "filters"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				result, err := c.Update(ctx, stringArg(args, "table"), objectArg(args, "values"), objectArg(args, "filters"))
				return envelope("database_update", result, err)
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "database_delete",
				Description: "Delete the rows matching equality filters. Filters are required to guard against full-table deletes.",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"table":   tableSchema,
						"filters": filtersSchema,
					},
					Required: []string{"table", "filters"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				result, err := c.Delete(ctx, stringArg(args, "table"), objectArg(args, "filters"))
				return envelope("database_delete", result, err)
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "database_execute",
				Description: "Execute a raw SQL statement through the service's RPC endpoint.",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"sql": {Type: "string", Description: "SQL statement to execute"},
					},
					Required: []string{"sql"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				result, err := c.Execute(ctx, stringArg(args, "sql"))
				return envelope("database_execute", result, err)
			},
		},
	}
}

func envelope(tool string, result any, err error) (mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(tool, err), nil
	}
	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(tool, err), nil
	}
	return mcp.NewToolResultText(string(pretty)), nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	if f, ok := args[key].(float64); ok {
		return int(f)
	}
	return 0
}

func objectArg(args map[string]any, key string) map[string]any {
	m, _ := args[key].(map[string]any)
	return m
}

func stringsArg(args map[string]any, key string) []string {
	raw, _ := args[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func f64(v float64) *float64 {
	return &v
}
