// Package brave exposes the Brave Search API as switchboard tools: web,
// news, and image search. The client owns query-string assembly and
// credential injection; every handler follows the uniform envelope policy,
// catching upstream failures locally.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/loopwork-ai/switchboard/mcp"
)

// DefaultBaseURL is the Brave Search API root
const DefaultBaseURL = "https://api.search.brave.com/res/v1"

// Config carries the credentials and base URL for the Brave Search API
type Config struct {
	APIKey  string
	BaseURL string
}

// Client is a minimal Brave Search API client
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a Brave Search client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  httpClient,
	}
}

// search issues one GET against a search endpoint and decodes the JSON body
func (c *Client) search(ctx context.Context, endpoint string, query url.Values) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return result, nil
}

// WebSearch queries the web search endpoint
func (c *Client) WebSearch(ctx context.Context, query string, count, offset int) (any, error) {
	q := url.Values{"q": {query}}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return c.search(ctx, "/web/search", q)
}

// NewsSearch queries the news search endpoint
func (c *Client) NewsSearch(ctx context.Context, query string, count int, freshness string) (any, error) {
	q := url.Values{"q": {query}}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	if freshness != "" {
		q.Set("freshness", freshness)
	}
	return c.search(ctx, "/news/search", q)
}

// ImageSearch queries the image search endpoint
func (c *Client) ImageSearch(ctx context.Context, query string, count int) (any, error) {
	q := url.Values{"q": {query}}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	return c.search(ctx, "/images/search", q)
}

// Tools returns the search tools backed by this client
func Tools(c *Client) []mcp.ServerTool {
	return []mcp.ServerTool{
		{
			Tool: mcp.Tool{
				Name:        "brave_web_search",
				Description: "Search the web with the Brave Search API. Returns titles, URLs, and snippets for matching pages.",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"query":  {Type: "string", Description: "Search terms"},
						"count":  {Type: "integer", Description: "Number of results (1-20)", Minimum: f64(1), Maximum: f64(20)},
						"offset": {Type: "integer", Description: "Pagination offset (0-9)", Minimum: f64(0), Maximum: f64(9)},
					},
					Required: []string{"query"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				result, err := c.WebSearch(ctx, stringArg(args, "query"), intArg(args, "count"), intArg(args, "offset"))
				return envelope("brave_web_search", result, err)
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "brave_news_search",
				Description: "Search recent news articles with the Brave Search API.",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"query":     {Type: "string", Description: "Search terms"},
						"count":     {Type: "integer", Description: "Number of results (1-20)", Minimum: f64(1), Maximum: f64(20)},
						"freshness": {Type: "string", Description: "Restrict to past day/week/month/year", Enum: []any{"pd", "pw", "pm", "py"}},
					},
					Required: []string{"query"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				result, err := c.NewsSearch(ctx, stringArg(args, "query"), intArg(args, "count"), stringArg(args, "freshness"))
				return envelope("brave_news_search", result, err)
			},
		},
		{
			Tool: mcp.Tool{
				Name:        "brave_image_search",
				Description: "Search images with the Brave Search API.",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"query": {Type: "string", Description: "Search terms"},
						"count": {Type: "integer", Description: "Number of results (1-20)", Minimum: f64(1), Maximum: f64(20)},
					},
					Required: []string{"query"},
				},
			},
			Handler: func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
				result, err := c.ImageSearch(ctx, stringArg(args, "query"), intArg(args, "count"))
				return envelope("brave_image_search", result, err)
			},
		},
	}
}

// envelope applies the uniform result policy: pretty-printed JSON on
// success, a contained "Error in <tool>" result on failure. The error return
// is always nil; upstream faults never escape the handler.
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
	// JSON numbers decode as float64
	if f, ok := args[key].(float64); ok {
		return int(f)
	}
	return 0
}

func f64(v float64) *float64 {
	return &v
}
