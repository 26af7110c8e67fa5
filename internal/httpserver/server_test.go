package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwork-ai/switchboard/mcp"
)

func newTestShell(t *testing.T, opts ...Option) *Server {
	t.Helper()

	registry := mcp.NewRegistry()
	require.NoError(t, registry.Register(mcp.Tool{
		Name:        "echo",
		Description: "Echoes back the given text",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"text": {Type: "string"},
			},
			Required: []string{"text"},
		},
	}, func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
		return mcp.NewToolResultText(args["text"].(string)), nil
	}))
	require.NoError(t, registry.Register(mcp.Tool{
		Name:        "flaky",
		Description: "Always fails at the tool level",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
		return mcp.CallToolResult{}, errors.New("upstream unavailable")
	}))
	require.NoError(t, registry.Register(mcp.Tool{
		Name:        "buggy",
		Description: "Panics when called",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(ctx context.Context, args map[string]any) (mcp.CallToolResult, error) {
		panic("boom")
	}))

	dispatcher := mcp.NewServer(registry)
	shell, err := New(registry, dispatcher, opts...)
	require.NoError(t, err)
	return shell
}

func postRPC(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(ts.URL+"/rpc", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestRPCListTools(t *testing.T) {
	ts := httptest.NewServer(newTestShell(t).Router())
	defer ts.Close()

	resp, body := postRPC(t, ts, `{"jsonrpc":"2.0","method":"list_tools","id":1}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	result := body["result"].(map[string]any)
	assert.Len(t, result["tools"], 3)
}

func TestRPCCallTool(t *testing.T) {
	ts := httptest.NewServer(newTestShell(t).Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/rpc", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","method":"call_tool","params":{"name":"echo","arguments":{"text":"hi"}}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"result":{"content":[{"type":"text","text":"hi"}]}}`, string(raw))
}

func TestRPCStatusMapping(t *testing.T) {
	ts := httptest.NewServer(newTestShell(t).Router())
	defer ts.Close()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   float64
	}{
		{
			name:       "unknown method",
			body:       `{"jsonrpc":"2.0","method":"nope","id":1}`,
			wantStatus: http.StatusNotFound,
			wantCode:   -32601,
		},
		{
			name:       "unknown tool",
			body:       `{"jsonrpc":"2.0","method":"call_tool","params":{"name":"nope"},"id":1}`,
			wantStatus: http.StatusNotFound,
			wantCode:   -32601,
		},
		{
			name:       "invalid params",
			body:       `{"jsonrpc":"2.0","method":"call_tool","params":{"name":"echo","arguments":{}},"id":1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   -32602,
		},
		{
			name:       "parse error",
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
			wantCode:   -32700,
		},
		{
			name:       "internal error from panicking tool",
			body:       `{"jsonrpc":"2.0","method":"call_tool","params":{"name":"buggy"},"id":1}`,
			wantStatus: http.StatusInternalServerError,
			wantCode:   -32603,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postRPC(t, ts, tt.body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			rpcErr := body["error"].(map[string]any)
			assert.Equal(t, tt.wantCode, rpcErr["code"])
		})
	}
}

func TestRPCToolFailureStays200(t *testing.T) {
	ts := httptest.NewServer(newTestShell(t).Router())
	defer ts.Close()

	resp, body := postRPC(t, ts, `{"jsonrpc":"2.0","method":"call_tool","params":{"name":"flaky"},"id":1}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := body["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	content := result["content"].([]any)
	block := content[0].(map[string]any)
	assert.Contains(t, block["text"], "Error in flaky:")
}

func TestToolRoute(t *testing.T) {
	ts := httptest.NewServer(newTestShell(t).Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/echo", "application/json", strings.NewReader(`{"text":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"result":{"content":[{"type":"text","text":"hi"}]}}`, string(raw))
}

func TestToolRouteUnknownTool(t *testing.T) {
	ts := httptest.NewServer(newTestShell(t).Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/nope", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuth(t *testing.T) {
	ts := httptest.NewServer(newTestShell(t, WithToken("secret")).Router())
	defer ts.Close()

	t.Run("missing token", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/rpc", "application/json",
			strings.NewReader(`{"jsonrpc":"2.0","method":"list_tools","id":1}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/rpc",
			strings.NewReader(`{"jsonrpc":"2.0","method":"list_tools","id":1}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer secret")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("health stays open", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestHealth(t *testing.T) {
	shell := newTestShell(t)
	ts := httptest.NewServer(shell.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, shell.ServerID(), body["serverId"])
}

func TestOpenAPIDocument(t *testing.T) {
	ts := httptest.NewServer(newTestShell(t).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/openapi.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "3.1.0", doc["openapi"])

	paths := doc["paths"].(map[string]any)
	for _, name := range []string{"/echo", "/flaky", "/buggy"} {
		assert.Contains(t, paths, name)
	}
}

func TestDocsPage(t *testing.T) {
	ts := httptest.NewServer(newTestShell(t).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/docs")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(raw), "/openapi.json")
}

// readEvent consumes one SSE event (name and data line) from the stream
func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()

	var event, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && event != "":
			return event, data
		}
	}
}

func TestNotificationChannel(t *testing.T) {
	shell := newTestShell(t, WithHeartbeatInterval(20*time.Millisecond))
	ts := httptest.NewServer(shell.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/rpc", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	event, data := readEvent(t, reader)
	assert.Equal(t, "connected", event)
	var connected map[string]string
	require.NoError(t, json.Unmarshal([]byte(data), &connected))
	assert.Equal(t, shell.ServerID(), connected["serverId"])
	assert.NotEmpty(t, connected["serverId"])

	event, data = readEvent(t, reader)
	assert.Equal(t, "heartbeat", event)
	assert.Contains(t, data, "timestamp")

	// Once the client aborts, the stream ends; no further events arrive
	cancel()
	_, err = io.ReadAll(reader)
	assert.Error(t, err)
}

func TestServerIDStable(t *testing.T) {
	shell := newTestShell(t)
	assert.Equal(t, shell.ServerID(), shell.ServerID())
	assert.NotEmpty(t, shell.ServerID())
}

func TestBuildDocumentRejectsNothing(t *testing.T) {
	// An empty registry still yields a valid document
	registry := mcp.NewRegistry()
	dispatcher := mcp.NewServer(registry)
	shell, err := New(registry, dispatcher)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(shell.openapi, &doc))
	assert.Equal(t, "3.1.0", doc["openapi"])
}
