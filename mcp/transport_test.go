package mcp

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwork-ai/switchboard/jsonrpc"
)

type mockHandler struct {
	handleFunc func(context.Context, jsonrpc.Request) jsonrpc.Response
}

func (m *mockHandler) Handle(ctx context.Context, req jsonrpc.Request) jsonrpc.Response {
	return m.handleFunc(ctx, req)
}

func TestTransportRun(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		mockResponse jsonrpc.Response
		expectedOut  []string
	}{
		{
			name:         "successful request",
			input:        `{"jsonrpc": "2.0", "method": "list_tools", "id": 1}`,
			mockResponse: jsonrpc.NewResponse(1, map[string]any{"tools": []any{}}, nil),
			expectedOut:  []string{`{"jsonrpc":"2.0","result":{"tools":[]},"id":1}`},
		},
		{
			name:        "invalid JSON request",
			input:       `{"jsonrpc": "2.0" method: invalid}`,
			expectedOut: []string{`"code":-32700`},
		},
		{
			name: "multiple requests",
			input: `{"jsonrpc": "2.0", "method": "list_tools", "id": 1}
{"jsonrpc": "2.0", "method": "list_tools", "id": 2}`,
			mockResponse: jsonrpc.NewResponse(0, "success", nil),
			expectedOut:  []string{`"result":"success"`, `"result":"success"`},
		},
		{
			name:        "empty input",
			input:       "",
			expectedOut: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &mockHandler{
				handleFunc: func(context.Context, jsonrpc.Request) jsonrpc.Response {
					return tt.mockResponse
				},
			}

			input := tt.input
			if input != "" && !strings.HasSuffix(input, "\n") {
				input += "\n"
			}

			var out, errOut bytes.Buffer
			transport := NewStdioTransport(handler, strings.NewReader(input), &out, &errOut)
			require.NoError(t, transport.Run(context.Background()))

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if tt.expectedOut == nil {
				assert.Empty(t, strings.TrimSpace(out.String()))
				return
			}
			require.Len(t, lines, len(tt.expectedOut))
			for i, want := range tt.expectedOut {
				assert.Contains(t, lines[i], want)
			}
		})
	}
}

func TestTransportRunCancelled(t *testing.T) {
	handler := &mockHandler{
		handleFunc: func(context.Context, jsonrpc.Request) jsonrpc.Response {
			return jsonrpc.NewResponse(1, "ok", nil)
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errOut bytes.Buffer
	transport := NewStdioTransport(handler, strings.NewReader(`{"jsonrpc":"2.0","method":"list_tools","id":1}`+"\n"), &out, &errOut)

	err := transport.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransportParseErrorHasNullID(t *testing.T) {
	handler := &mockHandler{
		handleFunc: func(context.Context, jsonrpc.Request) jsonrpc.Response {
			t.Fatal("handler must not run on a parse error")
			return jsonrpc.Response{}
		},
	}

	var out, errOut bytes.Buffer
	transport := NewStdioTransport(handler, strings.NewReader("not json\n"), &out, &errOut)
	require.NoError(t, transport.Run(context.Background()))

	assert.Contains(t, out.String(), `"id":null`)
	assert.Contains(t, out.String(), `"code":-32700`)
}
