package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	tests := []struct {
		name        string
		code        ErrorCode
		wantMessage string
	}{
		{"parse error", ErrParse, "Parse error"},
		{"invalid request", ErrInvalidRequest, "Invalid Request"},
		{"method not found", ErrMethodNotFound, "Method not found"},
		{"invalid params", ErrInvalidParams, "Invalid params"},
		{"internal error", ErrInternal, "Internal error"},
		{"implementation-defined server error", ErrorCode(-32042), "Server error"},
		{"unknown code", ErrorCode(-1), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.code, nil)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.wantMessage, err.Message)
		})
	}
}

func TestIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"string id", `"abc"`},
		{"numeric id", `42`},
		{"null id", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.json), &id))

			out, err := json.Marshal(id)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(out))
		})
	}
}

func TestIDRejectsNonScalar(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &id))
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &id))
}

func TestResponseMarshalNullID(t *testing.T) {
	resp := NewResponse(nil, map[string]any{"ok": true}, nil)

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":{"ok":true},"id":null}`, string(out))
}

func TestResponseMarshalError(t *testing.T) {
	resp := NewResponse(7, nil, NewError(ErrMethodNotFound, "unknown method: nope"))

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found","data":"unknown method: nope"},"id":7}`, string(out))
}

func TestRequestUnmarshal(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"call_tool","params":{"name":"echo"},"id":1}`), &req))

	assert.Equal(t, "call_tool", req.Method)
	assert.True(t, req.ID.Equal(1))
	assert.JSONEq(t, `{"name":"echo"}`, string(req.Params))
}

func TestRequestUnmarshalNoID(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"list_tools"}`), &req))

	assert.True(t, req.ID.IsNil())
}
