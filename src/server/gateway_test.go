package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lsp-folding/src/internal/common"
	"lsp-folding/src/internal/errors"
	"lsp-folding/src/server/folding"
	"lsp-folding/src/server/protocol"
)

func newTestGateway(t *testing.T) (*HTTPGateway, *httptest.Server) {
	t.Helper()
	g := NewHTTPGateway(GatewayConfig{Addr: "127.0.0.1:0", Outlines: testRegistry(commentProvider())})
	srv := httptest.NewServer(g.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = g.Stop()
	})
	return g, srv
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Program.cs")
	require.NoError(t, os.WriteFile(path, []byte(csharpSource), 0o644))
	return common.FilePathToURI(path)
}

func postJSONRPC(t *testing.T, srv *httptest.Server, contentType, body string) (*http.Response, rpcResponse) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/jsonrpc", contentType, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func foldBody(uri string) string {
	data, _ := json.Marshal(protocol.CreateMessage("textDocument/foldingRange", 1, foldParams(uri)))
	return string(data)
}

func TestHTTPGateway_FoldingRangeFromDisk(t *testing.T) {
	_, srv := newTestGateway(t)
	uri := writeSource(t)

	resp, decoded := postJSONRPC(t, srv, "application/json; charset=utf-8", foldBody(uri))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, decoded.Error)

	var ranges []folding.FoldingRange
	require.NoError(t, json.Unmarshal(decoded.Result, &ranges))
	require.Len(t, ranges, 2)
	assert.Equal(t, "comment", string(ranges[0].Kind))
	assert.Equal(t, "imports", string(ranges[1].Kind))

	_, err := uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestHTTPGateway_MissingFileIsEmpty(t *testing.T) {
	_, srv := newTestGateway(t)

	_, decoded := postJSONRPC(t, srv, "application/json", foldBody("file:///does/not/exist.cs"))
	require.Nil(t, decoded.Error)
	assert.JSONEq(t, `[]`, string(decoded.Result))
}

func TestHTTPGateway_handleJSONRPC_ProtocolValidation(t *testing.T) {
	_, srv := newTestGateway(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		code        int
		data        string
	}{
		{"wrong content type", "text/plain", `{"jsonrpc":"2.0"}`, errors.InvalidRequest, "Content-Type must be application/json"},
		{"invalid json", "application/json", `{invalid json}`, errors.ParseError, ""},
		{"jsonrpc version", "application/json", `{"jsonrpc":"1.0","id":5,"method":"textDocument/foldingRange"}`, errors.InvalidRequest, "jsonrpc must be 2.0"},
		{"unknown method", "application/json", `{"jsonrpc":"2.0","id":5,"method":"textDocument/hover","params":{}}`, errors.MethodNotFound, "textDocument/hover"},
		{"empty uri", "application/json", `{"jsonrpc":"2.0","id":5,"method":"textDocument/foldingRange","params":{"textDocument":{}}}`, errors.InvalidParams, ""},
		{"bad params", "application/json", `{"jsonrpc":"2.0","id":5,"method":"textDocument/foldingRange","params":[1]}`, errors.InvalidParams, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, decoded := postJSONRPC(t, srv, tt.contentType, tt.body)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			require.NotNil(t, decoded.Error)
			assert.Equal(t, tt.code, decoded.Error.Code)
			if tt.data != "" {
				assert.Contains(t, decoded.Error.Data, tt.data)
			}
		})
	}

	resp, err := http.Get(srv.URL + "/jsonrpc")
	require.NoError(t, err)
	defer resp.Body.Close()
	var decoded rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, "Invalid Request", decoded.Error.Message)
}

func TestHTTPGateway_KeepsClientRequestID(t *testing.T) {
	_, srv := newTestGateway(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestHTTPGateway_handleHealth(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, []interface{}{"csharp"}, health["outline_languages"])
}

func TestHTTPGateway_handleLanguages(t *testing.T) {
	_, srv := newTestGateway(t)

	resp, err := http.Get(srv.URL + "/languages")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var result struct {
		Languages  []string            `json:"languages"`
		Outlines   []string            `json:"outlines"`
		Extensions map[string][]string `json:"extensions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Contains(t, result.Languages, "csharp")
	assert.Equal(t, []string{"csharp"}, result.Outlines)
	assert.Contains(t, result.Extensions["csharp"], ".cs")

	post, err := http.Post(srv.URL+"/languages", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	defer post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestHTTPGateway_WebsocketSession(t *testing.T) {
	_, srv := newTestGateway(t)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/lsp", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	send := func(msg protocol.JSONRPCMessage) {
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
	}
	read := func() rpcResponse {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var r rpcResponse
		require.NoError(t, json.Unmarshal(data, &r))
		return r
	}

	send(protocol.CreateMessage("initialize", 1, map[string]any{"capabilities": map[string]any{}}))
	require.Nil(t, read().Error)
	send(protocol.CreateNotification("initialized", map[string]any{}))
	send(protocol.CreateNotification("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": "untitled:ws", "languageId": "csharp", "version": 1, "text": csharpSource},
	}))
	send(protocol.CreateMessage("textDocument/foldingRange", 2, foldParams("untitled:ws")))

	r := read()
	require.Nil(t, r.Error)
	var ranges []folding.FoldingRange
	require.NoError(t, json.Unmarshal(r.Result, &ranges))
	assert.Len(t, ranges, 2)
}

func TestHTTPGateway_StartStop(t *testing.T) {
	g := NewHTTPGateway(GatewayConfig{Addr: "127.0.0.1:0"})
	require.NoError(t, g.Start(context.Background()))
	assert.Greater(t, g.Port(), 0)
	assert.Contains(t, g.Address(), "127.0.0.1:")

	resp, err := http.Get("http://" + g.Address() + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, g.Stop())
}
