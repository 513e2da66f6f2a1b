package runtime

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/cog/internal/config"
	"github.com/standardbeagle/cog/internal/indexer"
	"github.com/standardbeagle/cog/internal/rpc"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".cog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	registry := indexer.Registry{".go": {Extensions: []string{".go"}, TreeSitter: indexer.GoConfig}}
	pipeline := indexer.NewPipeline(dir, registry, nil)
	cfg := config.Default(dir)
	return New(dir, cfg, pipeline)
}

func call(t *testing.T, s *Server, method string, params any) (json.RawMessage, bool) {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		require.NoError(t, err)
		raw = data
	}
	resp, ok := s.dispatch(context.Background(), reqFor(method, raw))
	if !ok {
		return nil, false
	}
	require.Nil(t, resp.Error, "unexpected error: %v", resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	return data, true
}

func reqFor(method string, params json.RawMessage) rpc.Request {
	return rpc.Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: method, Params: params}
}

func TestDispatchInitializeReportsServerInfo(t *testing.T) {
	s := testServer(t)
	raw, ok := call(t, s, "initialize", map[string]any{})
	require.True(t, ok)

	var result initializeResult
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Equal(t, ServerName, result.ServerInfo.Name)
	require.Equal(t, ProtocolVersion, result.ProtocolVersion)
}

func TestDispatchShutdownSetsShuttingDown(t *testing.T) {
	s := testServer(t)
	require.False(t, s.ShuttingDown())

	_, ok := call(t, s, "shutdown", map[string]any{})
	require.True(t, ok)
	require.True(t, s.ShuttingDown())
}

func TestDispatchUnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := testServer(t)
	resp, ok := s.dispatch(context.Background(), reqFor("bogus/method", nil))
	require.True(t, ok)
	require.NotNil(t, resp.Error)
	require.Equal(t, -32601, resp.Error.Code)
}

func TestDispatchNotificationNeverResponds(t *testing.T) {
	s := testServer(t)
	notification := rpc.Request{JSONRPC: "2.0", Method: "notifications/initialized"}
	require.True(t, notification.IsNotification())
	_, ok := s.dispatch(context.Background(), notification)
	require.False(t, ok)
}

func TestDispatchResourcesReadIndexStatus(t *testing.T) {
	s := testServer(t)
	raw, ok := call(t, s, "resources/read", map[string]any{"uri": "cog://index/status"})
	require.True(t, ok)

	var result struct {
		Contents []struct {
			Text string `json:"text"`
		} `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Len(t, result.Contents, 1)

	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &status))
	require.Equal(t, false, status["exists"])
}

func TestDispatchResourcesReadUnknownURIIsInvalidParams(t *testing.T) {
	s := testServer(t)
	resp, ok := s.dispatch(context.Background(), reqFor("resources/read", json.RawMessage(`{"uri":"cog://nope"}`)))
	require.True(t, ok)
	require.NotNil(t, resp.Error)
	require.Equal(t, -32602, resp.Error.Code)
}

func TestDispatchPromptsGetKnownPrompt(t *testing.T) {
	s := testServer(t)
	raw, ok := call(t, s, "prompts/get", map[string]any{"name": "cog_usage"})
	require.True(t, ok)
	require.Contains(t, string(raw), "cog_code_query")
}

func TestIndexLazilyLoadsOnFirstAccess(t *testing.T) {
	s := testServer(t)
	idx := s.Index()
	require.NotNil(t, idx)
	require.Equal(t, 0, len(idx.Raw.Documents))
}
