package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenameToolRewritesLeadingPrefix(t *testing.T) {
	require.Equal(t, "cog_mem_search", renameTool("cog_search"))
	require.Equal(t, "cog_mem_other", renameTool("other"))
}

func TestRenameDescriptionRewritesEmbeddedTokens(t *testing.T) {
	desc := "Use cog_search to find things, unlike cog_mem_status which is already local."
	got := renameDescription(desc)
	require.Equal(t, "Use cog_mem_search to find things, unlike cog_mem_status which is already local.", got)
}

func newMemoryTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestListToolsRenamesAndRecordsSessionID(t *testing.T) {
	srv := newMemoryTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Mcp-Session-Id", "sess-123")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      json.RawMessage("1"),
			"result": map[string]any{
				"tools": []map[string]any{
					{"name": "cog_search", "description": "search with cog_search"},
				},
			},
		})
	})

	m := NewMemoryProxy(srv.URL)
	tools, err := m.ListTools()
	require.NoError(t, err)
	require.Len(t, tools, 1)
	require.Equal(t, "cog_mem_search", tools[0].Name)
	require.Equal(t, "search with cog_mem_search", tools[0].Description)

	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()
	require.Equal(t, "sess-123", sessionID)
}

func TestCallToolForwardsToRecordedRemoteName(t *testing.T) {
	var capturedBody map[string]any
	srv := newMemoryTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      json.RawMessage("1"),
			"result": map[string]any{
				"content": []map[string]any{{"type": "text", "text": "ok"}},
			},
		})
	})

	m := NewMemoryProxy(srv.URL)
	_, err := m.ListTools()
	require.NoError(t, err)

	result, err := m.CallTool(context.Background(), "cog_mem_search", map[string]any{"q": "x"})
	require.NoError(t, err)
	require.Equal(t, "ok", result.Content[0].Text)

	params, ok := capturedBody["params"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "cog_search", params["name"])
}

func TestCallToolUnknownLocalNameErrors(t *testing.T) {
	m := NewMemoryProxy("http://example.invalid")
	_, err := m.CallTool(context.Background(), "cog_mem_unknown", map[string]any{})
	require.Error(t, err)
}
