package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	cogerrors "github.com/standardbeagle/cog/internal/errors"
	"github.com/standardbeagle/cog/internal/rpc"
)

// memoryRequestTimeout bounds each synchronous HTTP call to the remote
// memory endpoint (spec.md §5, "HTTP calls to the remote memory service
// are synchronous from the main thread").
const memoryRequestTimeout = 10 * time.Second

// MemoryProxy forwards MCP tools/list and tools/call requests to a remote
// memory service over JSON-RPC-over-HTTP (spec.md §4.6.2). It is a plain
// net/http client rather than a dedicated library: a single JSON-RPC POST
// with an optional session header does not warrant one.
type MemoryProxy struct {
	baseURL string
	client  *http.Client

	mu        sync.Mutex
	sessionID string
	remoteOf  map[string]string // local cog_mem_* name -> remote tool name
}

// NewMemoryProxy constructs a proxy targeting <baseURL>/mcp.
func NewMemoryProxy(baseURL string) *MemoryProxy {
	return &MemoryProxy{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   &http.Client{Timeout: memoryRequestTimeout},
		remoteOf: map[string]string{},
	}
}

// ListTools fetches the remote tool catalog and renames each entry by
// rewriting a leading "cog_" to "cog_mem_", per spec.md §4.6.1. The
// session id returned by the remote server, if any, is persisted for
// subsequent calls.
func (m *MemoryProxy) ListTools() ([]Tool, error) {
	var raw struct {
		Tools []struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			InputSchema json.RawMessage `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := m.call(context.Background(), "tools/list", map[string]any{}, &raw); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Tool, 0, len(raw.Tools))
	for _, t := range raw.Tools {
		localName := renameTool(t.Name)
		m.remoteOf[localName] = t.Name
		out = append(out, Tool{
			Name:        localName,
			Description: renameDescription(t.Description),
		})
	}
	return out, nil
}

// renameTool rewrites a leading "cog_" to "cog_mem_"; tools without that
// prefix are namespaced under cog_mem_ verbatim.
func renameTool(remoteName string) string {
	if strings.HasPrefix(remoteName, "cog_") {
		return "cog_mem_" + strings.TrimPrefix(remoteName, "cog_")
	}
	return "cog_mem_" + remoteName
}

// renameDescription rewrites any embedded cog_xxx token reference inside a
// tool description so it matches the renamed local tool name.
func renameDescription(desc string) string {
	var out strings.Builder
	i := 0
	for i < len(desc) {
		if strings.HasPrefix(desc[i:], "cog_") && !strings.HasPrefix(desc[i:], "cog_mem_") {
			j := i + len("cog_")
			for j < len(desc) && isTokenChar(desc[j]) {
				j++
			}
			out.WriteString("cog_mem_" + desc[i+len("cog_"):j])
			i = j
			continue
		}
		out.WriteByte(desc[i])
		i++
	}
	return out.String()
}

func isTokenChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// CallTool forwards a tools/call for a cog_mem_* name to the remote
// endpoint using the recorded remote name, preserving arguments verbatim,
// and extracts the single text content block for the local caller.
func (m *MemoryProxy) CallTool(ctx context.Context, localName string, args map[string]any) (callToolResult, error) {
	m.mu.Lock()
	remoteName, ok := m.remoteOf[localName]
	m.mu.Unlock()
	if !ok {
		return callToolResult{}, fmt.Errorf("runtime: unknown remote tool %s", localName)
	}

	var raw callToolResult
	err := m.call(ctx, "tools/call", map[string]any{"name": remoteName, "arguments": args}, &raw)
	if err != nil {
		return callToolResult{}, err
	}
	for _, block := range raw.Content {
		if block.Type == "text" {
			return callToolResult{Content: []contentBlock{block}, IsError: raw.IsError}, nil
		}
	}
	return raw, nil
}

func (m *MemoryProxy) call(ctx context.Context, method string, params any, result any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return err
	}
	req := rpc.Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: method, Params: paramsJSON}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/mcp", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()
	if sessionID != "" {
		httpReq.Header.Set("Mcp-Session-Id", sessionID)
	}

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return cogerrors.NewWriteThroughError(method, err).WithType(cogerrors.ErrorTypeRemoteTransport)
	}
	defer resp.Body.Close()

	if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
		m.mu.Lock()
		m.sessionID = sid
		m.mu.Unlock()
	}

	var rpcResp rpc.Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return cogerrors.NewWriteThroughError(method, err).WithType(cogerrors.ErrorTypeRemoteTransport)
	}
	if rpcResp.Error != nil {
		return cogerrors.NewWriteThroughError(method, fmt.Errorf("%s", rpcResp.Error.Message)).WithType(cogerrors.ErrorTypeRemoteTransport)
	}

	resultJSON, err := json.Marshal(rpcResp.Result)
	if err != nil {
		return err
	}
	return json.Unmarshal(resultJSON, result)
}
