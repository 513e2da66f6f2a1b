// Package runtime is the Runtime & Sync Layer (spec.md §4.6): the MCP
// JSON-RPC method dispatch, the cached decoded index, write-through
// mutation sequencing, the filesystem watcher, and the remote memory
// proxy. Grounded on the teacher's internal/mcp/server.go for the
// dispatch/tool-registration shape and internal/indexing/index_locks.go
// for the lock-then-load-then-mutate-then-unlock-then-reload sequencing,
// adapted here from an in-memory RWMutex to the on-disk advisory lock
// internal/scipindex provides.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/standardbeagle/cog/internal/config"
	"github.com/standardbeagle/cog/internal/debuglog"
	"github.com/standardbeagle/cog/internal/indexer"
	"github.com/standardbeagle/cog/internal/rpc"
	"github.com/standardbeagle/cog/internal/scipindex"
)

// ProtocolVersion is the MCP protocol version this server speaks. Every
// initialize response returns this constant, whatever version the client's
// request names (spec.md §4.6.1).
const ProtocolVersion = "2024-11-05"

// ServerName and ServerVersion identify this process in initialize
// responses.
const (
	ServerName    = "cog"
	ServerVersion = "0.1.0"
)

// Server holds everything the Runtime & Sync Layer coordinates: the
// cached decoded index, the indexer pipeline used to rebuild it, the
// write-through lock/reload sequence, the watcher, and the memory proxy.
type Server struct {
	ProjectRoot  string
	CogDir       string
	Config       *config.Config
	Pipeline     *indexer.Pipeline
	DebugLogPath string

	mu    sync.Mutex
	index *scipindex.CodeIndex

	shuttingDown atomic.Bool

	memory  *MemoryProxy
	watcher *Watcher
}

// New constructs a Server rooted at projectRoot, wired to cfg and the
// given pipeline. The decoded index is not loaded until first needed
// (spec.md §4.6.3, "lazily loads the Index on first access").
func New(projectRoot string, cfg *config.Config, pipeline *indexer.Pipeline) *Server {
	s := &Server{
		ProjectRoot: projectRoot,
		CogDir:      filepath.Join(projectRoot, ".cog"),
		Config:      cfg,
		Pipeline:    pipeline,
	}
	if cfg.MCP.BrainURL != "" {
		s.memory = NewMemoryProxy(cfg.MCP.BrainURL)
	}
	return s
}

func (s *Server) indexPath() string {
	return filepath.Join(s.CogDir, scipindex.IndexFileName)
}

// Index returns the cached decoded view, loading and decoding it from
// disk on first call.
func (s *Server) Index() *scipindex.CodeIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		s.reloadLocked()
	}
	return s.index
}

// reloadLocked re-reads index.scip from disk and rebuilds the decoded
// view. Callers must hold s.mu.
func (s *Server) reloadLocked() {
	raw, _, err := scipindex.Load(s.indexPath())
	if err != nil {
		debuglog.Printf("runtime: load index failed: %v", err)
		raw = scipindex.NewEmptyIndex(s.ProjectRoot, ServerName, ServerVersion)
	}
	s.index = scipindex.Decode(raw)
}

// Reload forces the cached decoded view to be rebuilt from disk — called
// after every write-through mutation and by the watcher after it applies
// reindex/remove changes (spec.md §4.6.3 step 6).
func (s *Server) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked()
}

// StartWatcher starts the background filesystem watcher.
func (s *Server) StartWatcher() error {
	w, err := NewWatcher(s)
	if err != nil {
		return err
	}
	s.watcher = w
	return w.Start()
}

// StopWatcher stops the background watcher, if running.
func (s *Server) StopWatcher() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

// ShuttingDown reports whether shutdown has been requested.
func (s *Server) ShuttingDown() bool {
	return s.shuttingDown.Load()
}

// RequestShutdown flips the shutdown flag from outside the dispatch loop —
// used by the process's signal handler (spec.md §5: a SIGINT/SIGTERM sets
// the flag and the next poll iteration exits) so the caller's deferred
// cleanup still executes instead of the process hard-exiting mid-request.
func (s *Server) RequestShutdown() {
	s.shuttingDown.Store(true)
}

// Run drives the single-threaded cooperative JSON-RPC loop over in/out
// until the stream ends or shutdown is requested (spec.md §4.6.1, §5).
// Responses are emitted in the order requests were received and parsed;
// notifications never receive a response.
func (s *Server) Run(in io.Reader, out io.Writer) error {
	reader := rpc.NewReader(in)
	writer := rpc.NewWriter(out)

	for !s.shuttingDown.Load() {
		raw, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("runtime: read message: %w", err)
		}

		req, decodeErr := rpc.Decode(raw)
		if decodeErr != nil {
			if err := writer.Write(rpc.Response{JSONRPC: "2.0", Error: &rpc.Error{Code: rpc.ErrParse, Message: decodeErr.Error()}}); err != nil {
				return err
			}
			continue
		}

		resp, shouldRespond := s.dispatch(context.Background(), req)
		if !shouldRespond {
			continue
		}
		if err := writer.Write(resp); err != nil {
			return err
		}
	}
	return nil
}

// dispatch routes one request to its handler. The bool return reports
// whether a response should be written (false for notifications).
func (s *Server) dispatch(ctx context.Context, req rpc.Request) (rpc.Response, bool) {
	if req.IsNotification() {
		switch req.Method {
		case "notifications/initialized", "notifications/cancelled":
			// no-op, spec.md §4.6.1 / §5
		default:
			debuglog.Printf("runtime: ignoring unknown notification %s", req.Method)
		}
		return rpc.Response{}, false
	}

	switch req.Method {
	case "initialize":
		return rpc.NewResult(req, s.handleInitialize()), true
	case "shutdown":
		s.shuttingDown.Store(true)
		return rpc.NewResult(req, map[string]any{}), true
	case "exit":
		s.shuttingDown.Store(true)
		return rpc.NewResult(req, map[string]any{}), true
	case "ping":
		return rpc.NewResult(req, map[string]any{}), true
	case "tools/list":
		return rpc.NewResult(req, s.handleToolsList()), true
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "resources/list":
		return rpc.NewResult(req, s.handleResourcesList()), true
	case "resources/read":
		return s.handleResourcesRead(req)
	case "prompts/list":
		return rpc.NewResult(req, s.handlePromptsList()), true
	case "prompts/get":
		return s.handlePromptsGet(req)
	default:
		return rpc.NewError(req, rpc.ErrMethodNotFound, fmt.Sprintf("method not found: %s", req.Method)), true
	}
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (s *Server) handleInitialize() initializeResult {
	return initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		ServerInfo: serverInfo{Name: ServerName, Version: ServerVersion},
	}
}

type resourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

func (s *Server) handleResourcesList() map[string]any {
	return map[string]any{
		"resources": []resourceDescriptor{
			{URI: "cog://index/status", Name: "index/status", Description: "Current index status", MimeType: "application/json"},
			{URI: "cog://debug/tools", Name: "debug/tools", Description: "Debug subsystem tool listing", MimeType: "application/json"},
			{URI: "cog://tools/catalog", Name: "tools/catalog", Description: "Full MCP tool catalog", MimeType: "application/json"},
		},
	}
}

func (s *Server) handleResourcesRead(req rpc.Request) (rpc.Response, bool) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpc.NewError(req, rpc.ErrInvalidParams, "invalid params"), true
	}

	var payload any
	switch params.URI {
	case "cog://index/status":
		payload = s.statusPayload()
	case "cog://debug/tools":
		payload = map[string]any{"tools": []string{}}
	case "cog://tools/catalog":
		payload = s.handleToolsList()
	default:
		return rpc.NewError(req, rpc.ErrInvalidParams, fmt.Sprintf("unknown resource: %s", params.URI)), true
	}

	data, _ := json.Marshal(payload)
	return rpc.NewResult(req, map[string]any{
		"contents": []map[string]any{
			{"uri": params.URI, "mimeType": "application/json", "text": string(data)},
		},
	}), true
}

type promptDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handlePromptsList() map[string]any {
	return map[string]any{
		"prompts": []promptDescriptor{
			{Name: "cog_usage", Description: "How to use cog's code tools from an agent session"},
		},
	}
}

func (s *Server) handlePromptsGet(req rpc.Request) (rpc.Response, bool) {
	var params struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name != "cog_usage" {
		return rpc.NewError(req, rpc.ErrInvalidParams, "unknown prompt"), true
	}
	return rpc.NewResult(req, map[string]any{
		"description": "How to use cog's code tools from an agent session",
		"messages": []map[string]any{
			{
				"role": "user",
				"content": map[string]any{
					"type": "text",
					"text": "Use cog_code_query to find symbols, cog_code_explore to read a symbol's body with context, and cog_code_status to check whether the project has been indexed.",
				},
			},
		},
	}), true
}

func (s *Server) statusPayload() map[string]any {
	if _, err := os.Stat(s.indexPath()); err != nil {
		return map[string]any{"exists": false}
	}
	idx := s.Index()
	return map[string]any{
		"exists":       true,
		"path":         s.indexPath(),
		"documents":    len(idx.Raw.Documents),
		"symbols":      len(idx.SymbolToDef),
		"indexer":      ServerName,
		"project_root": s.ProjectRoot,
	}
}
