package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/standardbeagle/cog/internal/debuglog"
	"github.com/standardbeagle/cog/internal/explore"
	"github.com/standardbeagle/cog/internal/query"
	"github.com/standardbeagle/cog/internal/rpc"
	"github.com/standardbeagle/cog/internal/suggest"
)

// Tool is one MCP tool descriptor, mirroring the teacher's
// internal/mcp/server.go AddTool(&mcp.Tool{...}) shape without depending
// on the MCP SDK itself (see SPEC_FULL.md §11's dropped-dependency note).
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callToolResult struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

func textResult(payload any) callToolResult {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return callToolResult{Content: []contentBlock{{Type: "text", Text: err.Error()}}, IsError: true}
	}
	return callToolResult{Content: []contentBlock{{Type: "text", Text: string(data)}}}
}

func errorResult(format string, args ...any) callToolResult {
	return callToolResult{Content: []contentBlock{{Type: "text", Text: fmt.Sprintf(format, args...)}}, IsError: true}
}

// localTools is the fixed catalog of code-intelligence and write-through
// tools this server always exposes, before the lazily-discovered
// cog_mem_* tools are appended (spec.md §4.6.1).
func localTools() []Tool {
	return []Tool{
		{
			Name:        "cog_code_query",
			Description: "Find symbols, list references, or list a file's symbols in the indexed project.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"mode": {Type: "string", Description: "find, refs, or symbols"},
					"name": {Type: "string", Description: "symbol name or glob pattern"},
					"file": {Type: "string", Description: "file path filter, exact or suffix"},
					"kind": {Type: "string", Description: "symbol kind filter"},
				},
				Required: []string{"mode"},
			},
		},
		{
			Name:        "cog_code_status",
			Description: "Report whether the project has an index and basic counts.",
			InputSchema: &jsonschema.Schema{Type: "object"},
		},
		{
			Name:        "cog_code_explore",
			Description: "Resolve a batch of symbol queries and read each one's body with surrounding context, cross-references, and a per-file table of contents.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"queries": {
						Type: "array",
						Items: &jsonschema.Schema{
							Type: "object",
							Properties: map[string]*jsonschema.Schema{
								"name": {Type: "string"},
								"kind": {Type: "string"},
							},
							Required: []string{"name"},
						},
					},
					"context_lines": {Type: "integer", Description: "lines of context after the definition, default 15"},
				},
				Required: []string{"queries"},
			},
		},
		{
			Name:        "cog_code_edit",
			Description: "Replace an exact, unique occurrence of old_text with new_text in a file, then reindex it.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"file":     {Type: "string"},
					"old_text": {Type: "string"},
					"new_text": {Type: "string"},
				},
				Required: []string{"file", "old_text", "new_text"},
			},
		},
		{
			Name:        "cog_code_create",
			Description: "Create a new file with the given content, then index it.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"file":    {Type: "string"},
					"content": {Type: "string"},
				},
				Required: []string{"file", "content"},
			},
		},
		{
			Name:        "cog_code_delete",
			Description: "Delete a file and remove its document from the index.",
			InputSchema: &jsonschema.Schema{
				Type:       "object",
				Properties: map[string]*jsonschema.Schema{"file": {Type: "string"}},
				Required:   []string{"file"},
			},
		},
		{
			Name:        "cog_code_rename",
			Description: "Move a file and reindex it at the new path.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"from": {Type: "string"},
					"to":   {Type: "string"},
				},
				Required: []string{"from", "to"},
			},
		},
		{
			Name:        "cog_debug_log_path",
			Description: "Return the path of the active debug log file, if debug logging is enabled.",
			InputSchema: &jsonschema.Schema{Type: "object"},
		},
	}
}

func (s *Server) handleToolsList() map[string]any {
	tools := append([]Tool{}, localTools()...)
	if s.memory != nil {
		remote, err := s.memory.ListTools()
		if err != nil {
			debuglog.Printf("runtime: memory tools/list failed: %v", err)
		} else {
			tools = append(tools, remote...)
		}
	}
	return map[string]any{"tools": tools}
}

func (s *Server) handleToolsCall(ctx context.Context, req rpc.Request) (rpc.Response, bool) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpc.NewError(req, rpc.ErrInvalidParams, "invalid params"), true
	}

	args := map[string]any{}
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return rpc.NewError(req, rpc.ErrInvalidParams, "invalid arguments"), true
		}
	}

	result, err := s.callTool(ctx, params.Name, args)
	if err != nil {
		return rpc.NewError(req, rpc.ErrInternal, err.Error()), true
	}
	return rpc.NewResult(req, result), true
}

func (s *Server) callTool(ctx context.Context, name string, args map[string]any) (callToolResult, error) {
	switch {
	case name == "cog_code_query":
		return s.toolCodeQuery(args), nil
	case name == "cog_code_status":
		return textResult(s.statusPayload()), nil
	case name == "cog_code_explore":
		return s.toolCodeExplore(args), nil
	case name == "cog_code_edit":
		return s.toolEdit(args), nil
	case name == "cog_code_create":
		return s.toolCreate(args), nil
	case name == "cog_code_delete":
		return s.toolDelete(args), nil
	case name == "cog_code_rename":
		return s.toolRename(args), nil
	case strings.HasPrefix(name, "cog_debug_"):
		return s.toolDebugPassthrough(name, args), nil
	case strings.HasPrefix(name, "cog_mem_"):
		if s.memory == nil {
			return errorResult("memory service is not configured"), nil
		}
		return s.memory.CallTool(ctx, name, args)
	default:
		return errorResult("unknown tool: %s", name), nil
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func (s *Server) toolCodeQuery(args map[string]any) callToolResult {
	idx := s.Index()
	mode := stringArg(args, "mode")
	name := stringArg(args, "name")
	file := stringArg(args, "file")
	kind := stringArg(args, "kind")

	switch mode {
	case "find":
		matches := query.Find(idx, name, kind, file)
		if len(matches) == 0 {
			var candidates []string
			for sym, def := range idx.SymbolToDef {
				_ = sym
				candidates = append(candidates, def.DisplayName)
			}
			return textResult(map[string]any{
				"matches":     []query.Match{},
				"suggestions": suggest.Nearest(name, candidates),
			})
		}
		return textResult(map[string]any{"matches": matches})
	case "refs":
		result, ok := query.Refs(idx, name, kind)
		if !ok {
			return errorResult("Symbol not found")
		}
		return textResult(result)
	case "symbols":
		entries, resolvedPath, ok := query.Symbols(idx, file, kind)
		if !ok {
			return errorResult("File not found in index")
		}
		return textResult(map[string]any{"file": resolvedPath, "symbols": entries})
	default:
		return errorResult("unknown mode: %s", mode)
	}
}

func (s *Server) toolCodeExplore(args map[string]any) callToolResult {
	idx := s.Index()
	contextLines := intArg(args, "context_lines", explore.DefaultContextLines)

	rawQueries, _ := args["queries"].([]any)
	queries := make([]explore.Query, 0, len(rawQueries))
	for _, rq := range rawQueries {
		m, ok := rq.(map[string]any)
		if !ok {
			continue
		}
		queries = append(queries, explore.Query{Name: stringArg(m, "name"), Kind: stringArg(m, "kind")})
	}

	out := explore.Run(idx, s.ProjectRoot, queries, contextLines)
	return textResult(out)
}

func (s *Server) toolDebugPassthrough(name string, args map[string]any) callToolResult {
	switch name {
	case "cog_debug_log_path":
		if s.DebugLogPath == "" {
			return textResult(map[string]any{"enabled": false})
		}
		return textResult(map[string]any{"enabled": true, "log_path": s.DebugLogPath})
	default:
		return errorResult("unknown debug tool: %s", name)
	}
}
