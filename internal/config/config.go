// Package config loads the project's .cog/config.kdl file (spec.md's
// "Configuration" ambient concern, SPEC_FULL.md §10.3), falling back to
// built-in defaults when the file is absent or a given node is omitted.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// ConfigFileName is the on-disk name of the KDL configuration file within
// a project's .cog directory.
const ConfigFileName = "config.kdl"

// Config is the fully-resolved runtime configuration: defaults overlaid
// with whatever .cog/config.kdl specifies.
type Config struct {
	Project Project
	Index   Index
	MCP     MCP
}

// Project identifies the indexed project.
type Project struct {
	Root string
	Name string
}

// Index controls what the Indexer Pipeline includes. ContextLines is read
// from config.kdl but no engine consults it: explore's default context
// comes from explore.DefaultContextLines.
type Index struct {
	Exclude      []string
	ContextLines int
}

// MCP controls the Runtime & Sync Layer's session behavior.
type MCP struct {
	BrainURL string // remote memory-proxy endpoint; empty disables the proxy tools
	DebugLog bool   // whether to open a debuglog file for this session
}

// Default returns the built-in configuration for projectRoot, used when no
// config.kdl exists.
func Default(projectRoot string) *Config {
	name := filepath.Base(projectRoot)
	return &Config{
		Project: Project{Root: projectRoot, Name: name},
		Index: Index{
			Exclude:      defaultExclusions(),
			ContextLines: 3,
		},
		MCP: MCP{},
	}
}

// Load resolves the configuration for projectRoot: it reads
// .cog/config.kdl if present, overlays it on Default's values, augments the
// exclude list with any build-artifact patterns detected from
// language-specific manifests, and deduplicates the result.
func Load(projectRoot string) (*Config, error) {
	cfg := Default(projectRoot)

	kdlPath := filepath.Join(projectRoot, ".cog", ConfigFileName)
	content, err := os.ReadFile(kdlPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Index.Exclude = dedupe(append(cfg.Index.Exclude, DetectBuildArtifacts(projectRoot)...))
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", kdlPath, err)
	}

	if err := applyKDL(cfg, string(content)); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", kdlPath, err)
	}

	cfg.Index.Exclude = dedupe(append(cfg.Index.Exclude, DetectBuildArtifacts(projectRoot)...))
	return cfg, nil
}

func applyKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return err
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "root":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.Root = resolveRoot(cfg.Project.Root, s)
					}
				case "name":
					if s, ok := firstStringArg(cn); ok {
						cfg.Project.Name = s
					}
				}
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "exclude":
					cfg.Index.Exclude = collectStringArgs(cn)
				case "context_lines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.ContextLines = v
					}
				}
			}
		case "mcp":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "brain_url":
					if s, ok := firstStringArg(cn); ok {
						cfg.MCP.BrainURL = s
					}
				case "debug_log":
					if b, ok := firstBoolArg(cn); ok {
						cfg.MCP.DebugLog = b
					}
				}
			}
		}
	}
	return nil
}

func resolveRoot(projectRoot, configured string) string {
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(projectRoot, configured))
}

func dedupe(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs supports both inline ("exclude "a" "b") and block
// ("exclude { a; b }") KDL forms, matching the two shapes seen in practice.
func collectStringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, child := range n.Children {
		if s, ok := firstStringArg(child); ok {
			out = append(out, s)
		} else if child.Name != nil {
			if s, ok := child.Name.Value.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func defaultExclusions() []string {
	return []string{
		"**/.*/**",
		"**/node_modules/**",
		"**/vendor/**",
		"**/dist/**",
		"**/build/**",
		"**/target/**",
		"**/out/**",
		"**/bin/**",
		"**/obj/**",
		"**/__pycache__/**",
		"**/*.pyc",
		"**/.cache/**",
		"**/coverage/**",
	}
}
