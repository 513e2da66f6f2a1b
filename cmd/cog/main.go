// Command cog is the entrypoint wiring the Document Store, Indexer
// Pipeline, Query/Disambiguation/Explore Engines, and Runtime & Sync
// Layer into a single process, grounded on the teacher's cmd/lci/main.go
// urfave/cli app shape. CLI argument parsing itself is an explicit
// spec.md non-goal (SPEC_FULL.md §11): this wraps exactly the two
// operations the spec names, `mcp` (stdio server) and `index` (one-shot
// reindex), rather than reproducing the teacher's full command surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/cog/internal/config"
	"github.com/standardbeagle/cog/internal/debuglog"
	"github.com/standardbeagle/cog/internal/indexer"
	"github.com/standardbeagle/cog/internal/runtime"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "cog",
		Usage:   "local code-intelligence MCP service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "project root directory (defaults to the current directory)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "start the MCP server on stdio",
				Action: mcpCommand,
			},
			{
				Name:   "index",
				Usage:  "reindex the project once and exit",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "pattern",
						Usage: "glob pattern to index (repeatable); defaults to **/*",
					},
				},
				Action: indexCommand,
			},
		},
		Action: func(c *cli.Context) error {
			return mcpCommand(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveRoot(c *cli.Context) (string, error) {
	root := c.String("root")
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// registry is the fixed set of built-in language backends, grounded on
// internal/indexer's tree-sitter configs; languages served by a
// standalone indexer binary are added the same way via
// indexer.ExternalBinaryConfig.
func registry() indexer.Registry {
	return indexer.Registry{
		".go": {Extensions: []string{".go"}, TreeSitter: indexer.GoConfig},
		".js": {Extensions: []string{".js"}, TreeSitter: indexer.JavaScriptConfig},
		".jsx": {Extensions: []string{".jsx"}, TreeSitter: indexer.JavaScriptConfig},
		".py": {Extensions: []string{".py"}, TreeSitter: indexer.PythonConfig},
	}
}

func mcpCommand(c *cli.Context) error {
	root, err := resolveRoot(c)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("cog: load config: %w", err)
	}

	var debugLogPath string
	if cfg.MCP.DebugLog {
		path, logErr := debuglog.InitLogFile()
		if logErr != nil {
			return fmt.Errorf("cog: init debug log: %w", logErr)
		}
		debugLogPath = path
		defer debuglog.Close()
	}

	pipeline := indexer.NewPipeline(root, registry(), cfg.Index.Exclude)
	server := runtime.New(root, cfg, pipeline)
	server.DebugLogPath = debugLogPath

	if err := server.StartWatcher(); err != nil {
		debuglog.Printf("cog: start watcher failed: %v", err)
	} else {
		defer server.StopWatcher()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		server.RequestShutdown()
	}()

	return server.Run(os.Stdin, os.Stdout)
}

func indexCommand(c *cli.Context) error {
	root, err := resolveRoot(c)
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("cog: load config: %w", err)
	}

	patterns := c.StringSlice("pattern")
	if len(patterns) == 0 {
		patterns = []string{"**/*"}
	}

	pipeline := indexer.NewPipeline(root, registry(), cfg.Index.Exclude)
	idx, err := pipeline.IndexAllAndSave(context.Background(), patterns)
	if err != nil {
		return fmt.Errorf("cog: index: %w", err)
	}

	fmt.Printf("indexed %d documents under %s\n", len(idx.Documents), root)
	return nil
}
