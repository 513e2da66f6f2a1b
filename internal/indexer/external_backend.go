package indexer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/standardbeagle/cog/internal/debuglog"
	"github.com/standardbeagle/cog/internal/scipindex"
)

// externalBinaryTimeout bounds a single external-binary invocation so one
// hung subprocess can't stall an entire pipeline run.
const externalBinaryTimeout = 30 * time.Second

// indexWithExternalBinary runs cfg's command template against path,
// substituting {file} with path and {output} with a scratch SCIP file,
// then loads that file back and returns its first Document. This is the
// ExternalBinaryConfig variant of the backend tagged union (spec.md §9):
// languages with a standalone SCIP indexer (scip-python, scip-typescript,
// scip-java, ...) are wired in this way instead of through tree-sitter.
func indexWithExternalBinary(cfg *ExternalBinaryConfig, path string) (*scip.Document, error) {
	if len(cfg.CommandTemplate) == 0 {
		return nil, fmt.Errorf("indexer: empty command template for %s", path)
	}

	outFile, err := os.CreateTemp("", "cog-external-*.scip")
	if err != nil {
		return nil, fmt.Errorf("indexer: create scratch output file: %w", err)
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	args := make([]string, len(cfg.CommandTemplate))
	for i, a := range cfg.CommandTemplate {
		a = strings.ReplaceAll(a, "{file}", path)
		a = strings.ReplaceAll(a, "{output}", outPath)
		args[i] = a
	}

	ctx, cancel := context.WithTimeout(context.Background(), externalBinaryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		debuglog.Printf("indexer: external binary %s failed for %s: %v (%s)", args[0], path, runErr, strings.TrimSpace(string(output)))
		return nil, fmt.Errorf("indexer: external binary failed for %s: %w", path, runErr)
	}

	produced, _, loadErr := scipindex.Load(outPath)
	if loadErr != nil {
		return nil, fmt.Errorf("indexer: load external binary output for %s: %w", path, loadErr)
	}
	if len(produced.Documents) == 0 {
		return nil, fmt.Errorf("indexer: external binary produced no documents for %s", path)
	}

	doc := produced.Documents[0]
	doc.RelativePath = path
	return doc, nil
}
