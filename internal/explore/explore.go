// Package explore is the Explore Engine (spec.md §4.5): a composite
// operation layering find, disambiguation, bounded body reads with
// attached-comment detection, in-body cross-reference discovery, and a
// per-file table of contents on top of the Query Engine and Disambiguation
// Engine.
package explore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/standardbeagle/cog/internal/disambiguate"
	"github.com/standardbeagle/cog/internal/glob"
	"github.com/standardbeagle/cog/internal/query"
	"github.com/standardbeagle/cog/internal/scipindex"
	"github.com/standardbeagle/cog/internal/symbol"
)

// Limits, spec.md §4.5.
const (
	MaxQueries          = 32
	DefaultContextLines = 15
	MaxBodyLines        = 30
	maxFileReadBytes    = 10 * 1024 * 1024
	maxCommentWalkBack  = 3
)

var commentPrefixes = []string{"///", "//!", "//", "/*", "* ", "*/", "#", "@"}

// Query is one explore input: a name and optional kind filter.
type Query struct {
	Name string
	Kind string
}

// Result is one query's outcome: either an error, or a resolved body with
// its cross-references.
type Result struct {
	Name         string
	Error        string
	Symbol       string
	Path         string
	StartLine    int
	EndLine      int
	Truncated    bool
	Body         string
	CrossRefs    []string
	RetryUsed    bool
	RetryPattern string
}

// TOCEntry is one symbol listed in a file's table of contents.
type TOCEntry struct {
	Name string
	Kind string
	Line int
}

// FileTOC is the table of contents for one file touched by an explore
// call.
type FileTOC struct {
	Path    string
	Entries []TOCEntry
}

// Output is the full result of an explore call.
type Output struct {
	Results []Result
	TOCs    []FileTOC
}

// Run executes the explore algorithm over queries, reading file bodies
// relative to projectRoot. contextLines <= 0 uses DefaultContextLines.
// queries beyond MaxQueries are ignored.
func Run(idx *scipindex.CodeIndex, projectRoot string, queries []Query, contextLines int) Output {
	if contextLines <= 0 {
		contextLines = DefaultContextLines
	}
	if len(queries) > MaxQueries {
		queries = queries[:MaxQueries]
	}

	candidateLists := make([][]query.Match, len(queries))
	retryUsed := make([]bool, len(queries))
	retryPattern := make([]string, len(queries))

	for i, q := range queries {
		candidateLists[i] = query.Find(idx, q.Name, q.Kind, "")
		if len(candidateLists[i]) == 0 && !glob.IsGlob(q.Name) {
			pattern := "*" + q.Name + "*"
			retried := query.Find(idx, pattern, q.Kind, "")
			if len(retried) > 0 {
				candidateLists[i] = retried
				retryUsed[i] = true
				retryPattern[i] = pattern
			}
		}
	}

	disambiguateQueries := make([]disambiguate.Query, len(queries))
	for i, q := range queries {
		disambiguateQueries[i] = disambiguate.Query{Name: q.Name, Kind: q.Kind}
	}
	selections := disambiguate.Resolve(idx, disambiguateQueries, candidateLists)

	results := make([]Result, len(queries))
	chosenSymbols := map[string]bool{}
	tocPaths := map[string]bool{}
	var tocOrder []string

	for i, sel := range selections {
		results[i] = Result{Name: queries[i].Name, RetryUsed: retryUsed[i], RetryPattern: retryPattern[i]}

		if sel.Candidate == nil {
			results[i].Error = "Symbol not found"
			continue
		}
		cand := *sel.Candidate
		results[i].Symbol = cand.Symbol
		results[i].Path = cand.Def.Path

		if cand.Def.Path == "" {
			results[i].Error = "Symbol is external (no source file)"
			continue
		}
		chosenSymbols[cand.Symbol] = true
		if !tocPaths[cand.Def.Path] {
			tocPaths[cand.Def.Path] = true
			tocOrder = append(tocOrder, cand.Def.Path)
		}

		fillBody(idx, projectRoot, &results[i], cand, contextLines)
	}

	output := Output{Results: results}
	for _, path := range tocOrder {
		output.TOCs = append(output.TOCs, buildTOC(idx, path, chosenSymbols))
	}
	return output
}

func fillBody(idx *scipindex.CodeIndex, projectRoot string, result *Result, cand query.Match, contextLines int) {
	lines, err := readLines(filepath.Join(projectRoot, cand.Def.Path))
	if err != nil {
		result.Error = "Symbol not found"
		return
	}

	defLine := cand.Def.Line
	startLine := walkBackComments(lines, defLine)

	endLine := defLine + contextLines
	if cand.Def.EndLine > defLine {
		endLine = cand.Def.EndLine
	}

	truncated := false
	if endLine > startLine+MaxBodyLines-1 {
		endLine = startLine + MaxBodyLines - 1
		truncated = true
	}
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	var body strings.Builder
	for i := startLine; i <= endLine && i >= 0 && i < len(lines); i++ {
		body.WriteString(lines[i])
		body.WriteByte('\n')
	}

	result.StartLine = startLine
	result.EndLine = endLine
	result.Truncated = truncated
	result.Body = body.String()
	result.CrossRefs = crossReferences(idx, cand, defLine, endLine)
}

// walkBackComments walks backward from defLine up to maxCommentWalkBack
// lines, consuming lines whose first non-whitespace text starts with a
// recognized comment/attribute prefix (spec.md §4.5 step 4).
func walkBackComments(lines []string, defLine int) int {
	start := defLine
	for steps := 0; steps < maxCommentWalkBack && start > 0; steps++ {
		candidate := strings.TrimSpace(lines[start-1])
		if candidate == "" {
			break
		}
		if !hasCommentPrefix(candidate) {
			break
		}
		start--
	}
	return start
}

func hasCommentPrefix(line string) bool {
	for _, p := range commentPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// crossReferences scans cand's document for occurrences whose start line
// falls within [defLine, endLine], excluding cand's own symbol, externals,
// and duplicates, returning each referenced symbol's display name.
func crossReferences(idx *scipindex.CodeIndex, cand query.Match, defLine, endLine int) []string {
	doc, _, ok := idx.DocumentByPath(cand.Def.Path)
	if !ok {
		return nil
	}

	seen := map[string]bool{cand.Symbol: true}
	var out []string
	for _, occ := range doc.Occurrences {
		if occ.Symbol == cand.Symbol {
			continue
		}
		line := scipindex.RangeStartLine(occ.Range)
		if line < defLine || line > endLine {
			continue
		}
		if seen[occ.Symbol] {
			continue
		}
		seen[occ.Symbol] = true

		def, isKnown := idx.SymbolToDef[occ.Symbol]
		if isKnown && def.IsExternal() {
			continue
		}
		name := symbol.ShortName(occ.Symbol)
		if isKnown && def.DisplayName != "" {
			name = def.DisplayName
		}
		out = append(out, name)
	}
	return out
}

// buildTOC lists every symbol defined in path whose kind is in the fixed
// TOC kind set, excluding symbols already chosen in this explore call and
// symbols whose display name contains a space (test-case labels),
// ascending by line.
func buildTOC(idx *scipindex.CodeIndex, path string, chosen map[string]bool) FileTOC {
	doc, _, ok := idx.DocumentByPath(path)
	if !ok {
		return FileTOC{Path: path}
	}

	var entries []TOCEntry
	for _, info := range doc.Symbols {
		if chosen[info.Symbol] {
			continue
		}
		if !symbol.TOCKinds[symbol.Kind(info.Kind)] {
			continue
		}
		kindName := symbol.KindName(int32(info.Kind))
		if strings.Contains(info.DisplayName, " ") {
			continue
		}
		entries = append(entries, TOCEntry{
			Name: info.DisplayName,
			Kind: kindName,
			Line: definitionLine(doc, info.Symbol),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Line < entries[j].Line })
	return FileTOC{Path: path, Entries: entries}
}

func definitionLine(doc *scip.Document, sym string) int {
	for _, occ := range doc.Occurrences {
		if occ.Symbol != sym {
			continue
		}
		if !scipindex.HasRole(occ.SymbolRoles, scipindex.RoleDefinition) {
			continue
		}
		return scipindex.RangeStartLine(occ.Range)
	}
	return 0
}

func readLines(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileReadBytes {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf := make([]byte, maxFileReadBytes)
		n, readErr := f.Read(buf)
		if readErr != nil && n == 0 {
			return nil, readErr
		}
		return strings.Split(string(buf[:n]), "\n"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}
