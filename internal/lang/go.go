package lang

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dusk-indust/depgraph/internal/graph"
)

// GoPlugin extracts imports from Go source via line-regex scanning, the
// same fallback path IDE-adjacent tooling uses when a full AST parse isn't
// worth the cost for a dependency-graph approximation.
type GoPlugin struct{}

// NewGoPlugin returns the Go language plugin.
func NewGoPlugin() *GoPlugin { return &GoPlugin{} }

func (p *GoPlugin) ID() graph.Language       { return graph.LangGo }
func (p *GoPlugin) DisplayName() string      { return "Go" }
func (p *GoPlugin) FileExtensions() []string { return []string{".go"} }

func (p *GoPlugin) DetectProject(root string) bool {
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	return err == nil
}

func (p *GoPlugin) SourceDirs(root string) []string {
	return []string{root}
}

func (p *GoPlugin) PackageName(root string) string {
	f, err := os.Open(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module"))
		}
	}
	return ""
}

var goSkipDirs = map[string]bool{"testdata": true}

func (p *GoPlugin) DiscoverFiles(dir string) []string {
	files := walkSourceFiles(dir, p.FileExtensions(), goSkipDirs)
	out := files[:0:0]
	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		out = append(out, f)
	}
	return out
}

var (
	goSingleImportRe = regexp.MustCompile(`^\s*import\s+(?:\w+\s+)?"([^"]+)"`)
	goBlockStartRe   = regexp.MustCompile(`^\s*import\s*\(`)
	goBlockLineRe    = regexp.MustCompile(`^\s*(?:\w+\s+)?"([^"]+)"`)
)

// ParseImports scans for both single-line and parenthesised import blocks.
// Once at least one import has been found, it stops at the next
// non-import, non-blank, non-comment line, since Go import declarations
// must precede all other top-level declarations.
func (p *GoPlugin) ParseImports(file string, content string) []graph.Import {
	var out []graph.Import
	inBlock := false

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if inBlock {
			if trimmed == ")" {
				inBlock = false
				continue
			}
			if m := goBlockLineRe.FindStringSubmatch(line); m != nil {
				out = append(out, graph.Import{SourceID: file, TargetID: m[1]})
			}
			continue
		}

		if m := goSingleImportRe.FindStringSubmatch(line); m != nil {
			out = append(out, graph.Import{SourceID: file, TargetID: m[1]})
			continue
		}
		if goBlockStartRe.MatchString(line) {
			inBlock = true
			continue
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "package ") {
			continue
		}
		if strings.HasPrefix(trimmed, "import") {
			continue
		}
		// First real declaration: stop scanning for more imports.
		if !inBlock && len(out) > 0 {
			break
		}
	}
	return out
}

func (p *GoPlugin) ClassifyLayer(relPath string) (string, bool) {
	switch {
	case strings.Contains(relPath, "/cmd/"):
		return "cmd", true
	case strings.Contains(relPath, "/internal/"):
		return "internal", true
	default:
		return "", false
	}
}
