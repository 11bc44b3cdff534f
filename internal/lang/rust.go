package lang

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dusk-indust/depgraph/internal/graph"
)

// RustPlugin extracts module references from Rust source via line-regex
// scanning over `use` and `mod` items.
type RustPlugin struct{}

// NewRustPlugin returns the Rust language plugin.
func NewRustPlugin() *RustPlugin { return &RustPlugin{} }

func (p *RustPlugin) ID() graph.Language       { return graph.LangRust }
func (p *RustPlugin) DisplayName() string      { return "Rust" }
func (p *RustPlugin) FileExtensions() []string { return []string{".rs"} }

func (p *RustPlugin) DetectProject(root string) bool {
	_, err := os.Stat(filepath.Join(root, "Cargo.toml"))
	return err == nil
}

func (p *RustPlugin) SourceDirs(root string) []string {
	if info, err := os.Stat(filepath.Join(root, "src")); err == nil && info.IsDir() {
		return []string{filepath.Join(root, "src")}
	}
	return []string{root}
}

func (p *RustPlugin) PackageName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "Cargo.toml"))
	if err != nil {
		return ""
	}
	m := cargoNameRe.FindStringSubmatch(string(data))
	if m == nil {
		return ""
	}
	return m[1]
}

var cargoNameRe = regexp.MustCompile(`(?m)^name\s*=\s*"([^"]+)"`)

func (p *RustPlugin) DiscoverFiles(dir string) []string {
	return walkSourceFiles(dir, p.FileExtensions(), nil)
}

var (
	rustUseRe = regexp.MustCompile(`(?m)^\s*use\s+((?:crate|self|super)(?:::\w+)*(?:::\{[^}]*\})?)\s*;`)
	rustModRe = regexp.MustCompile(`(?m)^\s*mod\s+(\w+)\s*;`)
)

// ParseImports handles `use crate::...`/`use self::...`/`use super::...`
// (resolution downstream drops bare external-crate `use` statements) and
// `mod name;` declarations, which reference a sibling file or directory
// module.
func (p *RustPlugin) ParseImports(file string, content string) []graph.Import {
	var out []graph.Import
	for _, m := range rustUseRe.FindAllStringSubmatch(content, -1) {
		out = append(out, graph.Import{SourceID: file, TargetID: m[1]})
	}
	for _, m := range rustModRe.FindAllStringSubmatch(content, -1) {
		out = append(out, graph.Import{SourceID: file, TargetID: "self::" + m[1]})
	}
	return out
}

func (p *RustPlugin) ClassifyLayer(relPath string) (string, bool) {
	if strings.HasSuffix(relPath, "/mod.rs") {
		return "module-root", true
	}
	return "", false
}
