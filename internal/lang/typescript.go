package lang

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/dusk-indust/depgraph/internal/graph"
)

// TypeScriptPlugin covers TypeScript and JavaScript; both share an import
// grammar, so one plugin handles all four extensions.
type TypeScriptPlugin struct {
	aliases *aliasCache
}

// NewTypeScriptPlugin returns the TypeScript/JavaScript language plugin.
func NewTypeScriptPlugin() *TypeScriptPlugin {
	return &TypeScriptPlugin{aliases: newAliasCache()}
}

func (p *TypeScriptPlugin) ID() graph.Language       { return graph.LangTypeScript }
func (p *TypeScriptPlugin) DisplayName() string      { return "TypeScript" }
func (p *TypeScriptPlugin) FileExtensions() []string { return []string{".ts", ".tsx", ".js", ".jsx"} }

func (p *TypeScriptPlugin) DetectProject(root string) bool {
	_, err := os.Stat(filepath.Join(root, "package.json"))
	return err == nil
}

func (p *TypeScriptPlugin) SourceDirs(root string) []string {
	for _, candidate := range []string{"src", "app", "lib"} {
		if info, err := os.Stat(filepath.Join(root, candidate)); err == nil && info.IsDir() {
			return []string{filepath.Join(root, candidate)}
		}
	}
	return []string{root}
}

func (p *TypeScriptPlugin) PackageName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return ""
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return pkg.Name
}

var tsExtraSkip = map[string]bool{"coverage": true}

func (p *TypeScriptPlugin) DiscoverFiles(dir string) []string {
	files := walkSourceFiles(dir, p.FileExtensions(), tsExtraSkip)
	out := files[:0:0]
	for _, f := range files {
		if strings.HasSuffix(f, ".d.ts") {
			continue // declaration-only files carry no resolvable imports
		}
		if strings.Contains(f, ".min.") {
			continue // minified bundles
		}
		if strings.HasSuffix(f, ".test.ts") || strings.HasSuffix(f, ".spec.ts") {
			continue
		}
		out = append(out, f)
	}
	return out
}

var (
	tsImportFromRe  = regexp.MustCompile(`import\s+(?:type\s+)?(?:[\w*${}\s,]+\s+from\s+)?['"]([^'"]+)['"]`)
	tsRequireRe     = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	tsDynamicImport = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
	tsExportFromRe  = regexp.MustCompile(`export\s+(?:\*|\{[^}]*\})\s+from\s+['"]([^'"]+)['"]`)
)

// ParseImports scans for ES module imports, export-from re-exports,
// CommonJS require(), and dynamic import(); each pattern is applied
// independently since a file may mix styles.
func (p *TypeScriptPlugin) ParseImports(file string, content string) []graph.Import {
	var out []graph.Import
	for _, re := range []*regexp.Regexp{tsImportFromRe, tsExportFromRe, tsRequireRe, tsDynamicImport} {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			out = append(out, graph.Import{SourceID: file, TargetID: m[1]})
		}
	}
	return out
}

func (p *TypeScriptPlugin) ClassifyLayer(relPath string) (string, bool) {
	switch {
	case strings.Contains(relPath, "/components/"):
		return "component", true
	case strings.Contains(relPath, "/hooks/"):
		return "hook", true
	case strings.Contains(relPath, "/pages/") || strings.Contains(relPath, "/routes/"):
		return "route", true
	default:
		return "", false
	}
}

// tsconfigPaths is the subset of tsconfig.json this plugin understands.
type tsconfigPaths struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// aliasCache caches a parsed tsconfig path-alias map keyed by project root
// until explicitly cleared on graph rebuild (spec §4.A).
type aliasCache struct {
	mu      sync.Mutex
	entries map[string]map[string][]string
}

func newAliasCache() *aliasCache {
	return &aliasCache{entries: make(map[string]map[string][]string)}
}

// Clear drops every cached entry; called on rebuildGraph.
func (c *aliasCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]map[string][]string)
}

// Load returns the alias map for root, parsing and caching tsconfig.json on
// first use. A malformed tsconfig.json yields an empty map rather than an
// error (spec's MalformedConfig kind).
func (c *aliasCache) Load(root string) map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.entries[root]; ok {
		return m
	}

	m := map[string][]string{}
	data, err := os.ReadFile(filepath.Join(root, "tsconfig.json"))
	if err == nil {
		var cfg tsconfigPaths
		if err := json.Unmarshal(data, &cfg); err == nil {
			m = cfg.CompilerOptions.Paths
		}
	}
	c.entries[root] = m
	return m
}

// RewriteAlias rewrites spec against tsconfig.json's compilerOptions.paths,
// returning a baseUrl-relative path on a match. build.go consults this
// (via the graph.AliasRewriter interface) before handing the specifier to
// the Resolver, since Resolver itself has no tsconfig awareness.
func (p *TypeScriptPlugin) RewriteAlias(root, spec string) (string, bool) {
	for pattern, targets := range p.aliases.Load(root) {
		if len(targets) == 0 {
			continue
		}
		if strings.HasSuffix(pattern, "*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if !strings.HasPrefix(spec, prefix) {
				continue
			}
			suffix := strings.TrimPrefix(spec, prefix)
			return strings.TrimSuffix(targets[0], "*") + suffix, true
		}
		if pattern == spec {
			return targets[0], true
		}
	}
	return "", false
}

// ClearAliasCache drops cached tsconfig.json parses; called on rebuildGraph.
func (p *TypeScriptPlugin) ClearAliasCache() { p.aliases.Clear() }
