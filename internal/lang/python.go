package lang

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dusk-indust/depgraph/internal/graph"
)

// PythonPlugin extracts imports from Python source via line-regex scanning.
type PythonPlugin struct{}

// NewPythonPlugin returns the Python language plugin.
func NewPythonPlugin() *PythonPlugin { return &PythonPlugin{} }

func (p *PythonPlugin) ID() graph.Language       { return graph.LangPython }
func (p *PythonPlugin) DisplayName() string      { return "Python" }
func (p *PythonPlugin) FileExtensions() []string { return []string{".py"} }

func (p *PythonPlugin) DetectProject(root string) bool {
	for _, marker := range []string{"pyproject.toml", "setup.py", "requirements.txt"} {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			return true
		}
	}
	return false
}

func (p *PythonPlugin) SourceDirs(root string) []string {
	for _, candidate := range []string{"src"} {
		if info, err := os.Stat(filepath.Join(root, candidate)); err == nil && info.IsDir() {
			return []string{filepath.Join(root, candidate)}
		}
	}
	return []string{root}
}

// PackageName returns the project name declared in pyproject.toml's
// [project] table, best-effort line scan (no TOML library in the pack).
func (p *PythonPlugin) PackageName(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return ""
	}
	m := pyProjectNameRe.FindStringSubmatch(string(data))
	if m == nil {
		return ""
	}
	return m[1]
}

var pyProjectNameRe = regexp.MustCompile(`(?m)^name\s*=\s*"([^"]+)"`)

func (p *PythonPlugin) DiscoverFiles(dir string) []string {
	return walkSourceFiles(dir, p.FileExtensions(), nil)
}

var (
	pyImportRe     = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`)
	pyFromImportRe = regexp.MustCompile(`(?m)^\s*from\s+([.\w]+)\s+import\b`)
)

// ParseImports handles "import a.b.c" and "from .relative import x";
// each match contributes exactly one raw specifier per line.
func (p *PythonPlugin) ParseImports(file string, content string) []graph.Import {
	var out []graph.Import
	for _, m := range pyImportRe.FindAllStringSubmatch(content, -1) {
		out = append(out, graph.Import{SourceID: file, TargetID: m[1]})
	}
	for _, m := range pyFromImportRe.FindAllStringSubmatch(content, -1) {
		out = append(out, graph.Import{SourceID: file, TargetID: m[1]})
	}
	return out
}

func (p *PythonPlugin) ClassifyLayer(relPath string) (string, bool) {
	switch {
	case strings.Contains(relPath, "/models/"):
		return "model", true
	case strings.Contains(relPath, "/views/"):
		return "view", true
	case strings.HasSuffix(relPath, "/__init__.py"):
		return "package-init", true
	default:
		return "", false
	}
}
