// Package lang holds the language plugin registry: one plugin per source
// language, each able to detect whether a directory looks like a project
// of that language, enumerate its source files, and extract an individual
// file's raw (unresolved) import specifiers by regex. Plugins never build a
// syntax tree; import resolution against the known file set happens
// downstream in internal/graph.
package lang

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/depgraph/internal/graph"
)

// Plugin is implemented once per supported language. The method set
// mirrors spec: id, display name, extensions, project detection, source
// root discovery, package-name lookup, file discovery, and import parsing.
type Plugin interface {
	ID() graph.Language
	DisplayName() string
	FileExtensions() []string

	// DetectProject reports whether root looks like a project of this
	// language (presence of a manifest file, typically).
	DetectProject(root string) bool

	// SourceDirs returns the directories under root that this plugin
	// should walk for source files, honouring its own conventions (e.g.
	// Cargo's src/, Go's module root).
	SourceDirs(root string) []string

	// PackageName returns the project's declared package/module name, used
	// to recognise self-referential absolute imports. Empty if unknown.
	PackageName(root string) string

	// DiscoverFiles lists every source file of this language under dir,
	// walking subdirectories and pruning skipped ones.
	DiscoverFiles(dir string) []string

	// ParseImports extracts raw import specifiers from a file's content.
	// It MUST NOT error: unreadable/unparseable content yields an empty
	// list. content is the file's current text, read once by the caller.
	ParseImports(file string, content string) []graph.Import

	// ClassifyLayer optionally tags a relative path for visualisation
	// (e.g. "handler", "model"); absent ("", false) when not applicable.
	ClassifyLayer(relPath string) (string, bool)
}

// baselineSkipDirs is the registry's baseline skip set, extended by each
// plugin's own non-source conventions (vendor trees, build output).
var baselineSkipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".next":        true,
	".turbo":       true,
}

// SkipDir reports whether dirName (a single path component, not a full
// path) should be excluded from file discovery.
func SkipDir(dirName string) bool {
	if baselineSkipDirs[dirName] {
		return true
	}
	return strings.HasPrefix(dirName, ".")
}

// Registry is the fixed, process-wide list of supported plugins.
type Registry struct {
	plugins []Plugin
}

// NewRegistry returns a Registry over the fixed supported-language list.
func NewRegistry() *Registry {
	return &Registry{
		plugins: []Plugin{
			NewGoPlugin(),
			NewTypeScriptPlugin(),
			NewPythonPlugin(),
			NewRustPlugin(),
		},
	}
}

// DetectLanguages returns every plugin whose DetectProject(root) is true.
func (r *Registry) DetectLanguages(root string) []Plugin {
	var out []Plugin
	for _, p := range r.plugins {
		if p.DetectProject(root) {
			out = append(out, p)
		}
	}
	return out
}

// PluginForFile dispatches by file extension. Returns nil if no plugin
// claims the extension.
func (r *Registry) PluginForFile(path string) Plugin {
	ext := strings.ToLower(filepath.Ext(path))
	for _, p := range r.plugins {
		for _, e := range p.FileExtensions() {
			if e == ext {
				return p
			}
		}
	}
	return nil
}

// All returns every registered plugin regardless of project detection.
func (r *Registry) All() []Plugin {
	return r.plugins
}

// walkSourceFiles recursively lists every file under dir whose extension is
// in extensions, pruning baseline and plugin-specific skip directories.
// Shared by the per-language DiscoverFiles implementations.
func walkSourceFiles(dir string, extensions []string, extraSkip map[string]bool) []string {
	var out []string
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[strings.ToLower(e)] = true
	}

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable directory entries are skipped, not fatal
		}
		if d.IsDir() {
			if path != dir && (SkipDir(d.Name()) || extraSkip[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		if extSet[strings.ToLower(filepath.Ext(path))] {
			out = append(out, path)
		}
		return nil
	})
	return out
}
