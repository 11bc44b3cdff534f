package update

import (
	"time"

	"github.com/dusk-indust/depgraph/internal/graph"
)

// ChangeType classifies a single filesystem change as seen by the watcher.
type ChangeType string

const (
	Added    ChangeType = "Added"
	Modified ChangeType = "Modified"
	Deleted  ChangeType = "Deleted"
)

// LineDiffType classifies one entry of a ChangeEvent's line-aligned diff.
type LineDiffType string

const (
	LineAdded   LineDiffType = "Added"
	LineRemoved LineDiffType = "Removed"
	LineChanged LineDiffType = "Changed"
)

// LineDiff is one line of a line-aligned pairwise diff. Line is 1-based;
// for Added/Changed it indexes into the new content, for Removed into the
// old content.
type LineDiff struct {
	Line int          `json:"line"`
	Type LineDiffType `json:"type"`
	Old  string       `json:"old,omitempty"`
	New  string       `json:"new,omitempty"`
}

// ChangeEvent is what the watcher emits after debouncing settles and its
// own content cache has been updated.
type ChangeEvent struct {
	FilePath     graph.FileID `json:"filePath"`
	RelativePath string       `json:"relativePath,omitempty"`
	Type         ChangeType   `json:"type"`
	OldContent   string       `json:"oldContent,omitempty"`
	NewContent   string       `json:"newContent,omitempty"`
	Diff         []LineDiff   `json:"diff,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// IncrementalUpdateResult is applyFileChange's return value.
type IncrementalUpdateResult struct {
	AddedEdges    []graph.FileID `json:"addedEdges,omitempty"`
	RemovedEdges  []graph.FileID `json:"removedEdges,omitempty"`
	EdgesChanged  bool           `json:"edgesChanged"`
	AffectedFiles []graph.FileID `json:"affectedFiles,omitempty"`
}

// GraphUpdatedNotification is broadcast to subscribeGraphUpdates listeners
// after a change whose edge set was non-empty has been fully applied: the
// graph mutation, SCC recompute, and memo invalidation have all already
// happened by the time a listener sees this.
type GraphUpdatedNotification struct {
	File   graph.FileID
	Result IncrementalUpdateResult
	SCC    *graph.SCCResult
}
