//go:build cgo

package graph

import (
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuMirror is an optional persisted mirror of a Graph Store, written to
// KuzuDB for external Cypher inspection (`depgraph export --kuzu-db`). It is
// not consulted by the analyser or the updater: the Graph kept in memory by
// internal/session is always the source of truth. KuzuMirror is write-only
// from the core's perspective, trimmed to the two node/edge kinds the
// domain actually has — File nodes and IMPORTS edges.
type KuzuMirror struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// NewKuzuFileMirror opens (creating if absent) a file-based KuzuDB at
// dbPath. KuzuDB creates the leaf directory itself for new databases.
func NewKuzuFileMirror(dbPath string) (*KuzuMirror, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open file database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuMirror{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (m *KuzuMirror) Close() error {
	if m.conn != nil {
		m.conn.Close()
	}
	if m.db != nil {
		m.db.Close()
	}
	return nil
}

var mirrorDDL = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		path STRING,
		PRIMARY KEY(path)
	)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM File TO File)`,
}

// InitSchema creates the File node table and IMPORTS relationship table if
// they do not already exist.
func (m *KuzuMirror) InitSchema() error {
	for _, stmt := range mirrorDDL {
		res, err := m.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// Mirror writes every file in g as a File node and every forward edge as an
// IMPORTS relationship. It does not clear any prior contents of the
// database; callers that want a fresh mirror should point dbPath at a new
// directory or truncate it themselves before calling NewKuzuFileMirror.
func (m *KuzuMirror) Mirror(g *Graph) error {
	if err := m.InitSchema(); err != nil {
		return err
	}

	for f := range g.Files {
		if err := m.exec(
			"MERGE (f:File {path: $path})",
			map[string]any{"path": f},
		); err != nil {
			return fmt.Errorf("kuzu: mirror file %s: %w", f, err)
		}
	}

	for src, deps := range g.Forward {
		for _, dst := range deps {
			if err := m.exec(
				`MATCH (a:File {path: $src}), (b:File {path: $dst})
				 MERGE (a)-[:IMPORTS]->(b)`,
				map[string]any{"src": src, "dst": dst},
			); err != nil {
				return fmt.Errorf("kuzu: mirror edge %s->%s: %w", src, dst, err)
			}
		}
	}

	return nil
}

func (m *KuzuMirror) exec(cypher string, params map[string]any) error {
	stmt, err := m.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := m.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}
