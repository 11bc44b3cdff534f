//go:build cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/depgraph/internal/graph"
)

func mirrorToKuzu(store *graph.Store, dbPath string) error {
	mirror, err := graph.NewKuzuFileMirror(dbPath)
	if err != nil {
		return fmt.Errorf("open kuzu mirror: %w", err)
	}
	defer mirror.Close()

	var mirrorErr error
	store.View(func(g *graph.Graph) {
		mirrorErr = mirror.Mirror(g)
	})
	if mirrorErr != nil {
		return fmt.Errorf("mirror graph to kuzu: %w", mirrorErr)
	}
	return nil
}
