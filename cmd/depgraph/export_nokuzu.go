//go:build !cgo

package main

import (
	"fmt"

	"github.com/dusk-indust/depgraph/internal/graph"
)

func mirrorToKuzu(store *graph.Store, dbPath string) error {
	return fmt.Errorf("-kuzu-db requires a cgo-enabled build")
}
