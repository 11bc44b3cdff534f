package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dusk-indust/depgraph/internal/export"
)

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	projectRoot := fs.String("project-root", ".", "path to the target project")
	format := fs.String("format", "mermaid", "output format: mermaid or json")
	out := fs.String("out", "", "output file path; defaults to stdout")
	kuzuDB := fs.String("kuzu-db", "", "also write a KuzuDB mirror of the graph at this path (requires cgo)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openSession(ctx, *projectRoot)
	if err != nil {
		return err
	}
	defer s.Close()

	store := s.GraphStore()
	scc := s.SCC()

	var data []byte
	switch *format {
	case "mermaid":
		data = []byte(export.GenerateMermaid(store, scc))
	case "json":
		data, err = export.MarshalJSON(export.BuildGraphExport(store, scc))
		if err != nil {
			return fmt.Errorf("marshal graph export: %w", err)
		}
	default:
		return fmt.Errorf("unknown -format %q (want mermaid or json)", *format)
	}

	if *kuzuDB != "" {
		if err := mirrorToKuzu(store, *kuzuDB); err != nil {
			return err
		}
	}

	if *out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(*out, data, 0o644)
}
