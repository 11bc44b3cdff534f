package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dusk-indust/depgraph/internal/impact"
)

func runImpact(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("impact", flag.ContinueOnError)
	projectRoot := fs.String("project-root", ".", "path to the target project")
	file := fs.String("file", "", "file to analyse, relative to project-root")
	coupling := fs.Bool("coupling", false, "augment with change-coupling hints")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("usage: depgraph impact -project-root <dir> -file <path> [-coupling]")
	}

	s, err := openSession(ctx, *projectRoot)
	if err != nil {
		return err
	}
	defer s.Close()

	f := resolveFileID(*projectRoot, *file)
	result, err := s.AnalyseImpact(f, *coupling)
	if err != nil {
		var notInGraph *impact.FileNotInGraphError
		if errors.As(err, &notInGraph) {
			return fmt.Errorf("%s is not in the graph", *file)
		}
		return err
	}

	out, err := json.MarshalIndent(relativizeResult(s.GraphStore(), result), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal impact result: %w", err)
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}
