package main

import (
	"context"
	"flag"
	"fmt"
)

func runBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	projectRoot := fs.String("project-root", ".", "path to the target project")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openSession(ctx, *projectRoot)
	if err != nil {
		return err
	}
	defer s.Close()

	stats := s.Stats()
	fmt.Printf("built graph: %d files, %d edges\n", stats.FileCount, stats.EdgeCount)
	return nil
}
