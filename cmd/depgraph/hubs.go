package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func runHubs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("hubs", flag.ContinueOnError)
	projectRoot := fs.String("project-root", ".", "path to the target project")
	topN := fs.Int("top", 10, "number of hub files to report")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openSession(ctx, *projectRoot)
	if err != nil {
		return err
	}
	defer s.Close()

	hubs := relativizeHubs(s.GraphStore(), s.GetHubFiles(*topN))
	out, err := json.MarshalIndent(hubs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal hub files: %w", err)
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}
