package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func runCouplings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("couplings", flag.ContinueOnError)
	projectRoot := fs.String("project-root", ".", "path to the target project")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openSession(ctx, *projectRoot)
	if err != nil {
		return err
	}
	defer s.Close()

	pairs := s.GetCouplings(ctx)
	out, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal couplings: %w", err)
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}
