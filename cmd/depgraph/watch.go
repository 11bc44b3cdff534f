package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/depgraph/internal/update"
)

func runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	projectRoot := fs.String("project-root", ".", "path to the target project")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openSession(ctx, *projectRoot)
	if err != nil {
		return err
	}
	defer s.Close()

	unsubscribe := s.SubscribeChanges(func(event update.ChangeEvent) {
		out, err := json.Marshal(event)
		if err != nil {
			fmt.Fprintf(os.Stderr, "watch: marshal event: %v\n", err)
			return
		}
		fmt.Println(string(out))
	})
	defer unsubscribe()

	if err := s.StartWatching(); err != nil {
		return fmt.Errorf("start watching: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	return nil
}
