package main

import (
	"context"
	"fmt"
	"os"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches to one of the subcommands below. Every subcommand takes
// its own flag.FlagSet so `-h` on a subcommand shows only flags relevant
// to it, rather than one flat global set.
func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "-version", "--version":
		fmt.Println(version)
		return nil
	case "-h", "-help", "--help":
		printUsage()
		return nil
	case "build":
		return runBuild(context.Background(), rest)
	case "impact":
		return runImpact(context.Background(), rest)
	case "hubs":
		return runHubs(context.Background(), rest)
	case "watch":
		return runWatch(context.Background(), rest)
	case "couplings":
		return runCouplings(context.Background(), rest)
	case "export":
		return runExport(context.Background(), rest)
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", cmd)
	}
}

func printUsage() {
	fmt.Println(`depgraph - file-level dependency graph, impact analysis, and change coupling

Usage:
  depgraph build      -project-root <dir>
  depgraph impact     -project-root <dir> -file <path> [-coupling]
  depgraph hubs       -project-root <dir> [-top N]
  depgraph watch      -project-root <dir>
  depgraph couplings  -project-root <dir>
  depgraph export     -project-root <dir> -format mermaid|json [-out <path>]
  depgraph -version`)
}
