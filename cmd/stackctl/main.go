// Command stackctl deploys and manages chat-application stacks on a
// single Docker host: a postgres database, one or more Open WebUI
// frontends, and an nginx load balancer when scaling out. Container
// names, host ports and network names are resolved against the live
// host state before anything is created, and every successful deploy
// is recorded in a ledger so it can be listed and cleaned up later.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess = 0
	ExitFailure = 1
)

const usage = `Usage: stackctl [flags] <command> [args]

Commands:
  deploy <type> [id]    Deploy a stack (type: postgres, webui, scale)
  scale [id]            Deploy a multi-frontend stack behind a load balancer
  list                  List recorded deployments
  cleanup <id>          Tear down a deployment and remove its record
  help                  Show this help

Flags:
  -config <path>        Path to config file
  -version              Print version and exit

Command flags:
  deploy -template <path>        Compose-style stack template to deploy
  deploy -admin-password <pw>    Bootstrap the frontend admin account
  scale  -instances <n>          Number of frontend instances (default 2)
  cleanup -yes                   Skip the confirmation prompt
`

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("stackctl %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return ExitFailure
	}

	// Load configuration
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] configuration error: %v\n", err)
		return ExitFailure
	}

	// Setup logger
	logger := SetupLogger(cfg)

	app, err := NewApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		return ExitFailure
	}
	defer app.Close()

	ctx := context.Background()
	verb, verbArgs := args[0], args[1:]

	switch verb {
	case "deploy":
		err = app.Deploy(ctx, verbArgs)
	case "scale":
		err = app.Scale(ctx, verbArgs)
	case "list":
		err = app.List(ctx, verbArgs)
	case "cleanup":
		err = app.Cleanup(ctx, verbArgs)
	case "help":
		fmt.Print(usage)
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "[ERROR] unknown command: %s\n", verb)
		fmt.Fprint(os.Stderr, usage)
		return ExitFailure
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		return ExitFailure
	}
	return ExitSuccess
}
