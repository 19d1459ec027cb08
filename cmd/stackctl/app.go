package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/runai/stackctl/internal/core/allocate"
	"github.com/runai/stackctl/internal/core/compose"
	"github.com/runai/stackctl/internal/core/domain"
	"github.com/runai/stackctl/internal/core/stack"
	"github.com/runai/stackctl/internal/shell/configdir"
	"github.com/runai/stackctl/internal/shell/inventory"
	"github.com/runai/stackctl/internal/shell/ledger"
	"github.com/runai/stackctl/internal/shell/orchestrator"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrUnknownBackend    = errors.New("unknown ledger backend")
	ErrDeploymentMissing = errors.New("deployment not found in ledger")
	ErrDeclined          = errors.New("cleanup declined by operator")
)

// =============================================================================
// App
// =============================================================================

// App wires the ledger, config directory and Docker daemon behind the
// CLI verbs. The orchestrator is created per command so read-only verbs
// work without a reachable daemon.
type App struct {
	cfg       *Config
	logger    *slog.Logger
	ledger    ledger.Ledger
	configDir configdir.Dir

	// sockets are the port inventory sources, swappable for tests.
	sockets []inventory.SocketSource

	// stdin/stdout are swappable for tests.
	stdin  io.Reader
	stdout io.Writer
}

// NewApp opens the configured ledger backend and the config directory.
func NewApp(cfg *Config, logger *slog.Logger) (*App, error) {
	var (
		led ledger.Ledger
		err error
	)
	switch cfg.Ledger.Backend {
	case "file":
		led, err = ledger.NewFileLedger(cfg.Ledger.Path)
	case "sqlite":
		led, err = ledger.NewSQLiteLedger(cfg.Ledger.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Ledger.Backend)
	}
	if err != nil {
		return nil, err
	}

	dir, err := configdir.New(cfg.Ledger.ConfigDir)
	if err != nil {
		led.Close()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		ledger:    led,
		configDir: dir,
		sockets:   []inventory.SocketSource{inventory.ProcfsSockets{}, inventory.SSSockets{}},
		stdin:     os.Stdin,
		stdout:    os.Stdout,
	}, nil
}

// Close releases the ledger backend.
func (a *App) Close() error {
	return a.ledger.Close()
}

// =============================================================================
// deploy
// =============================================================================

// Deploy resolves, materializes, runs and records a new stack.
func (a *App) Deploy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ContinueOnError)
	templatePath := fs.String("template", "", "Compose-style stack template to deploy")
	adminPassword := fs.String("admin-password", "", "Bootstrap the frontend admin account")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *templatePath != "" {
		return a.deployTemplate(ctx, *templatePath, fs.Args())
	}

	rest := fs.Args()
	if len(rest) < 1 {
		return fmt.Errorf("deploy: missing stack type (postgres, webui, scale)")
	}
	stackType, err := stack.ParseStackType(rest[0])
	if err != nil {
		return fmt.Errorf("deploy: %w: %q", err, rest[0])
	}

	now := time.Now()
	deploymentID := domain.NewDeploymentID(now)
	if len(rest) > 1 {
		deploymentID = rest[1]
	}

	inv, err := a.snapshotInventory(ctx)
	if err != nil {
		return err
	}

	cfg, err := stack.Plan(stack.PlanParams{
		DeploymentID:  deploymentID,
		Type:          stackType,
		Instances:     2,
		AdminPassword: *adminPassword,
		Defaults:      a.cfg.Stack.Defaults(),
		Inventory:     *inv,
		Now:           now,
	})
	if err != nil {
		return err
	}

	plans := stack.BuildContainerPlans(cfg, a.cfg.Stack.Defaults())
	return a.execute(ctx, cfg, plans)
}

// Scale deploys a multi-frontend stack behind a load balancer.
func (a *App) Scale(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scale", flag.ContinueOnError)
	instances := fs.Int("instances", 2, "Number of frontend instances")
	adminPassword := fs.String("admin-password", "", "Bootstrap the frontend admin account")
	if err := fs.Parse(args); err != nil {
		return err
	}

	now := time.Now()
	deploymentID := domain.NewDeploymentID(now)
	if rest := fs.Args(); len(rest) > 0 {
		deploymentID = rest[0]
	}

	inv, err := a.snapshotInventory(ctx)
	if err != nil {
		return err
	}

	cfg, err := stack.Plan(stack.PlanParams{
		DeploymentID:  deploymentID,
		Type:          stack.TypeScale,
		Instances:     *instances,
		AdminPassword: *adminPassword,
		Defaults:      a.cfg.Stack.Defaults(),
		Inventory:     *inv,
		Now:           now,
	})
	if err != nil {
		return err
	}

	plans := stack.BuildContainerPlans(cfg, a.cfg.Stack.Defaults())
	return a.execute(ctx, cfg, plans)
}

// deployTemplate plans and runs a stack described by a compose-style
// template file instead of the built-in definitions.
func (a *App) deployTemplate(ctx context.Context, path string, rest []string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("deploy: read template: %w", err)
	}
	tpl, err := compose.ParseTemplate(string(content))
	if err != nil {
		return fmt.Errorf("deploy: %w", err)
	}

	now := time.Now()
	deploymentID := domain.NewDeploymentID(now)
	if len(rest) > 0 {
		deploymentID = rest[0]
	}

	inv, err := a.snapshotInventory(ctx)
	if err != nil {
		return err
	}

	plan, err := stack.PlanTemplate(deploymentID, tpl, a.cfg.Stack.Defaults(), *inv, now)
	if err != nil {
		return err
	}

	return a.execute(ctx, plan.Config, plan.Plans)
}

// execute is the shared tail of every deploy: write the config file,
// run the plans, wait for the database, record the deployment. A failed
// run leaves already-created resources in place; nothing is retried.
func (a *App) execute(ctx context.Context, cfg *domain.DeploymentConfig, plans []stack.ContainerPlan) error {
	configPath, err := a.configDir.Write(cfg)
	if err != nil {
		return err
	}
	a.logger.Info("config materialized", "deployment", cfg.ID, "path", configPath)

	orch, err := orchestrator.New(a.cfg.Docker.Host, a.logger)
	if err != nil {
		return err
	}
	defer orch.Close()

	if err := orch.Ping(ctx); err != nil {
		return err
	}
	if err := orch.Deploy(ctx, cfg.Network, plans); err != nil {
		return err
	}

	if cfg.Postgres.HostPort != 0 {
		if err := orchestrator.WaitReady(ctx, cfg.Postgres.HostPort, a.cfg.Probe.Timeout); err != nil {
			return err
		}
	}

	err = a.ledger.Append(ctx, domain.LedgerEntry{
		DeploymentID: cfg.ID,
		ConfigPath:   configPath,
		CreatedAt:    cfg.CreatedAt,
	})
	if err != nil {
		return err
	}

	a.printSummary(cfg, configPath)
	return nil
}

func (a *App) printSummary(cfg *domain.DeploymentConfig, configPath string) {
	fmt.Fprintf(a.stdout, "Deployment %s is up\n", cfg.ID)
	for _, ep := range cfg.Endpoints() {
		fmt.Fprintf(a.stdout, "  %-30s 127.0.0.1:%d\n", ep.ContainerName, ep.HostPort)
	}
	fmt.Fprintf(a.stdout, "Config: %s\n", configPath)
}

// =============================================================================
// list
// =============================================================================

// List prints recorded deployments in insertion order.
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("list: unexpected arguments: %s", strings.Join(args, " "))
	}

	entries, err := a.ledger.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "No deployments recorded")
		return nil
	}

	fmt.Fprintf(a.stdout, "%-28s %-22s %s\n", "DEPLOYMENT", "CREATED", "CONFIG")
	for _, e := range entries {
		fmt.Fprintf(a.stdout, "%-28s %-22s %s\n",
			e.DeploymentID,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.ConfigPath,
		)
	}
	return nil
}

// =============================================================================
// cleanup
// =============================================================================

// Cleanup tears down a recorded deployment: containers, network, ledger
// entry and config file. It asks for confirmation unless -yes is given.
func (a *App) Cleanup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("cleanup: expected exactly one deployment id")
	}
	deploymentID := rest[0]

	entries, err := a.ledger.List(ctx)
	if err != nil {
		return err
	}
	var entry *domain.LedgerEntry
	for i := range entries {
		if entries[i].DeploymentID == deploymentID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrDeploymentMissing, deploymentID)
	}

	cfg, err := a.configDir.Read(entry.ConfigPath)
	if err != nil {
		return err
	}

	if !*yes {
		fmt.Fprintf(a.stdout, "Tear down deployment %s (%d containers)? [y/N] ", cfg.ID, len(cfg.Endpoints()))
		if !a.confirm() {
			return ErrDeclined
		}
	}

	orch, err := orchestrator.New(a.cfg.Docker.Host, a.logger)
	if err != nil {
		return err
	}
	defer orch.Close()

	if err := orch.Teardown(ctx, cfg); err != nil {
		return err
	}
	if err := a.ledger.Remove(ctx, deploymentID); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Deployment %s removed\n", deploymentID)
	return nil
}

// confirm reads one line and accepts y/yes, case-insensitive.
func (a *App) confirm() bool {
	scanner := bufio.NewScanner(a.stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// =============================================================================
// Inventory Snapshot
// =============================================================================

// snapshotInventory gathers the host state resolution probes against:
// container and network names from Docker, listening ports from the
// socket sources merged together. A port reported by any source counts
// as occupied.
func (a *App) snapshotInventory(ctx context.Context) (*stack.Inventory, error) {
	docker, err := inventory.NewDockerInventory(a.cfg.Docker.Host)
	if err != nil {
		return nil, err
	}
	defer docker.Close()

	containers, err := docker.ContainerNames(ctx)
	if err != nil {
		return nil, err
	}
	networks, err := docker.NetworkNames(ctx)
	if err != nil {
		return nil, err
	}

	portLists, err := a.listeningPorts()
	if err != nil {
		return nil, err
	}

	return &stack.Inventory{
		ContainerNames: containers,
		NetworkNames:   networks,
		UsedPorts:      allocate.NewPortSet(portLists...),
	}, nil
}

// listeningPorts queries every socket source. A source that fails (e.g.
// the ss binary is not installed) is skipped with a warning; only all
// sources failing is an error, since one answering source still gives a
// usable port inventory.
func (a *App) listeningPorts() ([][]int, error) {
	var lists [][]int
	var lastErr error
	for _, src := range a.sockets {
		ports, err := src.ListeningPorts()
		if err != nil {
			a.logger.Warn("socket source unavailable", "error", err)
			lastErr = err
			continue
		}
		lists = append(lists, ports)
	}
	if len(lists) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return lists, nil
}
