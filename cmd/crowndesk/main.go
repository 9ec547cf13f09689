// Command crowndesk is the terminal console for the Crown helpdesk platform:
// tenant-scoped login, ticket listing and triage, and a local API stub for
// development.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/crowndesk/crowndesk/internal/adapter/helpdesk"
	"github.com/crowndesk/crowndesk/internal/adapter/otel"
	"github.com/crowndesk/crowndesk/internal/adapter/ristretto"
	"github.com/crowndesk/crowndesk/internal/adapter/sqlite"
	"github.com/crowndesk/crowndesk/internal/config"
	"github.com/crowndesk/crowndesk/internal/logger"
	"github.com/crowndesk/crowndesk/internal/resilience"
	"github.com/crowndesk/crowndesk/internal/service"
	"github.com/crowndesk/crowndesk/internal/stub"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "crowndesk: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printHelp()
		return nil
	}

	switch args[0] {
	case "login":
		return withApp(func(ctx context.Context, a *app) error { return runLogin(ctx, a, args[1:]) })
	case "logout":
		return withApp(func(ctx context.Context, a *app) error { return runLogout(ctx, a) })
	case "whoami":
		return withApp(func(ctx context.Context, a *app) error { return runWhoami(ctx, a) })
	case "tickets":
		return withApp(func(ctx context.Context, a *app) error { return runTickets(ctx, a, args[1:]) })
	case "categories":
		return withApp(func(ctx context.Context, a *app) error { return runCategories(ctx, a) })
	case "dashboard":
		return withApp(func(ctx context.Context, a *app) error { return runDashboard(ctx, a) })
	case "stub":
		return runStub()
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: crowndesk <command> [options]

Commands:
  login        Log in to a tenant (--tenant, --email, optional --password)
  logout       Log out and clear the stored session
  whoami       Show the current session
  tickets      Ticket operations: list, get, create, set-status, set-priority
  categories   List the tenant's active ticket categories
  dashboard    Show ticket counts by status
  stub         Run the local development API stub
  help         Show this help message

Examples:
  crowndesk login --tenant acme --email ana@acme.com
  crowndesk tickets list
  crowndesk tickets set-status --id <uuid> --status RESOLVED
  crowndesk stub
`)
}

// app bundles the wired console dependencies for one command invocation.
type app struct {
	cfg     *config.Config
	session *service.Session
	tickets *service.Tickets
	mutator *service.Mutator
}

// withApp wires config, logging, telemetry, storage, and services, runs fn,
// and tears everything down.
func withApp(fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer closeLog.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// One request ID per invocation ties client calls to backend logs.
	ctx = logger.WithRequestID(ctx, uuid.NewString())

	shutdownTracer, err := otel.InitTracer(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	shutdownMeter, err := otel.InitMeter(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	store, err := sqlite.Open(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("state store: %w", err)
	}
	defer func() { _ = store.Close() }()

	respCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer respCache.Close()

	client := helpdesk.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	sess := service.NewSession(store, client)
	client.SetTokenSource(sess.Token)
	sess.Initialize(ctx)

	a := &app{
		cfg:     cfg,
		session: sess,
		tickets: service.NewTickets(client, sess, respCache, cfg.Cache.TTL),
		mutator: service.NewMutator(client, sess),
	}
	return fn(ctx, a)
}

// runStub starts the in-memory development backend. It needs no session or
// client wiring, only config and logging.
func runStub() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer closeLog.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return stub.New(cfg.Stub.JWTSecret).Run(ctx, cfg.Stub.Port)
}
