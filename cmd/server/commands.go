package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatsaysai/partner-ledger/internal/audit"
	"github.com/oatsaysai/partner-ledger/internal/config"
	"github.com/oatsaysai/partner-ledger/internal/db"
	"github.com/oatsaysai/partner-ledger/internal/discord"
	"github.com/oatsaysai/partner-ledger/internal/ledger"
	"github.com/oatsaysai/partner-ledger/internal/pairing"
	"github.com/oatsaysai/partner-ledger/pkg/rates"
)

// connect loads the configuration and opens the database
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Using config file: %s", *configFile)

	pool, err := db.Initialize(ctx, cfg.PostgreSQL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func newRatesClient(cfg config.RatesConfig) rates.Provider {
	if cfg.URLTemplate == "" {
		log.Println("Exchange rates disabled, totals will not be converted")
		return nil
	}
	client := rates.NewClient(cfg.URLTemplate, cfg.JSONPath, cfg.Timeout())
	client.MaxRetries = cfg.MaxRetries
	client.TTL = cfg.CacheTTL()
	log.Printf("Rates client initialized with URL template: %s", cfg.URLTemplate)
	return client
}

type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the Discord bot" }
func (*serveCmd) Usage() string {
	return `serve

  Migrates the database, connects to Discord and handles chat commands until
  SIGINT or SIGTERM.
`
}
func (*serveCmd) SetFlags(*flag.FlagSet) {}

func (*serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, pool, err := connect(ctx)
	if err != nil {
		log.Printf("Failed to start: %v", err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	if err := cfg.RequireDiscord(); err != nil {
		log.Printf("Failed to start: %v", err)
		return subcommands.ExitFailure
	}
	if err := db.Migrate(ctx, pool); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return subcommands.ExitFailure
	}

	st := db.New(pool)
	rec := audit.NewRecorder(st)
	discord.SetServices(
		ledger.NewService(st, rec, newRatesClient(cfg.Rates)),
		pairing.NewService(st, rec),
	)

	// Initialize Discord bot
	if err := discord.Initialize(cfg.DiscordBot.Token); err != nil {
		log.Printf("Failed to initialize Discord bot: %v", err)
		return subcommands.ExitFailure
	}
	defer discord.Close()

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle termination signals
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for termination signal
	go func() {
		<-signalChan
		log.Println("Received termination signal, shutting down gracefully...")
		cancel()
	}()

	log.Println("Partner ledger bot is now running. Press CTRL+C to exit.")
	<-ctx.Done()
	log.Println("Partner ledger bot shutting down...")
	return subcommands.ExitSuccess
}

type migrateCmd struct{}

func (*migrateCmd) Name() string           { return "migrate" }
func (*migrateCmd) Synopsis() string       { return "create or update the database schema" }
func (*migrateCmd) Usage() string          { return "migrate\n" }
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, pool, err := connect(ctx)
	if err != nil {
		log.Printf("Failed to connect: %v", err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type reconcileCmd struct {
	fix bool
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "check cached wallet balances against the transaction log" }
func (*reconcileCmd) Usage() string {
	return `reconcile [-fix]

  Recomputes every wallet balance from its initial balance and live
  transactions and reports the wallets whose stored balance differs.
  With -fix the stored balances are rewritten.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.fix, "fix", false, "Rewrite mismatched balances")
}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, pool, err := connect(ctx)
	if err != nil {
		log.Printf("Failed to connect: %v", err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	st := db.New(pool)
	svc := ledger.NewService(st, audit.NewRecorder(st), nil)
	found, err := svc.Reconcile(ctx, c.fix)
	if err != nil {
		log.Printf("Reconcile failed: %v", err)
		return subcommands.ExitFailure
	}
	for _, d := range found {
		fmt.Printf("%s\t%s\tstored=%s\tcomputed=%s\n", d.WalletID, d.Name, d.Stored, d.Computed)
	}
	if len(found) > 0 && !c.fix {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type pruneAuditCmd struct{}

func (*pruneAuditCmd) Name() string     { return "prune-audit" }
func (*pruneAuditCmd) Synopsis() string { return "delete activity-log entries past the retention period" }
func (*pruneAuditCmd) Usage() string {
	return "prune-audit\n\n  Deletes audit entries older than Audit.RetentionDays.\n"
}
func (*pruneAuditCmd) SetFlags(*flag.FlagSet) {}

func (*pruneAuditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, pool, err := connect(ctx)
	if err != nil {
		log.Printf("Failed to connect: %v", err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	n, err := audit.NewRecorder(db.New(pool)).Prune(ctx, cfg.Audit.Retention())
	if err != nil {
		log.Printf("Failed to prune audit log: %v", err)
		return subcommands.ExitFailure
	}
	log.Printf("Pruned %d audit entries", n)
	return subcommands.ExitSuccess
}
