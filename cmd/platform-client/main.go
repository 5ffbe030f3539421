// Package main is the entrypoint for platform-client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/morezero/platform-client/internal/app"
	"github.com/morezero/platform-client/internal/config"
	"github.com/morezero/platform-client/internal/logging"
	"github.com/morezero/platform-client/pkg/apierror"
	"github.com/morezero/platform-client/pkg/db"
)

const usage = `Usage: platform-client [command]
       platform-client serve                         Start the client service (health, metrics, reachability probe).
       platform-client request METHOD PATH [JSON]    Send one API request and print the JSON response.
       platform-client migrate up                    Run database migrations.
       platform-client migrate down                  Roll back migrations using MIGRATION_PATH/down.
       platform-client migrate status                Show migration status.
       platform-client ensure-db [name]              Create database if missing (default name: platform_client_test). Uses DATABASE_URL host/user.
       platform-client diagnostics list [flags]      List logged errors (-kind, -since, -limit).
       platform-client diagnostics stats             Count logged errors by kind.
       platform-client diagnostics purge DURATION    Delete logged errors older than DURATION (e.g. 720h).
       platform-client diagnostics clear             Truncate the diagnostics table; schema is preserved.

Environment: PLATFORM_ENVIRONMENT, PLATFORM_BASE_URL, API_KEY, SESSION_TOKEN, SDK_VERSION,
DATABASE_URL (persistent diagnostics), COMMS_URL (event bridge), MIGRATION_PATH, HTTP_PORT.
A .env file in the working directory is loaded first when present.
`

func main() {
	_ = godotenv.Load()

	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
	case "request", "migrate", "ensure-db", "diagnostics":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("platform-client: load config: %v", err)
	}
	logging.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "request":
		if len(args) < 3 {
			log.Fatalf("platform-client request: require METHOD and PATH")
		}
		body := ""
		if len(args) > 3 {
			body = args[3]
		}
		if err := runRequest(ctx, cfg, args[1], args[2], body); err != nil {
			log.Fatalf("platform-client request: %v", err)
		}
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("platform-client migrate: require subcommand (up, down, status)")
		}
		if err := runMigrate(ctx, cfg, args[1]); err != nil {
			log.Fatalf("platform-client migrate %s: %v", args[1], err)
		}
	case "ensure-db":
		dbName := "platform_client_test"
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(ctx, cfg, dbName); err != nil {
			log.Fatalf("platform-client ensure-db: %v", err)
		}
	case "diagnostics":
		if len(args) < 2 {
			log.Fatalf("platform-client diagnostics: require subcommand (list, stats, purge, clear)")
		}
		if err := runDiagnostics(ctx, cfg, args[1], args[2:]); err != nil {
			log.Fatalf("platform-client diagnostics %s: %v", args[1], err)
		}
	default:
		if err := app.Run(ctx, cfg); err != nil {
			log.Fatalf("platform-client: %v", err)
		}
	}
}

func runRequest(ctx context.Context, cfg *config.Config, method, path, body string) error {
	client, err := app.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout+5*time.Second)
	defer cancel()

	payload, err := client.Request(reqCtx, strings.ToUpper(method), path, body)
	if err != nil {
		var be *apierror.BackendError
		if errors.As(err, &be) {
			return fmt.Errorf("%s (code %d)", be.Error(), int(be.Code))
		}
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

func runMigrate(ctx context.Context, cfg *config.Config, sub string) error {
	switch sub {
	case "up", "down", "status":
	default:
		return fmt.Errorf("unknown subcommand %q (use up, down, status)", sub)
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	switch sub {
	case "up":
		migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		return db.RunMigrations(ctx, pool, migrationSQL)
	case "down":
		return db.MigrationDown(ctx, pool, cfg.MigrationPath)
	default:
		return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
	}
}

func runEnsureDB(ctx context.Context, cfg *config.Config, dbName string) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	targetURL, err := db.WithDatabaseName(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	created, err := db.EnsureDatabase(ctx, targetURL)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Database %q created.\n", dbName)
	} else {
		fmt.Printf("Database %q is ready.\n", dbName)
	}
	return nil
}

// listOptions are the flags accepted by "diagnostics list".
type listOptions struct {
	kind  string
	since time.Duration
	limit int
}

func parseListOptions(args []string) (listOptions, error) {
	var opts listOptions
	fs := flag.NewFlagSet("diagnostics list", flag.ContinueOnError)
	fs.StringVar(&opts.kind, "kind", "", "only errors of this kind (e.g. session_expired)")
	fs.DurationVar(&opts.since, "since", 0, "only errors newer than this duration (e.g. 24h)")
	fs.IntVar(&opts.limit, "limit", db.DefaultListLimit, "maximum number of rows")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.limit <= 0 {
		return opts, fmt.Errorf("-limit must be positive")
	}
	return opts, nil
}

func runDiagnostics(ctx context.Context, cfg *config.Config, sub string, args []string) error {
	var listOpts listOptions
	var purgeAge time.Duration
	switch sub {
	case "list":
		opts, err := parseListOptions(args)
		if err != nil {
			return err
		}
		listOpts = opts
	case "purge":
		if len(args) < 1 {
			return fmt.Errorf("require DURATION")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid DURATION %q", args[0])
		}
		purgeAge = d
	case "stats", "clear":
	default:
		return fmt.Errorf("unknown subcommand %q (use list, stats, purge, clear)", sub)
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	repo := db.NewRepository(pool)

	switch sub {
	case "list":
		params := db.ListDiagnosticsParams{Kind: listOpts.kind, Limit: listOpts.limit}
		if listOpts.since > 0 {
			params.Since = time.Now().Add(-listOpts.since)
		}
		records, err := repo.ListDiagnostics(ctx, params)
		if err != nil {
			return err
		}
		for _, rec := range records {
			requestID := "-"
			if rec.RequestID != nil {
				requestID = rec.RequestID.String()
			}
			fmt.Printf("%s  %-22s %6d  request=%s  %s\n",
				rec.OccurredAt.Format(time.RFC3339), rec.Kind, rec.Code, requestID, formatMessage(rec.Message, rec.Reason))
		}
		return nil
	case "stats":
		counts, err := repo.CountDiagnosticsByKind(ctx)
		if err != nil {
			return err
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("%-22s %d\n", k, counts[k])
		}
		return nil
	case "purge":
		n, err := repo.PurgeDiagnostics(ctx, time.Now().Add(-purgeAge))
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d diagnostics.\n", n)
		return nil
	default:
		return db.ClearDiagnostics(ctx, pool)
	}
}

func formatMessage(message, reason string) string {
	switch {
	case message != "" && reason != "":
		return message + " (" + reason + ")"
	case message != "":
		return message
	default:
		return reason
	}
}
