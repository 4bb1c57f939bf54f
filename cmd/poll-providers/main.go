// MDS Poller - Mobility Data Specification Provider Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mdspoller

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/tomtom215/mdspoller/internal/api"
	"github.com/tomtom215/mdspoller/internal/config"
	"github.com/tomtom215/mdspoller/internal/cursor"
	"github.com/tomtom215/mdspoller/internal/database"
	"github.com/tomtom215/mdspoller/internal/fetcher"
	"github.com/tomtom215/mdspoller/internal/logging"
	"github.com/tomtom215/mdspoller/internal/models"
	"github.com/tomtom215/mdspoller/internal/poller"
	"github.com/tomtom215/mdspoller/internal/supervisor"
	"github.com/tomtom215/mdspoller/internal/supervisor/services"
	"github.com/tomtom215/mdspoller/internal/tokencache"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitStartup = 3
)

type options struct {
	configPath   string
	raiseOnError bool
	serve        bool
	providers    []string
	cursorKind   string
	from         string
	to           string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("poll-providers", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (default: CONFIG_PATH or the search paths)")
	fs.BoolVar(&opts.raiseOnError, "raise-on-error", false, "exit non-zero when any provider failed")
	fs.BoolVar(&opts.serve, "serve", false, "poll every POLLER_INTERVAL and serve /metrics and /healthz")
	fs.StringArrayVar(&opts.providers, "provider", nil, "only poll this provider id (repeatable)")
	fs.StringVar(&opts.cursorKind, "cursor", "", "backfill cursor: start_time, start_recorded or total_events")
	fs.StringVar(&opts.from, "from", "", "backfill start (RFC 3339, milliseconds or skip)")
	fs.StringVar(&opts.to, "to", "", "backfill end (RFC 3339, milliseconds or skip)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.cursorKind != "" && opts.serve {
		return opts, errors.New("--cursor cannot be combined with --serve")
	}
	if opts.cursorKind == "" && (opts.from != "" || opts.to != "") {
		return opts, errors.New("--from and --to require --cursor")
	}
	return opts, nil
}

// backfill turns the --cursor/--from/--to flags into a manual cursor range.
func (o options) backfill() (*poller.Backfill, error) {
	if o.cursorKind == "" {
		return nil, nil
	}
	kind, err := models.ParseCursorKind(o.cursorKind)
	if err != nil {
		return nil, err
	}
	if o.from == "" || o.to == "" {
		return nil, errors.New("--cursor requires both --from and --to")
	}
	from, err := cursor.ParseValue(kind, o.from)
	if err != nil {
		return nil, fmt.Errorf("--from: %w", err)
	}
	to, err := cursor.ParseValue(kind, o.to)
	if err != nil {
		return nil, fmt.Errorf("--to: %w", err)
	}
	if cursor.Reached(from, to) {
		return nil, errors.New("--from must be before --to")
	}
	return &poller.Backfill{From: from, To: to}, nil
}

func (o options) providerIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(o.providers))
	for _, raw := range o.providers {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("--provider %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadWithKoanf()
}

//nolint:gocyclo // sequential setup steps
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	backfill, err := opts.backfill()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	providerIDs, err := opts.providerIDs()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitStartup
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    stderr,
	})

	app, err := setup(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Startup failed")
		return exitStartup
	}
	defer app.close()

	p := poller.New(app.db, app.fetcher, app.engine, poller.Options{
		Workers:              cfg.Poller.Workers,
		CreateRegisterEvents: cfg.Poller.CreateRegisterEvents,
		ProviderIDs:          providerIDs,
		Backfill:             backfill,
	})

	if opts.serve {
		if err := serve(ctx, cfg, app, p); err != nil {
			logging.Error().Err(err).Msg("Serve mode stopped with an error")
			return exitFailure
		}
		return exitOK
	}

	runCtx := ctx
	if cfg.Poller.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Poller.RunTimeout)
		defer cancel()
	}
	report, err := p.Run(runCtx)
	if err != nil {
		fmt.Fprintf(stderr, "Poller run failed: %v\n", err)
		return exitFailure
	}
	printReport(stdout, stderr, report)
	logStoreTotals(ctx, app.db)

	if opts.raiseOnError && report.FirstError() != nil {
		return exitFailure
	}
	return exitOK
}

// app holds the long-lived resources shared by both modes.
type app struct {
	db      *database.DB
	tokens  *tokencache.Cache
	fetcher *fetcher.Fetcher
	engine  *cursor.Engine
}

func setup(ctx context.Context, cfg *config.Config) (*app, error) {
	limit, bounded, err := cfg.Poller.Limit()
	if err != nil {
		return nil, err
	}

	providers, err := cfg.ProviderModels()
	if err != nil {
		return nil, err
	}

	tokens, err := tokencache.Open(tokencache.Options{
		Backend:       tokencache.BackendType(cfg.TokenCache.Backend),
		Path:          cfg.TokenCache.Path,
		EncryptionKey: cfg.TokenCache.EncryptionKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token cache: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		_ = tokens.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ptrs := make([]*models.Provider, len(providers))
	for i := range providers {
		ptrs[i] = &providers[i]
	}
	if err := db.SyncProviders(ctx, ptrs); err != nil {
		_ = db.Close()
		_ = tokens.Close()
		return nil, fmt.Errorf("failed to register providers: %w", err)
	}
	logging.Info().
		Int("providers", len(ptrs)).
		Str("db_path", cfg.Database.Path).
		Str("token_cache", cfg.TokenCache.Backend).
		Msg("Configuration loaded")

	f := fetcher.New(tokens, fetcher.Options{
		Timeout:    cfg.Fetch.Timeout,
		RetryDelay: cfg.Fetch.RetryDelay,
		RateLimit:  cfg.Fetch.RateLimit,
		RateBurst:  cfg.Fetch.RateBurst,
		Breaker: fetcher.BreakerSettings{
			Failures:    uint32(cfg.Fetch.BreakerFailures), //nolint:gosec // validated non-negative
			Timeout:     cfg.Fetch.BreakerTimeout,
			MaxRequests: 1,
		},
	})

	return &app{
		db:      db,
		tokens:  tokens,
		fetcher: f,
		engine:  cursor.NewEngine(cursor.Options{Limit: limit, Unbounded: !bounded}),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
	if err := a.tokens.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing token cache")
	}
}

// printReport writes one line per provider: results of healthy providers to
// stdout, failures to stderr.
func printReport(stdout, stderr io.Writer, report *poller.Report) {
	for _, res := range report.Results {
		prefix := fmt.Sprintf("Polling %s... ", res.Label())
		switch res.State {
		case poller.StateDone:
			fmt.Fprintf(stdout, "%sSuccess (%d records, %d pages)\n", prefix, res.Records, res.Pages)
		case poller.StateSkipped:
			fmt.Fprintf(stdout, "%sSkipped (%s)\n", prefix, res.Reason)
		case poller.StateFailed:
			fmt.Fprintf(stderr, "%sFailed: %s\n", prefix, failureMessage(res.Err))
		}
	}
}

// logStoreTotals logs the row counts of the record store after a run.
func logStoreTotals(ctx context.Context, db *database.DB) {
	counts, err := db.GetRecordCounts(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to count stored records")
		return
	}
	logging.Info().
		Int64("providers", counts.Providers).
		Int64("devices", counts.Devices).
		Int64("event_records", counts.EventRecords).
		Msg("Record store totals")
}

// failureMessage renders "<kind>: <message>" without repeating the kind.
func failureMessage(err error) string {
	kind := models.KindOf(err)
	var pe *models.PollError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return fmt.Sprintf("%s: %v", kind, err)
}

func serve(ctx context.Context, cfg *config.Config, a *app, p *poller.Poller) error {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(api.NewHandler(a.db), 10*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
	}
	tree.AddIngestService(services.NewPollService(p, cfg.Poller.Interval, cfg.Poller.RunTimeout))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

	logging.Info().
		Str("addr", srv.Addr).
		Dur("interval", cfg.Poller.Interval).
		Msg("Serving metrics and polling providers")

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services did not stop before the shutdown timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}
