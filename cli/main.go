// Command ytbackup backs up and bulk-edits a YouTube account's
// subscriptions and Watch Later playlist.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kuil09/youtube-subscriptions-backup/auth"
	"github.com/kuil09/youtube-subscriptions-backup/bulk"
	"github.com/kuil09/youtube-subscriptions-backup/config"
	"github.com/kuil09/youtube-subscriptions-backup/jobs"
	"github.com/kuil09/youtube-subscriptions-backup/retry"
	"github.com/kuil09/youtube-subscriptions-backup/server"
	"github.com/kuil09/youtube-subscriptions-backup/service"
	"github.com/kuil09/youtube-subscriptions-backup/storage"
	"github.com/kuil09/youtube-subscriptions-backup/youtube"
)

func main() {
	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "serve":
		cmdServe(args)
	case "export":
		cmdExport(args)
	case "import":
		cmdImport(args)
	case "watchlater":
		cmdWatchLater(args)
	case "jobs":
		cmdJobs(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ytbackup - YouTube subscriptions and Watch Later backup

Usage:
  ytbackup serve [flags]                 Run the HTTP API server
  ytbackup export [flags]                Export subscriptions to stdout or a file
  ytbackup import [flags] <file>         Subscribe to every channel in an export file
  ytbackup watchlater [flags]            Refresh and print the Watch Later snapshot
  ytbackup jobs [flags]                  Run pending jobs once
  ytbackup help                          Show this help message

Common flags:
  -config <path>   Config file (default: ytbackup.json, ~/.config/ytbackup/ytbackup.json)

Examples:
  ytbackup serve -addr 127.0.0.1:8080
  ytbackup export -format csv > subscriptions.csv
  ytbackup import takeout-subscriptions.csv
`)
}

func loadConfig(fs *flag.FlagSet, args []string) *config.Config {
	configPath := fs.String("config", "", "config file path")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	return cfg
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}

// buildService wires the store, auth flow, API client, queue, and service.
// The returned cleanup closes the store.
func buildService(cfg *config.Config) (*service.Service, func()) {
	store, err := storage.NewJSONStore(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataPath).Msg("open data store")
	}

	granter := auth.NewBrowserGranter(auth.BrowserGranterConfig{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		ListenAddr:   cfg.OAuthListenAddr,
	}, log.Logger)
	tokens := auth.NewManager(store, granter, auth.WithLogger(log.Logger))

	retryCfg := retry.Config{Retries: cfg.MaxRetries, BaseDelay: cfg.BaseBackoff}
	api := youtube.NewClient(tokens,
		youtube.WithRetryConfig(retryCfg),
		youtube.WithBreaker(youtube.DefaultBreakerConfig()),
		youtube.WithLogger(log.Logger),
	)

	queue := jobs.NewQueue(store, jobs.Options{
		MaxAttempts:  cfg.JobMaxAttempts,
		SuccessDelay: cfg.JobSuccessDelay,
		FailureDelay: cfg.JobFailureDelay,
	}, jobs.WithLogger(log.Logger))

	svc := service.New(store, api, tokens, queue,
		service.WithLogger(log.Logger),
		service.WithRunner(bulk.NewRunner(
			bulk.WithInterval(cfg.MutationInterval),
			bulk.WithRetryConfig(retryCfg),
			bulk.WithLogger(log.Logger),
		)),
		service.WithImportRunner(bulk.NewRunner(
			bulk.WithInterval(cfg.ImportInterval),
			bulk.WithRetryConfig(retryCfg),
			bulk.WithLogger(log.Logger),
		)),
	)

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("close data store")
		}
	}
	return svc, cleanup
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "HTTP bind address (overrides config)")
	data := fs.String("data", "", "data store path (overrides config)")
	cfg := loadConfig(fs, args)
	setupLogger(cfg.LogLevel)
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *data != "" {
		cfg.DataPath = *data
	}

	svc, cleanup := buildService(cfg)
	defer cleanup()

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: server.New(svc, log.Logger)}
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "json", "export format: json or csv")
	out := fs.String("out", "", "output file (default stdout)")
	cfg := loadConfig(fs, args)
	setupLogger(cfg.LogLevel)

	svc, cleanup := buildService(cfg)
	defer cleanup()

	data, err := svc.ExportSubscriptions(context.Background(), *format)
	if err != nil {
		fatalUserError(err)
	}
	if *out == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("write export")
	}
	log.Info().Str("path", *out).Msg("export written")
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfg := loadConfig(fs, args)
	setupLogger(cfg.LogLevel)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: ytbackup import [flags] <file>")
		os.Exit(1)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("read import file")
	}

	svc, cleanup := buildService(cfg)
	defer cleanup()

	report, err := svc.ImportSubscriptions(context.Background(), data)
	if err != nil {
		fatalUserError(err)
	}
	fmt.Printf("parsed %d channels (%d rows unreadable, %d already subscribed), subscribed %d, failed %d\n",
		len(report.Parsed.Items), len(report.Parsed.Errors), report.Skipped,
		report.Result.Succeeded, report.Result.Failed())
	for _, f := range report.Result.Failures {
		fmt.Printf("  %s: %s\n", f.ID, f.Error)
	}
}

func cmdWatchLater(args []string) {
	fs := flag.NewFlagSet("watchlater", flag.ExitOnError)
	cfg := loadConfig(fs, args)
	setupLogger(cfg.LogLevel)

	svc, cleanup := buildService(cfg)
	defer cleanup()

	snapshot, err := svc.RefreshWatchLater(context.Background())
	if err != nil {
		fatalUserError(err)
	}
	fmt.Printf("watch later: %d videos (fetched %s)\n",
		len(snapshot.Items), snapshot.FetchedAt.Format(time.RFC3339))
	for _, item := range snapshot.Items {
		duration := item.DurationText
		if duration == "" {
			duration = "-"
		}
		fmt.Printf("  [%s] %s - %s\n", duration, item.Title, item.ChannelName)
	}
}

func cmdJobs(args []string) {
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	clearDone := fs.Bool("clear", false, "drop completed jobs after the run")
	cfg := loadConfig(fs, args)
	setupLogger(cfg.LogLevel)

	svc, cleanup := buildService(cfg)
	defer cleanup()

	sum, err := svc.RunJobs(context.Background())
	if err != nil {
		fatalUserError(err)
	}
	fmt.Printf("processed %d: %d done, %d failed, %d pending retry\n",
		sum.Processed, sum.Succeeded, sum.Failed, sum.Retried)

	if *clearDone {
		removed, err := svc.ClearJobs(context.Background())
		if err != nil {
			fatalUserError(err)
		}
		fmt.Printf("cleared %d completed jobs\n", removed)
	}
}

// fatalUserError prints hints from typed errors before exiting.
func fatalUserError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
	}
	os.Exit(1)
}

func errorHint(err error) string {
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		return authErr.Hint
	}
	var apiErr *youtube.RemoteAPIError
	if errors.As(err, &apiErr) {
		return apiErr.Hint
	}
	return ""
}
