// Command granthalaya runs the digital scripture library: an HTTP server,
// a drop-directory watcher, and offline commands for validating and
// ingesting scripture documents.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shastralib/granthalaya/internal/artifact"
	"github.com/shastralib/granthalaya/internal/catalog"
	"github.com/shastralib/granthalaya/internal/cli"
	"github.com/shastralib/granthalaya/internal/config"
	"github.com/shastralib/granthalaya/internal/ingest"
	"github.com/shastralib/granthalaya/internal/library"
	"github.com/shastralib/granthalaya/internal/models"
	"github.com/shastralib/granthalaya/internal/search"
	"github.com/shastralib/granthalaya/internal/server"
	"github.com/shastralib/granthalaya/internal/shastra"
	"github.com/shastralib/granthalaya/internal/storage"
	"github.com/shastralib/granthalaya/internal/watcher"
	"github.com/shastralib/granthalaya/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/granthalaya/config.yaml"

// loadConfig loads configuration from the given path. When the path is the
// built-in default and a config.yaml exists in the current directory, the
// local file wins. Returns the config and the path it was loaded from.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			localPath := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(localPath); err == nil {
				cfg, err := config.Load(localPath)
				return cfg, localPath, err
			}
		}
	}
	cfg, err := config.Load(path)
	return cfg, path, err
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "validate":
		runValidate()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("granthalaya %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// Components holds the initialized storage and read-side components shared
// by the server and the direct-mode commands.
type Components struct {
	Store    *artifact.DiskStore
	Journal  storage.Journal
	Index    *search.VerseIndex
	Catalog  *catalog.Catalog
	Library  *library.Library
	Pipeline *ingest.Pipeline
}

// Close releases all component resources.
func (c *Components) Close() {
	if c.Index != nil {
		c.Index.Close()
	}
	if c.Journal != nil {
		_ = c.Journal.Close()
	}
}

// initializeComponents wires up storage, the journal, the verse index, the
// catalog, the library, and the ingestion pipeline from config. The pipeline
// hook rebuilds the index and drops the library cache after every accepted
// ingestion.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := artifact.NewDiskStore(cfg.Storage.ArtifactsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	journal, err := storage.NewSQLiteJournal(cfg.Storage.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ingestion journal: %w", err)
	}

	index, err := search.NewVerseIndex(cfg.Storage.IndexPath, cfg.Search.SnippetLength, cfg.Search.Fuzziness, logger)
	if err != nil {
		_ = journal.Close()
		return nil, fmt.Errorf("failed to initialize verse index: %w", err)
	}

	cat, err := catalog.Load(cfg.Catalog.Path, logger)
	if err != nil {
		index.Close()
		_ = journal.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	lib := library.New(store, logger)

	pipeline := ingest.New(store, journal, logger)
	pipeline.OnPersisted(func(doc *models.NormalizedScripture) {
		if err := index.Rebuild(context.Background(), doc); err != nil {
			logger.Error("failed to rebuild verse index", zap.Error(err))
		}
		lib.Invalidate()
	})

	return &Components{
		Store:    store,
		Journal:  journal,
		Index:    index,
		Catalog:  cat,
		Library:  lib,
		Pipeline: pipeline,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("config loaded",
		zap.String("config_path", resolvedPath),
		zap.Bool("debug", debugMode))

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Warm the index from the persisted document so search works before
	// the first ingestion of this process lifetime.
	if doc, err := components.Library.Scripture(); err == nil {
		if err := components.Index.Rebuild(context.Background(), doc); err != nil {
			logger.Error("failed to rebuild verse index at startup", zap.Error(err))
		}
	} else if !errors.Is(err, library.ErrNotIngested) {
		logger.Warn("failed to load persisted scripture at startup", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Directory != "" {
		w := watcher.New(cfg.Watch.Directory, components.Pipeline, watcher.WithLogger(logger))
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("failed to start drop-directory watcher", zap.Error(err))
		}
		defer w.Stop()
		w.SyncExisting()
	}

	srv := server.NewServer(
		components.Library,
		components.Catalog,
		components.Index,
		components.Pipeline,
		components.Journal,
		components.Store,
		cfg,
		logger,
	)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("failed to stop server gracefully", zap.Error(err))
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	source := fs.String("source", "cli", "source label recorded in the journal")
	output := fs.String("output", "text", "output format (text or json)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: granthalaya ingest [flags] <file.json>")
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read document: %v\n", err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize components: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	summary, err := components.Pipeline.Ingest(context.Background(), *source, data)
	if err != nil {
		var rejected *ingest.RejectedError
		if errors.As(err, &rejected) {
			result := shastra.Result{Errors: rejected.Errors}
			_ = cli.WriteValidationReport(os.Stdout, result, format)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
		os.Exit(1)
	}

	cli.WriteSummary(os.Stdout, summary)
}

func runValidate() {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	output := fs.String("output", "text", "output format (text or json)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: granthalaya validate [flags] <file.json>")
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read document: %v\n", err)
		os.Exit(1)
	}

	result := shastra.ValidateBytes(data)
	if err := cli.WriteValidationReport(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write report: %v\n", err)
		os.Exit(1)
	}
	if !result.OK {
		os.Exit(1)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	limit := fs.Int("limit", 0, "maximum results (0 uses the server default)")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching")
	output := fs.String("output", "text", "output format (text or json)")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	query := buildSearchQuery(fs.Args())
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: granthalaya search [flags] <query>")
		os.Exit(1)
	}

	response, err := searchViaHTTP(*serverURL, models.VerseQuery{
		Query: query,
		Limit: *limit,
		Fuzzy: *fuzzy,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
		os.Exit(1)
	}
}

// searchArgsReorder moves trailing flags to the front of the slice so that
// flag.Parse() sees them. Go's flag package stops at the first non-flag
// argument, so "granthalaya search karma yoga -limit 5" would otherwise
// leave -limit unparsed.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchViaHTTP posts the query to a running server and decodes the response.
func searchViaHTTP(serverURL string, query models.VerseQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty reads storage directly)")
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	output := fs.String("output", "text", "output format (text or json)")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	var report *models.StatusReport
	if *serverURL != "" {
		report, err = statusViaHTTP(*serverURL)
	} else {
		report, err = statusFromStorage(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}

	if err := cli.WriteStatus(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write status: %v\n", err)
		os.Exit(1)
	}
}

// statusViaHTTP fetches the status report from a running server.
func statusViaHTTP(serverURL string) (*models.StatusReport, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var report models.StatusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &report, nil
}

// statusFromStorage assembles the status report by opening the storage
// components directly, for use when no server is running.
func statusFromStorage(configPath string) (*models.StatusReport, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := zap.NewNop()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Close()

	report := &models.StatusReport{
		Books: components.Catalog.Len(),
		Config: models.StatusConfig{
			ArtifactsDir:   cfg.Storage.ArtifactsDir,
			JournalPath:    cfg.Storage.JournalPath,
			IndexPath:      cfg.Storage.IndexPath,
			CatalogPath:    cfg.Catalog.Path,
			WatchDirectory: cfg.Watch.Directory,
		},
	}

	chapters, err := components.Library.Chapters()
	switch {
	case err == nil:
		report.Scripture.Ingested = true
		report.Scripture.Chapters = len(chapters)
		for _, ch := range chapters {
			report.Scripture.Verses += ch.Verses
		}
	case !errors.Is(err, library.ErrNotIngested):
		return nil, fmt.Errorf("failed to read scripture: %w", err)
	}

	// The on-disk index may be cold when the server has never run; report
	// whatever it holds.
	if count, err := components.Index.DocCount(); err == nil {
		report.IndexedVerses = count
	}

	counts, err := components.Journal.Counts(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	report.Ingestions = counts

	if usage, err := components.Store.UsageBytes(); err == nil {
		report.DiskUsageBytes = usage
	}

	return report, nil
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path to create")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if _, err := os.Stat(*configPath); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Config already exists at %s (use -force to overwrite)\n", *configPath)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*configPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create config directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(*configPath, config.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote default config to %s\n", *configPath)
}

func printUsage() {
	fmt.Print(`granthalaya - digital scripture library

Usage:
  granthalaya server [flags]            Start the HTTP server and watcher
  granthalaya ingest [flags] <file>     Validate and persist a scripture document
  granthalaya validate [flags] <file>   Check a document without writing anything
  granthalaya search [flags] <query>    Search verses via a running server
  granthalaya status [flags]            Show library status
  granthalaya init [flags]              Write a default config file
  granthalaya version                   Show version
  granthalaya help                      Show this help

Server flags:
  -config string   Config file path (default "` + defaultConfigPath + `")
  -debug           Enable debug logging

Ingest flags:
  -config string   Config file path
  -source string   Source label recorded in the journal (default "cli")
  -output string   Output format: text or json (default "text")

Validate flags:
  -output string   Output format: text or json (default "text")

Search flags:
  -server string   Server URL (default "http://localhost:8080")
  -limit int       Maximum results (0 uses the server default)
  -fuzzy           Enable fuzzy matching
  -output string   Output format: text or json (default "text")

Status flags:
  -server string   Server URL; pass "" to read storage directly
  -config string   Config file path (direct mode)
  -output string   Output format: text or json (default "text")

Init flags:
  -config string   Config file path to create
  -force           Overwrite an existing config file

Examples:
  granthalaya init -config ./config.yaml
  granthalaya server -config ./config.yaml
  granthalaya validate gita.json
  granthalaya ingest -source manual gita.json
  granthalaya search karma yoga -limit 5
  granthalaya status -output json
`)
}
