// Package main is the rofi-zotero CLI entry point.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/rofi-zotero/internal/cli"
	"github.com/hyperjump/rofi-zotero/internal/config"
	"github.com/hyperjump/rofi-zotero/internal/models"
	"github.com/hyperjump/rofi-zotero/internal/rofi"
	"github.com/hyperjump/rofi-zotero/internal/search"
	"github.com/hyperjump/rofi-zotero/internal/storage"
	"github.com/hyperjump/rofi-zotero/internal/watcher"
	"github.com/hyperjump/rofi-zotero/pkg/utils"
)

var version = "dev"

// devConfigName is picked up from the current directory when no -config is given.
const devConfigName = "rofi-zotero.yaml"

// loadConfig loads config from path. When path is empty it first looks for
// rofi-zotero.yaml in the current directory (for development), then for the
// user config file; a missing user config yields the defaults.
// Environment overrides are applied last. Returns the config and the path
// that was used (which may not exist).
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, devConfigName)
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
	}
	var cfg *config.Config
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			return nil, "", err
		}
		cfg, _, err = config.LoadOrDefault(def)
		if err != nil {
			return nil, "", err
		}
		path = def
	} else {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, "", err
		}
	}
	cfg.ApplyEnv()
	return cfg, path, nil
}

// setup loads config and builds the logger shared by every command.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolvedConfigPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("library_root", cfg.Library.Root),
		zap.Bool("debug", debugMode),
	)
	return cfg, logger
}

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "rofi":
		runRofi()
	case "list":
		runList()
	case "open":
		runOpen()
	case "search":
		runSearch()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("rofi-zotero version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runRofi() {
	fs := flag.NewFlagSet("rofi", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	prompt := fs.String("prompt", "zotero", "menu prompt")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	components := initializeComponents(ctx, cfg, logger)
	defer components.Close()

	handler := rofi.NewHandler(components.Session,
		rofi.WithLogger(logger),
		rofi.WithMenu(rofi.MenuOptions{
			Prompt:   *prompt,
			Message:  "kb-custom-1: copy path",
			NoCustom: true,
			HotKeys:  true,
		}),
	)
	req := rofi.RequestFromEnv(fs.Args())
	if err := handler.Handle(ctx, req, os.Stdout); err != nil {
		logger.Error("rofi request failed", zap.Int("retv", int(req.Retv)), zap.Error(err))
		os.Exit(1)
	}
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	filter := fs.String("filter", "", "only list entries matching this query")
	method := fs.String("method", "", "matching method: normal, prefix, fuzzy, typo, regex (default from config)")
	outputFormat := fs.String("output", "plain", "output format: plain, text, or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat, cli.OutputPlain)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	components := initializeComponents(ctx, cfg, logger)
	defer components.Close()

	engine := search.NewEngine(components.Session, components.MatcherOptions())
	defer func() { _ = engine.Close() }()
	response, err := engine.List(ctx, *filter, *method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteEntries(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runOpen() {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: rofi-zotero open [flags] <relative-path|display-string>\n\n")
		fmt.Fprintf(fs.Output(), "With no argument the selection is read from the first line of stdin.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(reorderArgs(fs, os.Args[2:]))

	selection := buildSearchQuery(fs.Args())
	if selection == "" {
		line, err := readSelection(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read selection: %v\n", err)
			os.Exit(1)
		}
		selection = line
	}
	if selection == "" {
		fs.Usage()
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	components := initializeComponents(ctx, cfg, logger)
	defer components.Close()

	i, ok := resolveSelection(components, selection)
	if !ok {
		fmt.Fprintf(os.Stderr, "No library entry matches %q\n", selection)
		os.Exit(1)
	}
	if err := components.Session.Result(ctx, i); err != nil {
		fmt.Fprintf(os.Stderr, "Open failed: %v\n", err)
		os.Exit(1)
	}
}

// resolveSelection maps a relative path, absolute path, or display string to a session index.
func resolveSelection(c *Components, selection string) (int, bool) {
	if i, ok := c.Session.Lookup(selection); ok {
		return i, true
	}
	if rel, err := filepath.Rel(c.Session.Root(), selection); err == nil && filepath.IsAbs(selection) {
		if i, ok := c.Session.Lookup(filepath.ToSlash(rel)); ok {
			return i, true
		}
	}
	return c.Session.LookupDisplay(selection)
}

// readSelection returns the first line of r without its line ending.
func readSelection(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: rofi-zotero search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Every word of the query must match an entry's "[year] title - authors" line.
Prefix a word with the negate character (default "-") to exclude entries that match it.

Examples:
  rofi-zotero search attention transformer
  rofi-zotero search "deep learning" -goodfellow
  rofi-zotero search -method typo vaswanni
  rofi-zotero search -output json -limit 5 2017
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves the flags fs defines (and their values) that appear after
// the query to the front of the slice so that fs.Parse sees them, and ends the
// flags with "--". Go's flag package stops at the first non-flag argument, so
// "rofi-zotero search attention -limit 5" would otherwise leave -limit unparsed,
// and a negated query word such as "-goodfellow" would be rejected as a flag.
// Words fs does not define stay in the query.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		name, hasValue, ok := parseFlagArg(a)
		help := name == "h" || name == "help"
		f := fs.Lookup(name)
		if !ok || (f == nil && !help) {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		if !hasValue && !help && !isBoolFlag(f) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(positional) == 0 {
		return flags
	}
	reordered := make([]string, 0, len(flags)+1+len(positional))
	reordered = append(reordered, flags...)
	reordered = append(reordered, "--")
	return append(reordered, positional...)
}

// parseFlagArg splits a "-name" or "--name=value" argument, reporting whether
// the value is inline.
func parseFlagArg(arg string) (name string, hasValue bool, ok bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false, false
	}
	name = strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		name, hasValue = name[:i], true
	}
	return name, hasValue, name != ""
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	limit := fs.Int("limit", 50, "maximum number of results")
	offset := fs.Int("offset", 0, "number of results to skip")
	method := fs.String("method", "", "matching method: normal, prefix, fuzzy, typo, regex (default from config)")
	outputFormat := fs.String("output", "text", "output format: text, plain, or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(reorderArgs(fs, os.Args[2:]))

	query := buildSearchQuery(fs.Args())
	if query == "" {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat, cli.OutputText)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	components := initializeComponents(ctx, cfg, logger)
	defer components.Close()

	engine := search.NewEngine(components.Session, components.MatcherOptions())
	defer func() { _ = engine.Close() }()
	response, err := engine.Search(ctx, &models.SearchQuery{
		Query:  query,
		Limit:  *limit,
		Offset: *offset,
		Method: *method,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteEntries(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// listRefresher serializes list rewrites. A change that arrives while a
// rewrite is running waits for it, then rewrites again with the newer library.
type listRefresher struct {
	mu      sync.Mutex
	refresh func() (int, error)
	logger  *zap.Logger
}

// Run rewrites the list file once.
func (r *listRefresher) Run() {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.refresh()
	if err != nil {
		r.logger.Error("list refresh failed", zap.Error(err))
		return
	}
	r.logger.Info("list file written", zap.Int("entries", n))
}

// refreshListFile opens a fresh session and rewrites outputPath with its display strings.
func refreshListFile(ctx context.Context, cfg *config.Config, logger *zap.Logger, outputPath string) (int, error) {
	components := initializeComponents(ctx, cfg, logger)
	defer components.Close()

	engine := search.NewEngine(components.Session, components.MatcherOptions())
	defer func() { _ = engine.Close() }()
	response, err := engine.List(ctx, "", "")
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := cli.WriteEntries(&buf, response, cli.OutputPlain); err != nil {
		return 0, err
	}
	if err := writeFileAtomic(outputPath, buf.Bytes()); err != nil {
		return 0, fmt.Errorf("failed to write list file: %w", err)
	}
	return response.Total, nil
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	outputPath := fs.String("output-path", "", "list file to keep up to date (default from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	target := cfg.Watch.OutputPath
	if *outputPath != "" {
		target, _ = filepath.Abs(*outputPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresher := &listRefresher{
		refresh: func() (int, error) { return refreshListFile(ctx, cfg, logger, target) },
		logger:  logger.With(zap.String("output_path", target)),
	}
	refresher.Run()

	w := watcher.NewWatcher(cfg.Library.Root, refresher.Run, watcher.WithLogger(logger))
	if err := w.Start(ctx); err != nil {
		logger.Fatal("failed to watch library", zap.String("root", cfg.Library.Root), zap.Error(err))
	}
	defer w.Stop()
	logger.Info("watching library", zap.String("root", cfg.Library.Root))

	<-ctx.Done()
	logger.Info("shutting down")
}

// buildStatus collects library and history facts for the status command.
func buildStatus(ctx context.Context, c *Components) *cli.Status {
	cfg := c.Config
	status := &cli.Status{
		LibraryRoot:    c.Loader.Root(),
		DatabasePath:   c.Loader.DatabasePath(),
		Entries:        c.Session.NumEntries(),
		HistoryBackend: cfg.History.Backend,
		HistoryPath:    cfg.History.Path,
	}
	if info, err := os.Stat(status.DatabasePath); err == nil && !info.IsDir() {
		status.DatabaseExists = true
	}
	if c.History == nil {
		status.HistoryError = storage.ErrHistoryUnavailable.Error()
	} else if paths, err := c.History.OrderedList(ctx); err != nil {
		status.HistoryError = err.Error()
	} else {
		status.HistoryEntries = len(paths)
		if counter, ok := c.History.(storage.SelectionCounter); ok {
			for _, p := range paths {
				n, err := counter.Selections(ctx, p)
				if err != nil {
					c.logger.Warn("selection count failed", zap.String("path", p), zap.Error(err))
					break
				}
				status.HistorySelections += n
			}
		}
	}
	if usage, err := storage.MeasureUsage(status.DatabasePath, cfg.History.Path); err == nil {
		status.DatabaseBytes = usage.Database
		status.WALBytes = usage.WAL
		status.JournalBytes = usage.Journal
		status.HistoryBytes = usage.History
	} else {
		c.logger.Warn("disk usage failed", zap.Error(err))
	}
	return status
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat, cli.OutputText)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	components := initializeComponents(ctx, cfg, logger)
	defer components.Close()

	if err := cli.WriteStatus(os.Stdout, buildStatus(ctx, components), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// writeDefaultConfig writes the default config to path unless it exists and force is false.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path (default: $XDG_CONFIG_HOME/rofi-zotero/config.yaml)")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	path := *configPath
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resolve config path: %v\n", err)
			os.Exit(1)
		}
		path = def
	}
	if err := writeDefaultConfig(path, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

func printUsage() {
	fmt.Println(`rofi-zotero - Open Zotero PDF/DJVU attachments from rofi

Usage:
  rofi-zotero rofi [selection]            rofi script mode (rofi -show zotero -modi "zotero:rofi-zotero rofi")
  rofi-zotero list [flags]                Print ranked entries, one per line (dmenu input)
  rofi-zotero open [flags] [selection]    Open an entry and record it in the history
  rofi-zotero search [flags] <query>      Search entries
  rofi-zotero watch [flags]               Keep a list file up to date while Zotero writes
  rofi-zotero status [flags]              Show library, history and disk usage
  rofi-zotero init [flags]                Write a default config file
  rofi-zotero version                     Show version
  rofi-zotero help                        Show this help

Common Flags:
  --config string    Config file path (default: $XDG_CONFIG_HOME/rofi-zotero/config.yaml)
  --debug            Enable debug logging

List Flags:
  --filter string    Only list entries matching this query
  --method string    Matching method: normal, prefix, fuzzy, typo, regex
  --output string    Output format: plain, text, or json (default: plain)

Search Flags:
  --limit int        Maximum number of results (default: 50)
  --offset int       Number of results to skip
  --method string    Matching method: normal, prefix, fuzzy, typo, regex
  --output string    Output format: text, plain, or json (default: text)

Watch Flags:
  --output-path string   List file to rewrite on changes (default from config)

Environment:
  ROFI_ZOTERO_LIBRARY        Zotero library root (default: ~/Zotero)
  ROFI_ZOTERO_DEBUG          Enable debug logging
  ROFI_ZOTERO_OPEN_COMMAND   Command used to open attachments (default: xdg-open)

Examples:
  rofi -show zotero -modi "zotero:rofi-zotero rofi"
  rofi-zotero list | rofi -dmenu -i | rofi-zotero open
  rofi-zotero search --method fuzzy attn
  rofi-zotero search --output json "deep learning"
  rofi-zotero status --output json`)
}
