// Command siteclone crawls a single site and writes a browsable on-disk
// mirror with rewritten internal links.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cametumbling/siteclone/internal/blacklist"
	"github.com/cametumbling/siteclone/internal/config"
	"github.com/cametumbling/siteclone/internal/executor"
	"github.com/cametumbling/siteclone/internal/fetch"
	"github.com/cametumbling/siteclone/internal/logx"
	"github.com/cametumbling/siteclone/internal/report"
)

type cliOptions struct {
	url            string
	save           string
	saveSet        bool
	workers        int
	workersSet     bool
	maxDepth       int
	maxDepthSet    bool
	scope          string
	scopeSet       bool
	configPath     string
	generateConfig string
	generateSet    bool
	debugLog       bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:           "siteclone",
		Short:         "siteclone mirrors a single site to a browsable local copy",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.saveSet = cmd.Flags().Changed("save")
			opts.workersSet = cmd.Flags().Changed("workers")
			opts.maxDepthSet = cmd.Flags().Changed("max-depth")
			opts.scopeSet = cmd.Flags().Changed("scope")
			opts.generateSet = cmd.Flags().Changed("generate-config")
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.url, "url", "u", "", "Seed URL to crawl (overrides config)")
	flags.StringVarP(&opts.save, "save", "s", "", "Enable mirror output; directory defaults to the configured output directory")
	flags.Lookup("save").NoOptDefVal = " "
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Worker pool size (overrides config)")
	flags.IntVarP(&opts.maxDepth, "max-depth", "d", 0, "Maximum crawl depth (overrides config)")
	flags.StringVar(&opts.scope, "scope", "", "Comma-separated allowed domain list (supports *.example.com); with no argument, restricts to the seed host")
	flags.Lookup("scope").NoOptDefVal = " "
	flags.StringVarP(&opts.configPath, "config", "c", "config.toml", "Alternate config file path")
	flags.StringVarP(&opts.generateConfig, "generate-config", "g", "config.toml", "Write a default config to path and exit")
	flags.Lookup("generate-config").NoOptDefVal = "config.toml"
	flags.BoolVar(&opts.debugLog, "debug", false, "Enable debug-level logging")

	return cmd
}

func run(ctx context.Context, opts *cliOptions) error {
	if opts.generateSet {
		path := opts.generateConfig
		if path == "" {
			path = "config.toml"
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Default config written to %s\n", path)
		return nil
	}

	cfg, existed, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger := logx.New(logx.Options{Debug: opts.debugLog})
	if !existed {
		logger.Warn().Str("path", opts.configPath).Msg("config file not found, using defaults")
	}

	seed := cfg.Crawler.BaseURL
	if opts.url != "" {
		seed = opts.url
	}
	if seed == "" {
		return fmt.Errorf("no seed URL: pass -u/--url or set crawler.base_url in the config")
	}

	workers := cfg.Crawler.WorkerCount
	if opts.workersSet {
		workers = opts.workers
	}
	maxDepth := cfg.Crawler.MaxDepth
	if opts.maxDepthSet {
		maxDepth = opts.maxDepth
	}

	cfg.Crawler.WorkerCount = workers
	cfg.Crawler.MaxDepth = maxDepth
	if err := config.Validate(cfg); err != nil {
		return err
	}

	var allowedDomains []string
	if opts.scopeSet {
		trimmed := opts.scope
		if trimmed == " " {
			trimmed = ""
		}
		if trimmed == "" {
			allowedDomains = seedHostScope(seed)
		} else {
			allowedDomains = config.ParseScope(trimmed)
		}
	}

	bf, _, err := config.LoadBlacklist("blacklist.toml")
	if err != nil {
		return err
	}
	bl := blacklist.New(bf.URLs, bf.Domains, bf.Patterns, func(pattern string) {
		logger.Warn().Str("pattern", pattern).Msg("invalid blacklist regex, skipped")
	})

	outputDir := ""
	if opts.saveSet {
		outputDir = opts.save
		if outputDir == "" || outputDir == " " {
			outputDir = cfg.Output.DefaultSaveDir
		}
	}

	client := fetch.New(fetch.Config{
		Timeout:     cfg.RequestTimeout(),
		UserAgent:   cfg.Crawler.UserAgent,
		Concurrency: workers,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	resultCh := make(chan crawlOutcome, 1)
	go func() {
		result, err := executor.Run(runCtx, executor.Config{
			SeedURL:        seed,
			Workers:        workers,
			MaxDepth:       maxDepth,
			MaxPages:       cfg.Crawler.MaxPages,
			AllowedDomains: allowedDomains,
			OutputDir:      outputDir,
			Fetcher:        client,
			Blacklist:      bl,
			Logger:         logger,
		})
		resultCh <- crawlOutcome{result: result, err: err}
	}()

	select {
	case outcome := <-resultCh:
		if outcome.err != nil {
			return outcome.err
		}
		report.Write(os.Stdout, outcome.result)
		return nil
	case sig := <-sigCh:
		logger.Warn().Str("signal", sig.String()).Msg("shutting down gracefully")
		cancel()
		select {
		case outcome := <-resultCh:
			if outcome.result != nil {
				report.Write(os.Stdout, outcome.result)
			}
			return outcome.err
		case <-time.After(5 * time.Second):
			return fmt.Errorf("shutdown timeout exceeded, forcing exit")
		}
	}
}

type crawlOutcome struct {
	result *executor.CrawlResult
	err    error
}

func seedHostScope(seed string) []string {
	parsed, err := url.Parse(seed)
	if err != nil || parsed.Hostname() == "" {
		return nil
	}
	return []string{parsed.Hostname()}
}
