// Package main is the entry point for the stormhost plugin host.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/stormhost/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

type cliOptions struct {
	configPath  string
	pluginDir   string
	batchFile   string
	logLevel    string
	interactive bool
	files       []string
}

func run() int {
	opts := parseFlags()

	cfg, err := app.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stormhost: %v\n", err)
		return 1
	}
	if opts.pluginDir != "" {
		cfg.Paths.Plugins = append([]string{opts.pluginDir}, cfg.Paths.Plugins...)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	switch {
	case opts.interactive:
		cfg.UI.Frontend = app.FrontendTerm
	case opts.batchFile != "":
		// Batch runs are headless unless a terminal was asked for.
		cfg.UI.Frontend = app.FrontendNull
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stormhost: %v\n", err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.OpenFiles(opts.files)

	if opts.batchFile != "" {
		batch, err := app.LoadBatch(opts.batchFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stormhost: %v\n", err)
			return 1
		}
		if err := application.RunBatch(ctx, batch); err != nil {
			fmt.Fprintf(os.Stderr, "stormhost: %v\n", err)
			return 1
		}
		return 0
	}

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "stormhost: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.pluginDir, "plugins", "", "Extra plugin directory, searched first")
	flag.StringVar(&opts.pluginDir, "p", "", "Extra plugin directory (shorthand)")
	flag.StringVar(&opts.batchFile, "run", "", "Batch file to execute and exit")
	flag.StringVar(&opts.batchFile, "r", "", "Batch file to execute and exit (shorthand)")
	flag.BoolVar(&opts.interactive, "interactive", false, "Use the interactive terminal frontend")
	flag.BoolVar(&opts.interactive, "i", false, "Use the interactive terminal frontend (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Stormhost - headless plugin host\n\n")
		fmt.Fprintf(os.Stderr, "Usage: stormhost [options] [files...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stormhost                     Start with the configured plugins\n")
		fmt.Fprintf(os.Stderr, "  stormhost notes.txt           Open a file\n")
		fmt.Fprintf(os.Stderr, "  stormhost -run job.yaml       Execute a batch file and exit\n")
		fmt.Fprintf(os.Stderr, "  stormhost -i                  Interactive terminal session\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("Stormhost %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "stormhost: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
			os.Exit(1)
		}
	}

	opts.files = flag.Args()
	return opts
}
