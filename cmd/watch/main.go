// Package main provides the watch command: one aggregation run printed as a
// markdown table or written as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blueduck/internal/aggregator"
	"blueduck/internal/config"
	"blueduck/internal/formatter"
	"blueduck/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (default configs/conservation.yaml if present)")
	envFile := flag.String("env", ".env", "Path to .env file with API keys")
	format := flag.String("format", "table", "Output format: table or json")
	output := flag.String("output", "", "Write output to this file instead of stdout")
	verbose := flag.Bool("verbose", false, "Log at debug level regardless of config")
	writeConfig := flag.String("write-config", "", "Write the effective configuration to this path and exit")
	showUsage := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *showUsage {
		printUsage()
		os.Exit(0)
	}

	if *format != "table" && *format != "json" {
		log.Fatalf("❌ Unknown format %q (want table or json)\n", *format)
	}

	if err := config.LoadEnv(*envFile); err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	cfg, from, err := config.LoadOrDefault(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Configuration: %s\n", from)
	fmt.Fprintf(os.Stderr, "✅ %s\n\n", cfg)

	if *writeConfig != "" {
		if err := cfg.SaveConfig(*writeConfig); err != nil {
			log.Fatalf("❌ %v\n", err)
		}

		fmt.Fprintf(os.Stderr, "✅ Configuration written to: %s\n", *writeConfig)

		return
	}

	appLogger := logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if *verbose {
		appLogger.SetLevel("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(os.Stderr, "🚀 Fetching conservation news...")

	agg := aggregator.New(cfg, appLogger)
	items, report := agg.FetchAllWithReport(ctx, aggregator.OptionsFromCredentials(config.CredentialsFromEnv()))

	printReport(report)

	switch {
	case *format == "json" && *output != "":
		feed := formatter.Feed{GeneratedAt: time.Now().UTC(), Report: report, Items: items}
		if err := formatter.SaveJSON(feed, *output); err != nil {
			log.Fatalf("❌ Save failed: %v\n", err)
		}

		fmt.Fprintf(os.Stderr, "✅ Saved %d items to: %s\n", len(items), *output)
	case *format == "json":
		feed := formatter.Feed{GeneratedAt: time.Now().UTC(), Report: report, Items: items}
		if err := formatter.WriteJSON(os.Stdout, feed, true); err != nil {
			log.Fatalf("❌ %v\n", err)
		}
	case *output != "":
		if err := os.WriteFile(*output, []byte(formatter.FormatTable(items)), 0644); err != nil {
			log.Fatalf("❌ Save failed: %v\n", err)
		}

		fmt.Fprintf(os.Stderr, "✅ Saved %d items to: %s\n", len(items), *output)
	default:
		fmt.Print(formatter.FormatTable(items))
	}
}

func printReport(report aggregator.Report) {
	fmt.Fprintf(os.Stderr, "📊 Run %s finished in %.2fs\n", report.RunID, report.Duration.Seconds())

	for _, s := range report.Sources {
		if s.Skipped {
			fmt.Fprintf(os.Stderr, "⚠️  %s skipped (%s)\n", s.Name, s.Reason)
			continue
		}

		fmt.Fprintf(os.Stderr, "   %-18s fetched %3d, used %3d\n", s.Name, s.Fetched, s.Used)
	}

	fmt.Fprintf(os.Stderr, "✨ %d items in feed\n\n", report.Total)
}

func printUsage() {
	fmt.Println("Usage: watch [flags]")
	fmt.Println()
	fmt.Println("Fetches Federal Register, CourtListener, Regulations.gov and OpenStates")
	fmt.Println("results and prints one combined feed, newest first.")
	fmt.Println()
	fmt.Println("Regulations.gov and OpenStates run only when REGULATIONS_API_KEY and")
	fmt.Println("OPENSTATES_API_KEY are set in the environment or the .env file.")
	fmt.Println()
	flag.PrintDefaults()
}
