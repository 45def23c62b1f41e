// Package main renders the monthly conservation brief and optionally emails it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"blueduck/internal/aggregator"
	"blueduck/internal/brief"
	"blueduck/internal/config"
	"blueduck/internal/formatter"
	"blueduck/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (default configs/conservation.yaml if present)")
	envFile := flag.String("env", ".env", "Path to .env file with API keys and SMTP credentials")
	output := flag.String("output", "", "Write the brief to this path (.md for markdown, .html for HTML)")
	send := flag.Bool("send", false, "Email the brief using the brief.smtp_* settings")

	flag.Parse()

	if err := config.LoadEnv(*envFile); err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	cfg, _, err := config.LoadOrDefault(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v\n", err)
	}

	appLogger := logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	creds := config.CredentialsFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, report := aggregator.New(cfg, appLogger).FetchAllWithReport(ctx, aggregator.OptionsFromCredentials(creds))
	for _, name := range report.Skipped() {
		fmt.Fprintf(os.Stderr, "⚠️  %s skipped: missing API key\n", name)
	}

	if cfg.Brief.MaxItems > 0 && len(items) > cfg.Brief.MaxItems {
		items = items[:cfg.Brief.MaxItems]
	}

	now := time.Now()
	markdown := formatter.FormatBrief(items, cfg.Brief.Title, now)
	subject := fmt.Sprintf("%s: %s", cfg.Brief.Title, now.Format("January 2006"))

	renderer := brief.NewRenderer()

	msg, err := renderer.Compose(subject, markdown)
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	switch {
	case *output == "":
		fmt.Print(markdown)
	case strings.EqualFold(filepath.Ext(*output), ".html"):
		writeFile(*output, msg.HTML)
	default:
		writeFile(*output, markdown)
	}

	if !*send {
		return
	}

	sender := brief.NewSender(brief.EmailConfigFrom(cfg.Brief, creds), appLogger)
	if !sender.Enabled() {
		log.Fatalf("❌ Email not configured: set brief.smtp_server, brief.from_email and brief.to_email\n")
	}

	if err := sender.Send(msg); err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "📧 Brief sent to %s\n", cfg.Brief.ToEmail)
}

func writeFile(path, content string) {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		log.Fatalf("❌ Save failed: %v\n", err)
	}

	fmt.Fprintf(os.Stderr, "✅ Saved brief to: %s\n", path)
}
