package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/quillhq/issuegw/internal/config"
	"github.com/quillhq/issuegw/internal/issues"
	"github.com/quillhq/issuegw/internal/log"
	"github.com/quillhq/issuegw/internal/server"
	"github.com/quillhq/issuegw/internal/storage"
	"github.com/quillhq/issuegw/internal/store"
	"github.com/quillhq/issuegw/internal/webhook"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "start":
		return runStart(args)
	case "events":
		return runEvents(args)
	case "send":
		return runSend(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`issuegw - GitHub Issues gateway with webhook ingestion

Usage:
  issuegw <command> [flags]

Commands:
  start     Start the gateway service in foreground
  events    Show recently stored webhook events
  send      Sign and send a test webhook delivery
  version   Show version information
  help      Show this help message

Use 'issuegw <command> --help' for command-specific flags.
`)
}

// loadConfig resolves configuration: a YAML file when --config is given,
// environment variables otherwise. A .env file in the working directory is
// loaded first either way.
func loadConfig(configPath string) (*config.Config, error) {
	_ = godotenv.Load()

	if configPath != "" {
		return config.Load(configPath)
	}
	return config.FromEnv()
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file (default: environment variables)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("issuegw starting", "version", version, "repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo)

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	hooks := webhook.New(webhook.Config{
		Secret:  cfg.GitHub.WebhookSecret,
		Service: cfg.Service.Name,
	}, store.New(db), log.WithComponent("webhook"))

	proxy := issues.NewHandler(
		issues.NewService(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo),
		log.WithComponent("issues"),
	)

	srv := server.New(server.Config{Listen: cfg.Service.Listen}, hooks, proxy, log.WithComponent("server"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	logger.Info("issuegw running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		// Start returns once graceful shutdown completes.
		if err := <-errCh; err != nil && err != context.Canceled {
			logger.Error("shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logger.Error("server failed", "error", err)
			cancel()
			return 1
		}
	}

	logger.Info("issuegw stopped")
	return 0
}

func runEvents(args []string) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	limit := fs.Int("limit", store.DefaultRecentLimit, "Maximum number of events to show")
	jsonOut := fs.Bool("json", false, "Output events as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	events, err := store.New(db).Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to retrieve events: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	if len(events) == 0 {
		fmt.Println("No events stored.")
		return 0
	}
	for _, ev := range events {
		number := "-"
		if ev.IssueNumber != nil {
			number = fmt.Sprintf("#%d", *ev.IssueNumber)
		}
		fmt.Printf("%s  %-13s %-12s %-6s %s\n", ev.ReceivedAt.Format(time.RFC3339), ev.EventType, ev.Action, number, ev.DeliveryID)
	}
	return 0
}

func runSend(args []string) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	url := fs.String("url", "http://localhost:8000/webhook", "Webhook endpoint URL")
	secret := fs.String("secret", os.Getenv("WEBHOOK_SECRET"), "HMAC secret (or WEBHOOK_SECRET env var)")
	eventType := fs.String("event", "issues", "Event type header (issues, issue_comment, ping)")
	payloadFile := fs.String("payload-file", "", "Path to JSON payload file (default: built-in sample)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "Error: secret required. Use --secret or WEBHOOK_SECRET env var.")
		return 1
	}

	payload := []byte(`{"action":"opened","issue":{"number":1,"title":"Test issue"},"sender":{"login":"issuegw-send"}}`)
	if *payloadFile != "" {
		data, err := os.ReadFile(*payloadFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read payload file: %v\n", err)
			return 1
		}
		payload = data
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build request: %v\n", err)
		return 1
	}
	deliveryID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.HeaderEvent, *eventType)
	req.Header.Set(webhook.HeaderDelivery, deliveryID)
	req.Header.Set(webhook.HeaderSignature, webhook.FormatSignature(webhook.ComputeSignature(payload, *secret)))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delivery failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	fmt.Printf("Delivered %s event %s: %s\n", *eventType, deliveryID, resp.Status)
	if resp.StatusCode >= 300 {
		return 1
	}
	return 0
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	v := strings.TrimSpace(version)
	if v == "" {
		v = "0.0.0-dev"
	}
	commit := readBuildSetting("vcs.revision")
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if commit == "" {
		commit = "unknown"
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(map[string]string{
			"version": v,
			"commit":  commit,
		}, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("issuegw %s\n", v)
	fmt.Printf("commit: %s\n", commit)
	return 0
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
