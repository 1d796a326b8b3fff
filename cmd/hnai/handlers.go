package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/maguenza/hackernews-ai-project/internal/config"
	"github.com/maguenza/hackernews-ai-project/internal/pipeline"
	"github.com/maguenza/hackernews-ai-project/internal/scheduler"
	"github.com/maguenza/hackernews-ai-project/internal/store"
	"github.com/maguenza/hackernews-ai-project/pkg/alert"
	"github.com/maguenza/hackernews-ai-project/pkg/chatbot"
	"github.com/maguenza/hackernews-ai-project/pkg/hnclient"
	"github.com/maguenza/hackernews-ai-project/pkg/server"
	"github.com/maguenza/hackernews-ai-project/pkg/transform"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildClient(cfg *config.Config) *hnclient.Client {
	return hnclient.New(hnclient.Config{
		BaseURL:        cfg.HackerNews.BaseURL,
		RequestsPerSec: cfg.HackerNews.RequestsPerSec,
		Timeout:        cfg.HackerNews.ParseTimeout(),
		MaxRetries:     uint64(cfg.HackerNews.MaxRetries),
	})
}

func buildChatbot(cfg *config.Config, db store.Store) (*chatbot.Chatbot, error) {
	if cfg.LLM.APIKey == "" {
		return nil, nil
	}
	provider, err := chatbot.NewProvider(chatbot.ProviderConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return chatbot.New(provider, chatbot.NewTools(db), cfg.SetupLogger(), cfg.LLM.MaxIterations), nil
}

func buildAlertManager(cfg *config.Config) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers)
}

func runIngest(from, to int64, discovery string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := cfg.SetupLogger()

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	client := buildClient(cfg)
	pipe := pipeline.New(client, db, log, "ingest")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var summary *pipeline.Summary
	switch {
	case from > 0 || to > 0:
		summary, err = pipe.RunRange(ctx, from, to)
	default:
		if discovery == "" {
			discovery = cfg.Pipeline.Discovery
		}
		if discovery == pipeline.DiscoveryIncremental {
			summary, err = pipe.RunIncremental(ctx, cfg.Pipeline.BatchSize)
			break
		}
		if limit == 0 {
			limit = cfg.Pipeline.DiscoveryLimit
		}
		var ids []int64
		ids, err = pipeline.Discover(ctx, client, discovery, limit, cfg.Pipeline.FrontPageFeed)
		if err != nil {
			return fmt.Errorf("discover ids: %w", err)
		}
		summary, err = pipe.RunIDs(ctx, ids)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "ingest %s: fetched %d, transformed %d, loaded %d, skipped %d, failed %d\n",
		summary.State, summary.Fetched, summary.Transformed, summary.Loaded, summary.Skipped, summary.Failed)
	for reason, count := range summary.SkipReasons {
		fmt.Fprintf(os.Stderr, "  skipped %s: %d\n", reason, count)
	}
	return nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := cfg.SetupLogger()

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	bot, err := buildChatbot(cfg, db)
	if err != nil {
		return fmt.Errorf("build chatbot: %w", err)
	}
	if bot == nil {
		log.Warn("no LLM api key configured, chat endpoints disabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(db, bot, log, port)
	return srv.ListenAndServe(ctx)
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := cfg.SetupLogger()

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	client := buildClient(cfg)
	pipe := pipeline.New(client, db, log, "ingest")
	alertMgr := buildAlertManager(cfg)

	bot, err := buildChatbot(cfg, db)
	if err != nil {
		return fmt.Errorf("build chatbot: %w", err)
	}
	if bot == nil {
		log.Warn("no LLM api key configured, chat endpoints disabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(pipe, client, alertMgr, log, scheduler.Config{
		Interval:       cfg.Pipeline.ParseIngestInterval(),
		BatchSize:      cfg.Pipeline.BatchSize,
		Discovery:      cfg.Pipeline.Discovery,
		DiscoveryLimit: cfg.Pipeline.DiscoveryLimit,
		FrontPageFeed:  cfg.Pipeline.FrontPageFeed,
	})

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("scheduler error", "err", err)
		}
	}()

	srv := server.New(db, bot, log, port)
	return srv.ListenAndServe(ctx)
}

func runUser(username string, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Refresh the profile from upstream before reporting.
	raw, err := buildClient(cfg).FetchUser(ctx, username)
	switch {
	case errors.Is(err, hnclient.ErrNotFound):
		// Not a registered user upstream; fall through to whatever is stored.
	case err != nil:
		return fmt.Errorf("fetch user %s: %w", username, err)
	default:
		u, terr := transform.TransformUser(raw)
		if terr != nil {
			return fmt.Errorf("transform user %s: %w", username, terr)
		}
		if _, lerr := db.Load(ctx, u); lerr != nil {
			return fmt.Errorf("load user %s: %w", username, lerr)
		}
	}

	info, err := db.UserInfo(ctx, username)
	if err != nil {
		return fmt.Errorf("user info: %w", err)
	}
	if info == nil {
		return fmt.Errorf("user %q not found", username)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Printf("user:     %s\n", info.Username)
	fmt.Printf("karma:    %d\n", info.Karma)
	fmt.Printf("since:    %s\n", info.CreatedAt.Format(time.RFC3339))
	fmt.Printf("stories:  %d\n", info.StoryCount)
	fmt.Printf("comments: %d\n", info.CommentCount)
	if info.About != "" {
		fmt.Printf("about:    %s\n", info.About)
	}
	return nil
}

func runStats() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	counts, err := db.Counts(ctx)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}
	hwm, err := db.HighWaterMark(ctx, "ingest")
	if err != nil {
		return fmt.Errorf("read cursor: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS")
	for _, table := range []string{"users", "stories", "comments", "jobs"} {
		fmt.Fprintf(w, "%s\t%d\n", table, counts[table])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ningest cursor: %d\n", hwm)
	return nil
}
