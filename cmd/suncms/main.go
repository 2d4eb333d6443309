// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// suncms is the admin CLI for the Sunward blog engine.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sunward/suncms/internal/ai"
	"github.com/sunward/suncms/internal/cache"
	"github.com/sunward/suncms/internal/config"
	"github.com/sunward/suncms/internal/dashboard"
	"github.com/sunward/suncms/internal/geoip"
	"github.com/sunward/suncms/internal/logging"
	"github.com/sunward/suncms/internal/markdown"
	"github.com/sunward/suncms/internal/model"
	"github.com/sunward/suncms/internal/store"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
)

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "suncms - Sunward blog admin\n\n")
	_, _ = fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "Commands:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  migrate            Apply database migrations\n")
	_, _ = fmt.Fprintf(os.Stderr, "  seed               Create the admin user and sample posts\n")
	_, _ = fmt.Fprintf(os.Stderr, "  save               Create or update a post\n")
	_, _ = fmt.Fprintf(os.Stderr, "  publish            Publish or unpublish a post\n")
	_, _ = fmt.Fprintf(os.Stderr, "  archive            Archive a post\n")
	_, _ = fmt.Fprintf(os.Stderr, "  list               List posts\n")
	_, _ = fmt.Fprintf(os.Stderr, "  draft              Save a Markdown file as a draft\n")
	_, _ = fmt.Fprintf(os.Stderr, "  metrics            Print the dashboard metrics\n")
	_, _ = fmt.Fprintf(os.Stderr, "  chat               Send one message to the AI assistant\n")
	_, _ = fmt.Fprintf(os.Stderr, "  version            Show version information\n")
	_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  SUNCMS_DB_PATH       SQLite database path (default: ./data/suncms.db)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  SUNCMS_DATA_DIR      Data directory for JSON stores (default: ./data)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  SUNCMS_LOG_LEVEL     Log level: debug|info|warn|error (default: info)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  SUNCMS_REDIS_URL     Redis URL for listing cache (optional)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  SUNCMS_METRICS_DIR   Visit log directory (default: ./data/metrics)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  SUNCMS_GEOIP_DB_PATH GeoLite2-Country.mmdb path (optional)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  SUNCMS_AI_API_KEY    AI provider key override (optional)\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "version", "-v", "--version":
		fmt.Printf("suncms %s (commit: %s)\n", appVersion, appGitCommit)
		return
	case "help", "-h", "--help":
		usage()
		return
	}

	if err := run(cmd, args); err != nil {
		if model.IsValidation(err) {
			_, _ = fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
			os.Exit(2)
		}
		slog.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

// app bundles everything a subcommand may need.
type app struct {
	cfg   *config.Config
	db    *sql.DB
	store *store.Store
}

func run(cmd string, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("closing database", "error", err)
		}
	}()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s := store.New(db)

	// Forward WARN and above to the events table from here on.
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(logging.NewEventLogHandler(textHandler, s)))

	listCache, err := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix + "posts:",
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	})
	if err != nil {
		slog.Warn("cache unavailable, continuing without listing cache", "error", err)
	} else {
		s.EnableListCache(listCache)
		defer func() { _ = listCache.Close() }()
	}

	a := &app{cfg: cfg, db: db, store: s}
	ctx := context.Background()

	if cfg.DoSeed && cmd != "seed" {
		if err := s.Seed(ctx); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	switch cmd {
	case "migrate":
		// Migrations already ran above.
		fmt.Println("database is up to date")
		return nil
	case "seed":
		return a.store.Seed(ctx)
	case "save":
		return a.cmdSave(ctx, args)
	case "publish":
		return a.cmdPublish(ctx, args)
	case "archive":
		return a.cmdArchive(ctx, args)
	case "list":
		return a.cmdList(ctx, args)
	case "draft":
		return a.cmdDraft(ctx, args)
	case "metrics":
		return a.cmdMetrics(args)
	case "chat":
		return a.cmdChat(ctx, args)
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// actor builds the acting identity for audit entries. The CLI acts as
// the seed admin when it exists, otherwise as the system.
func (a *app) actor(ctx context.Context) model.Actor {
	admin, err := a.store.GetUserByEmail(ctx, store.SeedAdminEmail)
	if err != nil {
		return model.Actor{Name: "system"}
	}
	return model.Actor{ID: admin.ID, Name: admin.Name}
}

func (a *app) cmdSave(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	id := fs.Int64("id", 0, "post id to update (0 creates a new post)")
	title := fs.String("title", "", "post title")
	slug := fs.String("slug", "", "post slug (derived from title when empty)")
	body := fs.String("body", "", "post body HTML, or @file to read from a file")
	excerpt := fs.String("excerpt", "", "post excerpt")
	coverImage := fs.String("cover", "", "cover image URL")
	status := fs.String("status", "", "draft|pending|published|archived")
	tags := fs.String("tags", "", "comma-separated tag names")
	author := fs.String("author", "", "author display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	bodyHTML := *body
	if strings.HasPrefix(bodyHTML, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(bodyHTML, "@"))
		if err != nil {
			return fmt.Errorf("reading body file: %w", err)
		}
		bodyHTML = string(data)
	}

	post, err := a.store.Save(ctx, model.PostInput{
		ID:         *id,
		Title:      *title,
		Slug:       *slug,
		Excerpt:    *excerpt,
		BodyHTML:   bodyHTML,
		CoverImage: *coverImage,
		AuthorName: *author,
		Status:     *status,
		Tags:       splitTags(*tags),
	}, a.actor(ctx))
	if errors.Is(err, model.ErrDuplicateSlug) {
		return fmt.Errorf("slug is already in use, pass -slug to choose another: %w", err)
	}
	if err != nil {
		return err
	}

	fmt.Printf("saved post %d: %s (%s)\n", post.ID, post.Title, post.Status)
	return nil
}

func (a *app) cmdPublish(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	id := fs.Int64("id", 0, "post id")
	undo := fs.Bool("undo", false, "unpublish instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	post, err := a.store.Publish(ctx, *id, !*undo, a.actor(ctx))
	if err != nil {
		return err
	}
	fmt.Printf("post %d is now %s\n", post.ID, post.Status)
	return nil
}

func (a *app) cmdArchive(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	id := fs.Int64("id", 0, "post id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.store.Archive(ctx, *id, a.actor(ctx)); err != nil {
		return err
	}
	fmt.Printf("post %d archived\n", *id)
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	all := fs.Bool("all", false, "include drafts and archived posts")
	search := fs.String("search", "", "free-text filter")
	tag := fs.String("tag", "", "tag slug filter")
	limit := fs.Int64("limit", 20, "page size")
	offset := fs.Int64("offset", 0, "page offset")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var posts []model.PostSummary
	if *all {
		var err error
		posts, err = a.store.ListAll(ctx)
		if err != nil {
			return err
		}
	} else {
		total, page, err := a.store.ListPublished(ctx,
			model.PostFilters{Search: *search, Tag: *tag}, *limit, *offset)
		if err != nil {
			return err
		}
		fmt.Printf("%d published post(s)\n", total)
		posts = page
	}

	for _, p := range posts {
		published := "-"
		if p.PublishedAt.Valid {
			published = p.PublishedAt.Time.Format("2006-01-02")
		}
		fmt.Printf("%5d  %-10s  %-12s  %s\n", p.ID, p.Status, published, p.Title)
	}
	return nil
}

func (a *app) cmdDraft(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("draft", flag.ExitOnError)
	file := fs.String("file", "", "markdown file to import")
	title := fs.String("title", "", "post title")
	tags := fs.String("tags", "", "comma-separated tag names")
	topic := fs.String("topic", "", "generate the draft with the AI assistant instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var input model.PostInput
	switch {
	case *topic != "":
		assistant := ai.NewAssistant(a.cfg.DataDir)
		generated, err := assistant.DraftPost(ctx, *topic)
		if err != nil {
			return err
		}
		input = generated
		if *title != "" {
			input.Title = *title
		}
	case *file != "":
		source, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("reading markdown file: %w", err)
		}
		bodyHTML, err := markdown.Render(source)
		if err != nil {
			return err
		}
		input = model.PostInput{
			Title:    *title,
			BodyHTML: bodyHTML,
			Status:   model.PostStatusDraft,
		}
	default:
		return model.NewValidationError("file", "Pass -file or -topic")
	}

	if *tags != "" {
		input.Tags = splitTags(*tags)
	}

	post, err := a.store.Save(ctx, input, a.actor(ctx))
	if err != nil {
		return err
	}
	fmt.Printf("draft saved as post %d: %s\n", post.ID, post.Title)
	return nil
}

func (a *app) cmdMetrics(args []string) error {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print raw JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var geo *geoip.Resolver
	if a.cfg.GeoIPEnabled() {
		var err error
		geo, err = geoip.New(a.cfg.GeoIPDBPath)
		if err != nil {
			slog.Warn("geoip unavailable, skipping country breakdown", "error", err)
		} else {
			defer func() { _ = geo.Close() }()
		}
	}

	m, err := dashboard.NewLoader(a.cfg.MetricsDir, geo).Load()
	if err != nil {
		return fmt.Errorf("loading metrics: %w", err)
	}

	if *asJSON {
		return json.NewEncoder(os.Stdout).Encode(m)
	}

	fmt.Printf("visits: %d (unique IPs: %d)\n", m.TotalVisits, m.UniqueIPs)
	printBreakdown("top paths", m.TopPaths)
	printBreakdown("browsers", m.Browsers)
	printBreakdown("devices", m.Devices)
	if len(m.Countries) > 0 {
		printBreakdown("countries", m.Countries)
	}
	return nil
}

func printBreakdown(title string, entries []dashboard.CountEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, e := range entries {
		fmt.Printf("  %6d  %s\n", e.Count, e.Label)
	}
}

func (a *app) cmdChat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	clear := fs.Bool("clear", false, "discard the conversation history")
	if err := fs.Parse(args); err != nil {
		return err
	}

	assistant := ai.NewAssistant(a.cfg.DataDir)
	if *clear {
		return assistant.History().Clear()
	}

	message := strings.Join(fs.Args(), " ")
	reply, err := assistant.Chat(ctx, message)
	if errors.Is(err, ai.ErrDisabled) {
		return fmt.Errorf("enable the assistant and set an API key first: %w", err)
	}
	if err != nil {
		return err
	}
	fmt.Println(reply.Content)
	return nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
