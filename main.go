package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/auth"
	"github.com/fragmede/postdesk/internal/cache"
	"github.com/fragmede/postdesk/internal/config"
	"github.com/fragmede/postdesk/internal/loader"
	"github.com/fragmede/postdesk/internal/refresh"
	"github.com/fragmede/postdesk/internal/ui"
)

const usage = `usage: postdesk [command]

commands:
  (none)          start the terminal UI
  list            print all posts as JSON
  show ID [ID...] print the named posts as JSON
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() > 0 {
		os.Exit(runCommand(cfg, flag.Args(), os.Stdout, os.Stderr))
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg config.Config) error {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer db.Close()

	opts := []api.Option{api.WithTimeout(cfg.RequestTimeout), api.WithLogger(logger)}
	if cfg.PersistSession {
		opts = append(opts, api.WithCookieStore(db))
	}
	client, err := api.NewClient(cfg.BaseURL, opts...)
	if err != nil {
		return err
	}

	store := auth.NewStore(client, auth.WithLogger(logger), auth.WithInteractive(true))
	refresher := refresh.New(client.Fetch, cfg.RefreshInterval,
		refresh.WithCache(db, cfg.PostsTTL), refresh.WithLogger(logger))

	app := ui.NewApp(client, store, db, refresher, logger)
	defer app.Stop()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	app.Start(p)
	logger.Info("starting", "base_url", client.BaseURL())
	_, err = p.Run()
	return err
}

// runCommand runs a one-shot command against the API and returns the exit
// code. It never restores a session: the loaders see the server as an
// anonymous visitor would.
func runCommand(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	client, err := api.NewClient(cfg.BaseURL, api.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout+time.Second)
	defer cancel()

	var out any
	switch args[0] {
	case "list":
		data, err := loader.Posts(ctx, client.Fetch)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		out = data.Posts
	case "show":
		if len(args) < 2 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		posts, err := loader.EditPosts(ctx, client.Fetch, args[1:])
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		out = posts
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(b))
	return 0
}
