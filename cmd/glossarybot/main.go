// Package main contains the entrypoint for the GlossaryBot application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edgard/glossarybot/internal/adapter/chat/slack"
	"github.com/edgard/glossarybot/internal/adapter/chat/telegram"
	"github.com/edgard/glossarybot/internal/bot"
	"github.com/edgard/glossarybot/internal/bot/handlers"
	"github.com/edgard/glossarybot/internal/bot/tasks"
	"github.com/edgard/glossarybot/internal/config"
	"github.com/edgard/glossarybot/internal/database"
	"github.com/edgard/glossarybot/internal/logger"
	"github.com/edgard/glossarybot/internal/port/chat"
)

const defaultConfigPath = "./config.yaml"

// TransportFactory creates the chat transport selected by the configuration.
type TransportFactory func(cfg *config.Config, log *slog.Logger) (chat.Transport, error)

// DefaultTransportFactory builds the Slack or Telegram transport.
func DefaultTransportFactory(cfg *config.Config, log *slog.Logger) (chat.Transport, error) {
	switch cfg.Transport.Kind {
	case config.TransportSlack:
		t, err := slack.New(cfg.Transport.Token, log)
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TransportTelegram:
		t, err := telegram.New(cfg.Transport.Token, cfg.Transport.TelegramChats, log)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: unknown transport kind %q", config.ErrConfiguration, cfg.Transport.Kind)
	}
}

// Options carries the dependencies the commands use, so tests can swap
// them out.
type Options struct {
	TransportFactory TransportFactory
	Stdout           io.Writer
	LogOutput        io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx, os.Args[1:], Options{})
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run executes the command line in args and returns the process exit code:
// 0 for success or signal-driven shutdown, 1 for any failure.
func run(ctx context.Context, args []string, opts Options) int {
	if opts.TransportFactory == nil {
		opts.TransportFactory = DefaultTransportFactory
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}

	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(opts.Stdout)

	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(opts Options) *cobra.Command {
	var configPath string

	startBot := func(cmd *cobra.Command, _ []string) error {
		return runBot(cmd.Context(), configPath, opts)
	}

	root := &cobra.Command{
		Use:           "glossarybot",
		Short:         "glossarybot - answers glossary questions in chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          startBot,
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the chat platform and answer queries",
		Args:  cobra.NoArgs,
		RunE:  startBot,
	}

	var storePath string
	initCmd := &cobra.Command{
		Use:   "init-store",
		Short: "Create an empty glossary store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInitStore(configPath, storePath, opts)
		},
	}
	initCmd.Flags().StringVar(&storePath, "store", "", "Path of the store to create (defaults to database.path)")

	lookupCmd := &cobra.Command{
		Use:   "lookup TERM",
		Short: "Print the stored description of a term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd.Context(), configPath, args[0], opts)
		},
	}

	root.AddCommand(runCmd, initCmd, lookupCmd)
	return root
}

// runBot initializes and starts all application components (config,
// logger, store, transport, handler, scheduler), and blocks until ctx is
// cancelled or the transport fails.
func runBot(ctx context.Context, configPath string, opts Options) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return err
	}

	log := logger.New(opts.LogOutput, cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	// The store is opened before anything touches the chat platform.
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open glossary store", "path", cfg.Database.Path, "error", err)
		return err
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	transport, err := opts.TransportFactory(cfg, log)
	if err != nil {
		log.Error("Failed to create chat transport", "kind", cfg.Transport.Kind, "error", err)
		return err
	}

	handler := handlers.NewGlossaryHandler(handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Transport: transport,
	})

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	})
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return err
	}

	app := bot.NewBot(log, transport, handler, sched)

	log.Info("Starting bot...", "transport", transport.Name(), "bot_name", cfg.Bot.Name, "trigger", cfg.Bot.Trigger)
	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Bot stopped due to error", "error", err)
		return err
	}

	log.Info("Bot stopped gracefully.")
	return nil
}

func runInitStore(configPath, storePath string, opts Options) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return err
	}
	slog.SetDefault(logger.New(opts.LogOutput, cfg.Log.Level, cfg.Log.JSON))

	if storePath == "" {
		storePath = cfg.Database.Path
	}

	if dir := filepath.Dir(database.ExtractDBNameFromPath(storePath)); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Failed to create store directory", "dir", dir, "error", err)
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := database.Create(storePath)
	if err != nil {
		slog.Error("Failed to create glossary store", "path", storePath, "error", err)
		return err
	}
	database.CloseDB(db)

	fmt.Fprintf(opts.Stdout, "Created glossary store at %s\n", storePath)
	return nil
}

func runLookup(ctx context.Context, configPath, term string, opts Options) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return err
	}
	log := logger.New(opts.LogOutput, cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open glossary store", "path", cfg.Database.Path, "error", err)
		return err
	}
	defer database.CloseDB(db)

	entry, err := database.NewStore(db, log).LookupTerm(ctx, term)
	if err != nil {
		if errors.Is(err, database.ErrTermNotFound) {
			fmt.Fprintf(opts.Stdout, "%s: no definition found\n", term)
			return err
		}
		log.Error("Failed to look up term", "term", term, "error", err)
		return err
	}

	fmt.Fprintln(opts.Stdout, entry.Description.String)
	if entry.Prerequisites.String != "" {
		fmt.Fprintf(opts.Stdout, "Prerequisites: %s\n", entry.Prerequisites.String)
	}
	return nil
}
