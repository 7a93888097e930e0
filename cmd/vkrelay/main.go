// Package main contains the entrypoint for the VK to Telegram relay.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vkrelay/internal/bot"
	"github.com/edgard/vkrelay/internal/bot/handlers"
	"github.com/edgard/vkrelay/internal/bot/tasks"
	"github.com/edgard/vkrelay/internal/config"
	"github.com/edgard/vkrelay/internal/database"
	"github.com/edgard/vkrelay/internal/logger"
	"github.com/edgard/vkrelay/internal/relay"
	"github.com/edgard/vkrelay/internal/telegram"
	"github.com/edgard/vkrelay/internal/vk"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	chats, err := config.LoadChatMapping(cfg.Relay.ChatsFile)
	if err != nil {
		log.Error("Failed to load chat mapping", "path", cfg.Relay.ChatsFile, "error", err)
		return 1
	}
	log.Info("Chat mapping loaded", "path", cfg.Relay.ChatsFile, "chats", len(chats))

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)
	if err := store.Ping(ctx); err != nil {
		log.Error("Database is not reachable", "path", cfg.Database.Path, "error", err)
		return 1
	}

	vkClient := vk.NewClient(cfg.VK, log)
	poller := vk.NewPoller(vkClient, cfg.VK, log)

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(context.Context, *tgbot.Bot, *models.Update) {}),
		tgbot.WithErrorsHandler(func(err error) {
			log.Error("Telegram bot error", "error", err)
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	correlations := relay.NewCorrelationStore()
	deps := relay.Deps{
		Logger:       log,
		Config:       cfg,
		Chats:        chats,
		Source:       vkClient,
		Destination:  telegram.NewSender(tg, log),
		Correlations: correlations,
	}
	if cfg.Database.JournalEnabled {
		deps.Journal = store
	}
	dispatcher := relay.NewDispatcher(deps)

	hDeps := handlers.HandlerDeps{
		Logger:       log,
		Config:       cfg,
		Store:        store,
		Correlations: correlations,
		Chats:        chats,
	}
	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, poller, dispatcher.Handle, tg, sched)

	log.Info("Starting relay...")
	runErr := app.Run(ctx)
	log.Info("Relay run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Relay stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Relay stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
