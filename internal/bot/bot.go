// Package bot wires the relay's long-running components together and manages
// their lifecycle: the VK long-poll loop, the Telegram command listener and
// the maintenance scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/vkrelay/internal/vk"
)

// Poller delivers raw VK long-poll updates to a handler until ctx ends.
type Poller interface {
	Run(ctx context.Context, handle vk.EventHandler) error
}

// Bot represents the relay application.
type Bot struct {
	logger    *slog.Logger
	poller    Poller
	handle    vk.EventHandler
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates the orchestrator. handle receives every VK update in order.
func NewBot(
	logger *slog.Logger,
	poller Poller,
	handle vk.EventHandler,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		poller:    poller,
		handle:    handle,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of them
// fails. Cancellation is not reported as an error.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting relay orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting VK long poll relay...")
		err := b.poller.Run(gCtx, b.handle)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("vk long poll stopped: %w", err)
		}
		if gCtx.Err() == nil {
			return fmt.Errorf("vk long poll stopped unexpectedly")
		}
		b.logger.Info("VK long poll relay stopped.")
		return nil
	})

	if b.tgBot != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram bot listener...")
			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram bot listener stopped.")

			if gCtx.Err() == nil {
				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	if b.scheduler != nil {
		g.Go(func() error {
			b.logger.Info("Starting scheduler...")
			if _, err := b.scheduler.Start(gCtx); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	b.logger.Info("Relay orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Relay orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Relay orchestrator stopped gracefully.")
	return nil
}
