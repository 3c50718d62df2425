// Package bot wires the glossary handler to its transport and scheduler
// and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/glossarybot/internal/port/chat"
)

// Bot represents the running application and manages its components'
// lifecycle.
type Bot struct {
	logger    *slog.Logger
	transport chat.Transport
	handler   chat.EventHandler
	scheduler *Scheduler
}

// NewBot creates a new instance of the bot. scheduler may be nil.
func NewBot(logger *slog.Logger, transport chat.Transport, handler chat.EventHandler, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		transport: transport,
		handler:   handler,
		scheduler: scheduler,
	}
}

// Run starts the transport and the scheduler and blocks until ctx is
// cancelled or one of them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...", "transport", b.transport.Name())

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting transport listener...")

		err := b.transport.Run(gCtx, b.handler)
		b.logger.Info("Transport listener stopped.")

		if gCtx.Err() == nil {
			if err == nil {
				err = errors.New("transport stopped unexpectedly")
			}
			b.logger.Warn("Transport listener stopped without context cancellation.", "error", err)
			return fmt.Errorf("%s transport: %w", b.transport.Name(), err)
		}
		return nil
	})

	if b.scheduler != nil {
		g.Go(func() error {
			b.logger.Info("Starting scheduler...")
			if err := b.scheduler.Start(); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
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

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
