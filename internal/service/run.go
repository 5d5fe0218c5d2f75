package service

import (
	"context"
	"log"
	"time"
)

const (
	pollTimeoutSec = 30
	pollRetryDelay = 3 * time.Second
)

// Run long-polls the Bot API for updates and handles each one start to
// finish before taking the next. It returns when the context is cancelled.
// Only one gateway instance may poll a bot token at a time; Telegram rejects
// concurrent getUpdates consumers.
func (s *Service) Run(ctx context.Context) error {
	var offset int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := s.bot.GetUpdates(ctx, offset, pollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("WARN: failed to fetch updates: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			msg := update.Message
			if msg == nil {
				continue
			}

			switch {
			case msg.Document != nil:
				s.HandleDocument(ctx, msg)
			case msg.Text != "":
				s.HandleMessage(ctx, msg)
			}
		}
	}
}
