package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"helpdesk_digest/internal/digest"
	"helpdesk_digest/internal/domain"
)

type Config struct {
	Token     string
	ChatID    string
	ServerURL string
}

// Telegram delivers digests to a single Telegram chat.
type Telegram struct {
	api    *bot.Bot
	chatID string
	logger *slog.Logger
}

func NewTelegram(cfg Config, logger *slog.Logger) (*Telegram, error) {
	opts := []bot.Option{bot.WithSkipGetMe()}
	if cfg.ServerURL != "" {
		opts = append(opts, bot.WithServerURL(cfg.ServerURL))
	}

	api, err := bot.New(strings.TrimSpace(cfg.Token), opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Telegram{
		api:    api,
		chatID: cfg.ChatID,
		logger: logger.With("chat_id", cfg.ChatID),
	}, nil
}

// Send delivers body as HTML with link previews disabled, split into parts
// that fit Telegram's message limit. It returns the number of parts sent.
func (t *Telegram) Send(ctx context.Context, body string) (int, error) {
	if strings.TrimSpace(body) == "" {
		return 0, nil
	}

	parts := digest.Split(body, digest.TelegramMaxLength)
	disabled := true

	for i, part := range parts {
		_, err := t.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    t.chatID,
			Text:      part,
			ParseMode: models.ParseModeHTML,
			LinkPreviewOptions: &models.LinkPreviewOptions{
				IsDisabled: &disabled,
			},
		})
		if err != nil {
			t.logger.Error("failed to send message",
				"part", i+1,
				"parts", len(parts),
				"error", err,
			)
			return i, &domain.DeliveryError{ChatID: t.chatID, Part: i + 1, Err: err}
		}

		t.logger.Debug("sent message part", "part", i+1, "parts", len(parts), "length", utf8.RuneCountInString(part))
	}

	t.logger.Info("digest delivered", "parts", len(parts))

	return len(parts), nil
}
