package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"coloring-book-generator/internal/config"
	"coloring-book-generator/internal/domain/ports/adapter"
)

var _ adapter.BookletNotifier = (*BookletNotifier)(nil)

// sender is the part of *tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BookletNotifier uploads exported booklets to one chat as documents.
type BookletNotifier struct {
	bot    sender
	chatID int64
}

func NewBookletNotifier(cfg config.TelegramConfig) (*BookletNotifier, error) {
	if !cfg.Enabled() {
		return nil, errors.New("telegram token and chat_id are required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &BookletNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

func (n *BookletNotifier) SendBooklet(ctx context.Context, fileName string, data []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(n.chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = caption
	if _, err := n.bot.Send(doc); err != nil {
		return fmt.Errorf("telegram send document: %w", err)
	}
	return nil
}
