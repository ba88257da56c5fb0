package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"coloring-book-generator/internal/domain/ports/adapter"
)

var _ adapter.BookletNotifier = (*NoopNotifier)(nil)

// NoopNotifier logs deliveries instead of sending them.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(log *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: log}
}

func (n *NoopNotifier) SendBooklet(_ context.Context, fileName string, data []byte, caption string) error {
	n.log.Debug().Str("file", fileName).Int("bytes", len(data)).Str("caption", caption).Msg("[noop-telegram] booklet")
	return nil
}
