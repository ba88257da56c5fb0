package adapter

import "context"

// BookletNotifier delivers a finished booklet to a chat.
type BookletNotifier interface {
	SendBooklet(ctx context.Context, fileName string, data []byte, caption string) error
}
