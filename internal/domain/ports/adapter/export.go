package adapter

import "context"

// BookletRenderer turns ordered page references into a document.
type BookletRenderer interface {
	Render(ctx context.Context, refs []string, title string) ([]byte, error)
}

// FileSink persists an exported file and returns where it went.
type FileSink interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}
