package repository

import "coloring-book-generator/internal/domain/model"

// PageStore holds the current batch in memory. Every write is scoped to one page id.
type PageStore interface {
	// Replace swaps in a whole new batch.
	Replace(pages []*model.ColoringPage)
	// Update applies fn to the page with id under the store lock.
	// It returns false when the id is not in the current batch.
	Update(id string, fn func(p *model.ColoringPage)) bool
	Get(id string) (model.ColoringPage, bool)
	List() []model.ColoringPage
}
