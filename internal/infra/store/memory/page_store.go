// Package memory holds the current batch of pages in process memory.
package memory

import (
	"sync"

	"coloring-book-generator/internal/domain/model"
	"coloring-book-generator/internal/domain/ports/repository"
)

var _ repository.PageStore = (*PageStore)(nil)

// PageStore keeps pages in insertion order, indexed by id.
type PageStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*model.ColoringPage
}

func NewPageStore() *PageStore {
	return &PageStore{byID: map[string]*model.ColoringPage{}}
}

func (s *PageStore) Replace(pages []*model.ColoringPage) {
	order := make([]string, 0, len(pages))
	byID := make(map[string]*model.ColoringPage, len(pages))
	for _, p := range pages {
		if p == nil {
			continue
		}
		cp := *p
		order = append(order, cp.ID)
		byID[cp.ID] = &cp
	}

	s.mu.Lock()
	s.order = order
	s.byID = byID
	s.mu.Unlock()
}

func (s *PageStore) Update(id string, fn func(p *model.ColoringPage)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return false
	}
	fn(p)
	return true
}

func (s *PageStore) Get(id string) (model.ColoringPage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return model.ColoringPage{}, false
	}
	return *p, true
}

func (s *PageStore) List() []model.ColoringPage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ColoringPage, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}
