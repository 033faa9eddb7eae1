package template

import (
	"context"
	"sort"
	"sync"
)

type key struct {
	owner string
	hash  string
}

// MemoryRepository keeps templates in process memory.
type MemoryRepository struct {
	mu        sync.RWMutex
	templates map[key]Template
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{templates: make(map[key]Template)}
}

// GetTemplate implements Repository.
func (r *MemoryRepository) GetTemplate(_ context.Context, owner, headerHash string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[key{owner, headerHash}]
	if !ok {
		return Template{}, ErrNotFound
	}
	t.Columns = append([]string(nil), t.Columns...)
	return t, nil
}

// PutTemplate implements Repository.
func (r *MemoryRepository) PutTemplate(_ context.Context, t Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[key{t.Owner, t.HeaderHash}] = t
	return nil
}

// DeleteTemplate implements Repository.
func (r *MemoryRepository) DeleteTemplate(_ context.Context, owner, headerHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{owner, headerHash}
	if _, ok := r.templates[k]; !ok {
		return ErrNotFound
	}
	delete(r.templates, k)
	return nil
}

// ListTemplates implements Repository.
func (r *MemoryRepository) ListTemplates(_ context.Context, owner string) ([]Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Template
	for k, t := range r.templates {
		if k.owner == owner {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HeaderHash < out[j].HeaderHash })
	return out, nil
}
