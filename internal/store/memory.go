package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/shortener"
)

// MemoryStore keeps links, clicks and owners in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	links  map[shortener.Alias]*shortener.ShortLink
	clicks map[shortener.Alias][]*analytics.ClickEvent
	owners map[int64]*shortener.Owner
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:  make(map[shortener.Alias]*shortener.ShortLink),
		clicks: make(map[shortener.Alias][]*analytics.ClickEvent),
		owners: make(map[int64]*shortener.Owner),
	}
}

func (m *MemoryStore) Save(_ context.Context, link *shortener.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Alias]; ok {
		return shortener.ErrAliasTaken
	}

	m.links[link.Alias] = copyLink(link)

	return nil
}

func (m *MemoryStore) GetByAlias(_ context.Context, alias shortener.Alias) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[alias]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return copyLink(link), nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerID int64) ([]*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := make([]*shortener.ShortLink, 0)

	for _, link := range m.links {
		if link.OwnerID == ownerID {
			links = append(links, copyLink(link))
		}
	}

	slices.SortFunc(links, func(a, b *shortener.ShortLink) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.Alias, b.Alias)
	})

	return links, nil
}

func (m *MemoryStore) EnsureOwner(_ context.Context, owner *shortener.Owner) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, known := m.owners[owner.ID]
	stored := *owner
	m.owners[owner.ID] = &stored

	return !known, nil
}

func (m *MemoryStore) RecordClick(_ context.Context, event *analytics.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[event.Alias]
	if !ok {
		return shortener.ErrNotFound
	}

	stored := *event
	m.clicks[event.Alias] = append(m.clicks[event.Alias], &stored)

	link.Clicks++
	if link.LastClicked == nil || event.OccurredAt.After(*link.LastClicked) {
		at := event.OccurredAt
		link.LastClicked = &at
	}

	return nil
}

func (m *MemoryStore) ListClicks(_ context.Context, alias shortener.Alias) ([]*analytics.ClickEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.clicks[alias]
	events := make([]*analytics.ClickEvent, 0, len(stored))

	for i := len(stored) - 1; i >= 0; i-- {
		event := *stored[i]
		events = append(events, &event)
	}

	slices.SortStableFunc(events, func(a, b *analytics.ClickEvent) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})

	return events, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func copyLink(link *shortener.ShortLink) *shortener.ShortLink {
	c := *link
	if link.LastClicked != nil {
		at := *link.LastClicked
		c.LastClicked = &at
	}

	return &c
}

// Compile-time checks.
var (
	_ shortener.Repository      = (*MemoryStore)(nil)
	_ shortener.OwnerRepository = (*MemoryStore)(nil)
	_ analytics.Store           = (*MemoryStore)(nil)
)
