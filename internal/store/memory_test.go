package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/shortener"
	"github.com/serroba/linkbot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(alias string, owner int64, created time.Time) *shortener.ShortLink {
	return &shortener.ShortLink{
		Alias:       shortener.Alias(alias),
		OriginalURL: "https://example.com/" + alias,
		OwnerID:     owner,
		CreatedAt:   created,
	}
}

func newClick(id, alias string, at time.Time) *analytics.ClickEvent {
	return &analytics.ClickEvent{
		ID:         id,
		Alias:      shortener.Alias(alias),
		IP:         "203.0.113.7",
		UserAgent:  "TestAgent/1.0",
		Device:     analytics.DeviceDesktop,
		Location:   "Berlin, Berlin, DE",
		OccurredAt: at,
	}
}

func TestMemoryStore_Save(t *testing.T) {
	t.Run("saves link successfully", func(t *testing.T) {
		s := store.NewMemoryStore()

		err := s.Save(context.Background(), newLink("abc123", 1, time.Now()))

		require.NoError(t, err)
	})

	t.Run("rejects taken alias and keeps the original", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Save(context.Background(), newLink("abc123", 1, time.Now()))

		other := newLink("abc123", 2, time.Now())
		other.OriginalURL = "https://other.com"

		err := s.Save(context.Background(), other)
		require.ErrorIs(t, err, shortener.ErrAliasTaken)

		got, _ := s.GetByAlias(context.Background(), "abc123")
		assert.Equal(t, "https://example.com/abc123", got.OriginalURL)
	})
}

func TestMemoryStore_GetByAlias(t *testing.T) {
	t.Run("returns link when found", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Save(context.Background(), newLink("abc123", 1, time.Now()))

		got, err := s.GetByAlias(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/abc123", got.OriginalURL)
	})

	t.Run("is case sensitive", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Save(context.Background(), newLink("MyLink", 1, time.Now()))

		_, err := s.GetByAlias(context.Background(), "mylink")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("returns ErrNotFound when alias does not exist", func(t *testing.T) {
		s := store.NewMemoryStore()

		got, err := s.GetByAlias(context.Background(), "notfound")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("returns a copy", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Save(context.Background(), newLink("abc123", 1, time.Now()))

		got, _ := s.GetByAlias(context.Background(), "abc123")
		got.OriginalURL = "https://mutated.com"

		again, _ := s.GetByAlias(context.Background(), "abc123")
		assert.Equal(t, "https://example.com/abc123", again.OriginalURL)
	})
}

func TestMemoryStore_ListByOwner(t *testing.T) {
	s := store.NewMemoryStore()
	now := time.Now()

	_ = s.Save(context.Background(), newLink("old", 7, now.Add(-time.Hour)))
	_ = s.Save(context.Background(), newLink("new", 7, now))
	_ = s.Save(context.Background(), newLink("foreign", 8, now))

	links, err := s.ListByOwner(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, shortener.Alias("new"), links[0].Alias)
	assert.Equal(t, shortener.Alias("old"), links[1].Alias)
}

func TestMemoryStore_EnsureOwner(t *testing.T) {
	s := store.NewMemoryStore()
	owner := &shortener.Owner{ID: 42, Username: "alice"}

	created, err := s.EnsureOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMemoryStore_RecordClick(t *testing.T) {
	t.Run("appends event and bumps counters", func(t *testing.T) {
		s := store.NewMemoryStore()
		ctx := context.Background()
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		_ = s.Save(ctx, newLink("abc123", 1, base))

		require.NoError(t, s.RecordClick(ctx, newClick("1", "abc123", base.Add(time.Minute))))
		require.NoError(t, s.RecordClick(ctx, newClick("2", "abc123", base.Add(2*time.Minute))))

		link, _ := s.GetByAlias(ctx, "abc123")
		assert.Equal(t, int64(2), link.Clicks)
		require.NotNil(t, link.LastClicked)
		assert.Equal(t, base.Add(2*time.Minute), *link.LastClicked)

		events, err := s.ListClicks(ctx, "abc123")
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("last clicked never moves backwards", func(t *testing.T) {
		s := store.NewMemoryStore()
		ctx := context.Background()
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		_ = s.Save(ctx, newLink("abc123", 1, base))

		_ = s.RecordClick(ctx, newClick("1", "abc123", base.Add(time.Hour)))
		_ = s.RecordClick(ctx, newClick("2", "abc123", base.Add(time.Minute)))

		link, _ := s.GetByAlias(ctx, "abc123")
		assert.Equal(t, base.Add(time.Hour), *link.LastClicked)
	})

	t.Run("rejects clicks for unknown links", func(t *testing.T) {
		s := store.NewMemoryStore()

		err := s.RecordClick(context.Background(), newClick("1", "ghost", time.Now()))

		require.ErrorIs(t, err, shortener.ErrNotFound)

		events, _ := s.ListClicks(context.Background(), "ghost")
		assert.Empty(t, events)
	})

	t.Run("counter matches events under concurrency", func(t *testing.T) {
		s := store.NewMemoryStore()
		ctx := context.Background()
		_ = s.Save(ctx, newLink("busy", 1, time.Now()))

		var wg sync.WaitGroup

		for i := range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_ = s.RecordClick(ctx, newClick(fmt.Sprintf("click-%d", i), "busy", time.Now()))
			}()
		}

		wg.Wait()

		link, _ := s.GetByAlias(ctx, "busy")
		events, _ := s.ListClicks(ctx, "busy")
		assert.Equal(t, int64(50), link.Clicks)
		assert.Len(t, events, 50)
	})
}

func TestMemoryStore_ListClicks(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	_ = s.Save(ctx, newLink("abc123", 1, base))

	_ = s.RecordClick(ctx, newClick("first", "abc123", base.Add(time.Minute)))
	_ = s.RecordClick(ctx, newClick("third", "abc123", base.Add(3*time.Minute)))
	_ = s.RecordClick(ctx, newClick("second", "abc123", base.Add(2*time.Minute)))

	events, err := s.ListClicks(ctx, "abc123")

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "third", events[0].ID)
	assert.Equal(t, "second", events[1].ID)
	assert.Equal(t, "first", events[2].ID)
}
