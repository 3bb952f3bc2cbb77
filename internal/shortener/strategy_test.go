package shortener_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/serroba/linkbot/internal/shortener"
	"github.com/serroba/linkbot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAliasGenerator(t *testing.T) {
	gen, err := shortener.NewAliasGenerator(6)
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^[0-9a-z]{6}$`)
	seen := make(map[string]struct{})

	for range 100 {
		alias := gen()
		assert.Regexp(t, pattern, alias)

		seen[alias] = struct{}{}
	}

	assert.Greater(t, len(seen), 90)
}

func TestRandomStrategy(t *testing.T) {
	t.Run("saves the normalized url under a generated alias", func(t *testing.T) {
		s := store.NewMemoryStore()
		strategy := shortener.NewRandomStrategy(s, sequence("abc123"))

		link, err := strategy.Shorten(context.Background(), shortener.Request{URL: "example.com/page", OwnerID: 7})

		require.NoError(t, err)
		assert.Equal(t, shortener.Alias("abc123"), link.Alias)
		assert.Equal(t, "https://example.com/page", link.OriginalURL)
		assert.Equal(t, int64(7), link.OwnerID)
		assert.False(t, link.CreatedAt.IsZero())

		stored, err := s.GetByAlias(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, link.OriginalURL, stored.OriginalURL)
	})

	t.Run("retries on collision", func(t *testing.T) {
		s := store.NewMemoryStore()
		_ = s.Save(context.Background(), &shortener.ShortLink{Alias: "taken1", OriginalURL: "https://a.com"})

		strategy := shortener.NewRandomStrategy(s, sequence("taken1", "free01"))

		link, err := strategy.Shorten(context.Background(), shortener.Request{URL: "https://b.com"})

		require.NoError(t, err)
		assert.Equal(t, shortener.Alias("free01"), link.Alias)
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		repo := &mockRepository{saveErrs: []error{
			shortener.ErrAliasTaken, shortener.ErrAliasTaken, shortener.ErrAliasTaken,
		}}
		strategy := shortener.NewRandomStrategy(repo, sequence("aaaaaa"))

		_, err := strategy.Shorten(context.Background(), shortener.Request{URL: "https://b.com"})

		require.ErrorIs(t, err, shortener.ErrAliasTaken)
		assert.Len(t, repo.saved, 3)
	})

	t.Run("rejects invalid url without saving", func(t *testing.T) {
		repo := &mockRepository{}
		strategy := shortener.NewRandomStrategy(repo, sequence("abc123"))

		_, err := strategy.Shorten(context.Background(), shortener.Request{URL: "not a url"})

		require.ErrorIs(t, err, shortener.ErrInvalidURL)
		assert.Empty(t, repo.saved)
	})

	t.Run("wraps store failures", func(t *testing.T) {
		repo := &mockRepository{saveErrs: []error{errMock}}
		strategy := shortener.NewRandomStrategy(repo, sequence("abc123"))

		_, err := strategy.Shorten(context.Background(), shortener.Request{URL: "https://b.com"})

		require.ErrorIs(t, err, shortener.ErrStore)
		assert.ErrorIs(t, err, errMock)
	})
}

func TestCustomStrategy(t *testing.T) {
	t.Run("saves under the requested alias", func(t *testing.T) {
		s := store.NewMemoryStore()
		strategy := shortener.NewCustomStrategy(s)

		link, err := strategy.Shorten(context.Background(), shortener.Request{URL: "https://example.com", Alias: "my-link"})

		require.NoError(t, err)
		assert.Equal(t, shortener.Alias("my-link"), link.Alias)
	})

	t.Run("returns ErrAliasTaken for existing alias", func(t *testing.T) {
		s := store.NewMemoryStore()
		strategy := shortener.NewCustomStrategy(s)
		_, _ = strategy.Shorten(context.Background(), shortener.Request{URL: "https://a.com", Alias: "mine"})

		_, err := strategy.Shorten(context.Background(), shortener.Request{URL: "https://b.com", Alias: "mine"})

		require.ErrorIs(t, err, shortener.ErrAliasTaken)
		assert.NotErrorIs(t, err, shortener.ErrStore)
	})

	t.Run("rejects malformed and reserved aliases", func(t *testing.T) {
		strategy := shortener.NewCustomStrategy(store.NewMemoryStore())

		for _, alias := range []shortener.Alias{"ab", "has space", "health", "API"} {
			_, err := strategy.Shorten(context.Background(), shortener.Request{URL: "https://a.com", Alias: alias})

			assert.ErrorIs(t, err, shortener.ErrInvalidAlias, alias)
		}
	})
}
