package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/shortener"
	"github.com/serroba/linkbot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEvents(t *testing.T, faker *gofakeit.Faker, alias string, n int, base time.Time) []*analytics.ClickEvent {
	t.Helper()

	events := make([]*analytics.ClickEvent, 0, n)
	for i := range n {
		ua := faker.UserAgent()
		events = append(events, &analytics.ClickEvent{
			ID:         faker.UUID(),
			Alias:      shortener.Alias(alias),
			IP:         faker.IPv4Address(),
			UserAgent:  ua,
			Device:     analytics.ClassifyDevice(ua),
			Location:   faker.City() + ", " + faker.CountryAbr(),
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	return events
}

func TestAggregate(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	link := &shortener.ShortLink{
		Alias:       "abc123",
		OriginalURL: "https://example.com",
		CreatedAt:   now.Add(-30 * 24 * time.Hour),
		Clicks:      999,
	}

	t.Run("empty link", func(t *testing.T) {
		stats := analytics.Aggregate(link, nil, now)

		assert.Equal(t, 0, stats.TotalClicks)
		assert.Equal(t, 0, stats.UniqueClicks)
		assert.Empty(t, stats.Devices)
		assert.Empty(t, stats.RecentClicks)
		assert.Nil(t, stats.LastClicked)
		assert.Equal(t, link.CreatedAt, stats.Created)
	})

	t.Run("counts come from events", func(t *testing.T) {
		events := []*analytics.ClickEvent{
			{IP: "1.1.1.1", UserAgent: uaChromeDesktop, Device: analytics.DeviceDesktop, Location: "Berlin, DE", OccurredAt: now.Add(-3 * time.Hour)},
			{IP: "1.1.1.1", UserAgent: uaSafariIPhone, Device: analytics.DeviceMobile, Location: "Berlin, DE", OccurredAt: now.Add(-2 * time.Hour)},
			{IP: "2.2.2.2", UserAgent: "", Device: "", Location: "", OccurredAt: now.Add(-time.Hour)},
		}

		stats := analytics.Aggregate(link, events, now)

		assert.Equal(t, 3, stats.TotalClicks)
		assert.Equal(t, 2, stats.UniqueClicks)
		assert.Equal(t, map[string]int{analytics.DeviceDesktop: 1, analytics.DeviceMobile: 1, analytics.Unknown: 1}, stats.Devices)
		assert.Equal(t, map[string]int{"Chrome": 1, "Safari": 1, analytics.Unknown: 1}, stats.Browsers)
		assert.Equal(t, map[string]int{"Berlin, DE": 2, analytics.Unknown: 1}, stats.Locations)
		require.NotNil(t, stats.LastClicked)
		assert.Equal(t, now.Add(-time.Hour), *stats.LastClicked)

		require.Len(t, stats.RecentClicks, 3)
		assert.Equal(t, "1 hour ago", stats.RecentClicks[0].TimeAgo)
		assert.Equal(t, "3 hours ago", stats.RecentClicks[2].TimeAgo)
	})

	t.Run("distributions sum to the total", func(t *testing.T) {
		faker := gofakeit.New(42)
		events := fakeEvents(t, faker, "abc123", 40, now.Add(-48*time.Hour))

		stats := analytics.Aggregate(link, events, now)

		sum := func(m map[string]int) int {
			total := 0
			for _, v := range m {
				total += v
			}

			return total
		}

		assert.Equal(t, 40, stats.TotalClicks)
		assert.Equal(t, 40, sum(stats.Devices))
		assert.Equal(t, 40, sum(stats.Browsers))
		assert.Equal(t, 40, sum(stats.Locations))
		assert.LessOrEqual(t, stats.UniqueClicks, stats.TotalClicks)
		assert.Len(t, stats.RecentClicks, analytics.RecentClicksLimit)

		for i := 1; i < len(stats.RecentClicks); i++ {
			assert.False(t, stats.RecentClicks[i].At.After(stats.RecentClicks[i-1].At))
		}
	})

	t.Run("does not reorder the input", func(t *testing.T) {
		events := []*analytics.ClickEvent{
			{ID: "old", OccurredAt: now.Add(-2 * time.Hour)},
			{ID: "new", OccurredAt: now.Add(-time.Hour)},
		}

		_ = analytics.Aggregate(link, events, now)

		assert.Equal(t, "old", events[0].ID)
	})
}

func TestTop(t *testing.T) {
	dist := map[string]int{"b": 3, "a": 3, "c": 5, "d": 1}

	assert.Equal(t, []analytics.Count{{Name: "c", Count: 5}, {Name: "a", Count: 3}, {Name: "b", Count: 3}}, analytics.Top(dist, 3))
	assert.Len(t, analytics.Top(dist, 0), 4)
	assert.Empty(t, analytics.Top(nil, 5))
}

type failingClicks struct {
	*store.MemoryStore
}

func (failingClicks) ListClicks(context.Context, shortener.Alias) ([]*analytics.ClickEvent, error) {
	return nil, errors.New("cursor closed")
}

func TestAggregator_Stats(t *testing.T) {
	t.Run("aggregates stored clicks", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := seedLink(t, s, "abc123")
		recorder := analytics.NewRecorder(s, &stubLocator{location: "Tokyo, JP"})

		for _, ua := range []string{uaChromeDesktop, uaSafariIPhone} {
			_, err := recorder.Record(context.Background(), link, analytics.Visit{UserAgent: ua, RealIP: "198.51.100.4"})
			require.NoError(t, err)
		}

		stats, err := analytics.NewAggregator(shortener.NewResolver(s), s).Stats(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/abc123", stats.OriginalURL)
		assert.Equal(t, 2, stats.TotalClicks)
		assert.Equal(t, 1, stats.UniqueClicks)
		assert.Equal(t, map[string]int{"Tokyo, JP": 2}, stats.Locations)
	})

	t.Run("unknown alias", func(t *testing.T) {
		s := store.NewMemoryStore()

		_, err := analytics.NewAggregator(shortener.NewResolver(s), s).Stats(context.Background(), "missing")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("event read failure is a store error", func(t *testing.T) {
		s := store.NewMemoryStore()
		seedLink(t, s, "abc123")

		_, err := analytics.NewAggregator(shortener.NewResolver(s), failingClicks{s}).Stats(context.Background(), "abc123")

		assert.ErrorIs(t, err, shortener.ErrStore)
	})
}
