package analytics_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/serroba/linkbot/internal/shortener"
	"github.com/serroba/linkbot/internal/store"
	"github.com/stretchr/testify/require"
)

// stubLocator returns a fixed location and remembers the addresses it saw.
type stubLocator struct {
	mu       sync.Mutex
	location string
	seen     []string
}

func (s *stubLocator) Locate(_ context.Context, ip string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen = append(s.seen, ip)

	return s.location
}

func seedLink(t *testing.T, s *store.MemoryStore, alias string) *shortener.ShortLink {
	t.Helper()

	link := &shortener.ShortLink{
		Alias:       shortener.Alias(alias),
		OriginalURL: "https://example.com/" + alias,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(context.Background(), link))

	return link
}

// counterValue reads one labelled counter from g, or 0 when absent.
func counterValue(t *testing.T, g prometheus.Gatherer, name, label string) float64 {
	t.Helper()

	families, err := g.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}

		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}
