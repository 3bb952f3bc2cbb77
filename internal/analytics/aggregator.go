package analytics

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/serroba/linkbot/internal/shortener"
)

// RecentClicksLimit is how many clicks the recent activity feed shows.
const RecentClicksLimit = 5

// RecentClick is a condensed view of one click.
type RecentClick struct {
	Location string    `json:"location"`
	Device   string    `json:"device"`
	Browser  string    `json:"browser"`
	TimeAgo  string    `json:"timeAgo"`
	At       time.Time `json:"at"`
}

// Statistics is the derived analytics view of one link.
type Statistics struct {
	Alias        string         `json:"alias"`
	OriginalURL  string         `json:"originalUrl"`
	TotalClicks  int            `json:"totalClicks"`
	UniqueClicks int            `json:"uniqueClicks"`
	Devices      map[string]int `json:"devices"`
	Browsers     map[string]int `json:"browsers"`
	Locations    map[string]int `json:"locations"`
	RecentClicks []RecentClick  `json:"recentClicks"`
	LastClicked  *time.Time     `json:"lastClicked"`
	Created      time.Time      `json:"created"`
}

// Count is one bucket of a distribution.
type Count struct {
	Name  string
	Count int
}

// Top returns up to n buckets of dist, largest first and ties broken by name.
// n <= 0 returns every bucket.
func Top(dist map[string]int, n int) []Count {
	counts := make([]Count, 0, len(dist))
	for name, c := range dist {
		counts = append(counts, Count{Name: name, Count: c})
	}

	slices.SortFunc(counts, func(a, b Count) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}

		return cmp.Compare(a.Name, b.Name)
	})

	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}

	return counts
}

// Aggregator builds Statistics from stored click events.
type Aggregator struct {
	links  LinkResolver
	clicks Store
	now    func() time.Time
}

// NewAggregator creates an aggregator.
func NewAggregator(links LinkResolver, clicks Store) *Aggregator {
	return &Aggregator{
		links:  links,
		clicks: clicks,
		now:    time.Now,
	}
}

// Stats returns the statistics for alias. It fails with shortener.ErrNotFound
// for unknown aliases and shortener.ErrStore when the events cannot be read.
func (a *Aggregator) Stats(ctx context.Context, alias shortener.Alias) (*Statistics, error) {
	link, err := a.links.Resolve(ctx, alias)
	if err != nil {
		return nil, err
	}

	events, err := a.clicks.ListClicks(ctx, link.Alias)
	if err != nil {
		return nil, fmt.Errorf("%w: list clicks %s: %w", shortener.ErrStore, alias, err)
	}

	return Aggregate(link, events, a.now()), nil
}

// Aggregate derives statistics from a link and its events. Totals come from
// the events, not from the link's denormalized counter.
func Aggregate(link *shortener.ShortLink, events []*ClickEvent, now time.Time) *Statistics {
	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, func(a, b *ClickEvent) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})

	stats := &Statistics{
		Alias:        string(link.Alias),
		OriginalURL:  link.OriginalURL,
		TotalClicks:  len(ordered),
		Devices:      make(map[string]int),
		Browsers:     make(map[string]int),
		Locations:    make(map[string]int),
		RecentClicks: make([]RecentClick, 0, min(len(ordered), RecentClicksLimit)),
		Created:      link.CreatedAt,
	}

	ips := make(map[string]struct{}, len(ordered))

	for i, event := range ordered {
		ips[event.IP] = struct{}{}

		device := orUnknown(event.Device)
		location := orUnknown(event.Location)
		browser := ClassifyBrowser(event.UserAgent)

		stats.Devices[device]++
		stats.Locations[location]++
		stats.Browsers[browser]++

		if i < RecentClicksLimit {
			stats.RecentClicks = append(stats.RecentClicks, RecentClick{
				Location: location,
				Device:   device,
				Browser:  browser,
				TimeAgo:  FormatTimeAgo(event.OccurredAt, now),
				At:       event.OccurredAt,
			})
		}
	}

	stats.UniqueClicks = len(ips)

	if len(ordered) > 0 {
		last := ordered[0].OccurredAt
		stats.LastClicked = &last
	}

	return stats
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}

	return s
}
