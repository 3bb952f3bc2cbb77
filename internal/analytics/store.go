package analytics

import (
	"context"

	"github.com/serroba/linkbot/internal/shortener"
)

// Store persists click events.
//
// RecordClick appends the event and, in the same operation, increments the
// link's click counter and moves its last-clicked time forward. It returns
// shortener.ErrNotFound when the link does not exist. ListClicks returns the
// link's events newest first.
type Store interface {
	RecordClick(ctx context.Context, event *ClickEvent) error
	ListClicks(ctx context.Context, alias shortener.Alias) ([]*ClickEvent, error)
}
