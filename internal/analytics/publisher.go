package analytics

import (
	"context"

	"github.com/serroba/linkbot/internal/messaging"
	"github.com/serroba/linkbot/internal/shortener"
)

// NewPublishTrackFunc hands clicks to the stream instead of recording them in-process.
func NewPublishTrackFunc(publish messaging.Publish[ClickedEvent]) TrackFunc {
	return func(ctx context.Context, link *shortener.ShortLink, visit Visit) error {
		return publish(ctx, &ClickedEvent{
			Alias: string(link.Alias),
			Visit: visit,
		})
	}
}
