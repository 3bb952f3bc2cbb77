package analytics

import (
	"context"
	"fmt"

	"github.com/serroba/linkbot/internal/messaging"
	"github.com/serroba/linkbot/internal/shortener"
	"go.uber.org/zap"
)

// LinkResolver finds the link a click belongs to.
type LinkResolver interface {
	Resolve(ctx context.Context, alias shortener.Alias) (*shortener.ShortLink, error)
}

// NewClickHandler records streamed clicks. Errors are returned to the
// consumer for logging; the message is never redelivered.
func NewClickHandler(links LinkResolver, track TrackFunc, logger *zap.Logger) messaging.Handler[ClickedEvent] {
	track = WithRecover(track)

	return func(ctx context.Context, event *ClickedEvent) error {
		link, err := links.Resolve(ctx, shortener.Alias(event.Alias))
		if err != nil {
			return fmt.Errorf("%w: resolve %s: %w", ErrTracking, event.Alias, err)
		}

		if err = track(ctx, link, event.Visit); err != nil {
			return err
		}

		logger.Debug("click recorded", zap.String("alias", event.Alias))

		return nil
	}
}
