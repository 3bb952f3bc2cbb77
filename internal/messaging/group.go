package messaging

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a background component with an explicit lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup starts and stops a set of runnables together and closes the
// shared subscriber last.
type ConsumerGroup struct {
	runnables  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates a group. subscriber may be nil when no member consumes messages.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a runnable with the group.
func (g *ConsumerGroup) Add(r Runnable) {
	g.runnables = append(g.runnables, r)
}

// Start starts every member in order. If one fails, those already started are stopped.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, r := range g.runnables {
		if err := r.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.runnables[j].Shutdown()
			}

			return fmt.Errorf("start member %d: %w", i, err)
		}
	}

	g.logger.Info("consumer group started", zap.Int("members", len(g.runnables)))

	return nil
}

// Shutdown stops every member and returns the first error seen.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	var firstErr error

	for _, r := range g.runnables {
		if err := r.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if g.subscriber != nil {
		if err := g.subscriber.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
