package shortener

import (
	"context"
	"fmt"
	"strconv"
)

// StrategyName selects how an alias is assigned.
type StrategyName string

const (
	StrategyRandom StrategyName = "random"
	StrategyCustom StrategyName = "custom"
)

// Service is the entry point for creating and listing links.
type Service struct {
	strategies map[StrategyName]Strategy
	links      Repository
	owners     OwnerRepository
}

// NewService wires the standard strategies on top of the given stores.
func NewService(links Repository, owners OwnerRepository, generate AliasGenerator) *Service {
	return &Service{
		strategies: map[StrategyName]Strategy{
			StrategyRandom: NewRandomStrategy(links, generate),
			StrategyCustom: NewCustomStrategy(links),
		},
		links:  links,
		owners: owners,
	}
}

// Shorten creates a link, using the custom strategy when an alias is requested.
func (s *Service) Shorten(ctx context.Context, req Request) (*ShortLink, error) {
	name := StrategyRandom
	if req.Alias != "" {
		name = StrategyCustom
	}

	strategy, ok := s.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}

	return strategy.Shorten(ctx, req)
}

// ListByOwner returns the owner's links, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]*ShortLink, error) {
	links, err := s.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeError("list owner "+strconv.FormatInt(ownerID, 10), err)
	}

	return links, nil
}

// EnsureOwner records the owner, refreshing its profile when already known.
func (s *Service) EnsureOwner(ctx context.Context, owner *Owner) (bool, error) {
	created, err := s.owners.EnsureOwner(ctx, owner)
	if err != nil {
		return false, storeError("ensure owner", err)
	}

	return created, nil
}
