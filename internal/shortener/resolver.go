package shortener

import (
	"context"
	"errors"
)

// Resolver looks aliases up, separating "no such link" from store failures.
type Resolver struct {
	links Repository
}

// NewResolver creates a resolver on top of the given repository.
func NewResolver(links Repository) *Resolver {
	return &Resolver{links: links}
}

// Resolve returns the link stored under alias. The match is exact and case-sensitive.
func (r *Resolver) Resolve(ctx context.Context, alias Alias) (*ShortLink, error) {
	link, err := r.links.GetByAlias(ctx, alias)
	if err == nil {
		return link, nil
	}

	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}

	return nil, storeError("get "+string(alias), err)
}
