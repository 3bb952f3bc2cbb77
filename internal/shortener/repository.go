package shortener

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("short link not found")
	ErrStore        = errors.New("link store unavailable")
	ErrAliasTaken   = errors.New("alias already taken")
	ErrInvalidURL   = errors.New("invalid url")
	ErrInvalidAlias = errors.New("invalid alias")
)

// Repository persists short links.
// Save returns ErrAliasTaken when the alias exists and GetByAlias returns ErrNotFound when it does not.
type Repository interface {
	Save(ctx context.Context, link *ShortLink) error
	GetByAlias(ctx context.Context, alias Alias) (*ShortLink, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*ShortLink, error)
}

// OwnerRepository upserts chat users. created reports whether the owner was new.
type OwnerRepository interface {
	EnsureOwner(ctx context.Context, owner *Owner) (created bool, err error)
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
