package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaevor/go-nanoid"
)

const (
	aliasAlphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
	maxAliasAttempts = 3
)

// Request describes a link to create. Alias is only honoured by the custom strategy.
type Request struct {
	URL     string
	Alias   Alias
	OwnerID int64
}

// Strategy defines how a link's alias is chosen.
type Strategy interface {
	Shorten(ctx context.Context, req Request) (*ShortLink, error)
}

// AliasGenerator produces candidate aliases.
type AliasGenerator func() string

// NewAliasGenerator returns a generator of lowercase alphanumeric aliases.
func NewAliasGenerator(length int) (AliasGenerator, error) {
	gen, err := nanoid.CustomASCII(aliasAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("alias generator: %w", err)
	}

	return gen, nil
}

// RandomStrategy assigns a generated alias, retrying a few times on collision.
type RandomStrategy struct {
	store    Repository
	generate AliasGenerator
}

// NewRandomStrategy creates a generated-alias strategy.
func NewRandomStrategy(store Repository, generate AliasGenerator) *RandomStrategy {
	return &RandomStrategy{
		store:    store,
		generate: generate,
	}
}

func (s *RandomStrategy) Shorten(ctx context.Context, req Request) (*ShortLink, error) {
	target, err := FormatURL(req.URL)
	if err != nil {
		return nil, err
	}

	for range maxAliasAttempts {
		link := &ShortLink{
			Alias:       Alias(s.generate()),
			OriginalURL: target,
			OwnerID:     req.OwnerID,
			CreatedAt:   time.Now().UTC(),
		}

		err = s.store.Save(ctx, link)
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, ErrAliasTaken) {
			return nil, storeError("save", err)
		}
	}

	return nil, fmt.Errorf("no free alias after %d attempts: %w", maxAliasAttempts, ErrAliasTaken)
}

// CustomStrategy stores the link under the alias the user asked for.
type CustomStrategy struct {
	store Repository
}

// NewCustomStrategy creates a user-chosen alias strategy.
func NewCustomStrategy(store Repository) *CustomStrategy {
	return &CustomStrategy{store: store}
}

func (s *CustomStrategy) Shorten(ctx context.Context, req Request) (*ShortLink, error) {
	target, err := FormatURL(req.URL)
	if err != nil {
		return nil, err
	}

	if err = ValidateAlias(string(req.Alias)); err != nil {
		return nil, err
	}

	link := &ShortLink{
		Alias:       req.Alias,
		OriginalURL: target,
		OwnerID:     req.OwnerID,
		CreatedAt:   time.Now().UTC(),
	}

	if err = s.store.Save(ctx, link); err != nil {
		if errors.Is(err, ErrAliasTaken) {
			return nil, err
		}

		return nil, storeError("save", err)
	}

	return link, nil
}
