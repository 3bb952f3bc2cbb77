package shortener_test

import (
	"context"
	"errors"

	"github.com/serroba/linkbot/internal/shortener"
)

var errMock = errors.New("mock error")

// mockRepository is a test double for Repository that can be configured to fail.
type mockRepository struct {
	saveErrs []error
	getErr   error
	listErr  error
	ownerErr error
	saved    []*shortener.ShortLink
}

func (m *mockRepository) Save(_ context.Context, link *shortener.ShortLink) error {
	m.saved = append(m.saved, link)

	if len(m.saveErrs) == 0 {
		return nil
	}

	err := m.saveErrs[0]
	m.saveErrs = m.saveErrs[1:]

	return err
}

func (m *mockRepository) GetByAlias(_ context.Context, _ shortener.Alias) (*shortener.ShortLink, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}

	return &shortener.ShortLink{Alias: "abc123", OriginalURL: "https://example.com"}, nil
}

func (m *mockRepository) ListByOwner(_ context.Context, _ int64) ([]*shortener.ShortLink, error) {
	return nil, m.listErr
}

func (m *mockRepository) EnsureOwner(_ context.Context, _ *shortener.Owner) (bool, error) {
	return m.ownerErr == nil, m.ownerErr
}

// sequence returns a generator yielding the given aliases in order.
func sequence(aliases ...string) shortener.AliasGenerator {
	i := 0

	return func() string {
		alias := aliases[i%len(aliases)]
		i++

		return alias
	}
}
