package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/shortener"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS owners (
	id           BIGINT PRIMARY KEY,
	username     TEXT NOT NULL DEFAULT '',
	first_name   TEXT NOT NULL DEFAULT '',
	last_name    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS short_links (
	alias        TEXT PRIMARY KEY,
	original_url TEXT NOT NULL,
	owner_id     BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL,
	clicks       BIGINT NOT NULL DEFAULT 0,
	last_clicked TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS short_links_owner_idx ON short_links (owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS click_events (
	id          TEXT PRIMARY KEY,
	link_alias  TEXT NOT NULL REFERENCES short_links (alias),
	ip_address  TEXT NOT NULL,
	user_agent  TEXT NOT NULL DEFAULT '',
	device_type TEXT NOT NULL,
	location    TEXT NOT NULL,
	referrer    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS click_events_alias_idx ON click_events (link_alias, created_at DESC);
`

// PostgresStore is the PostgreSQL backend. It owns the pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables and indexes when missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}

func (p *PostgresStore) Save(ctx context.Context, link *shortener.ShortLink) error {
	query := `
		INSERT INTO short_links (alias, original_url, owner_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (alias) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query,
		string(link.Alias),
		link.OriginalURL,
		link.OwnerID,
		link.CreatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrAliasTaken
	}

	return nil
}

func (p *PostgresStore) GetByAlias(ctx context.Context, alias shortener.Alias) (*shortener.ShortLink, error) {
	query := `
		SELECT alias, original_url, owner_id, created_at, clicks, last_clicked
		FROM short_links
		WHERE alias = $1
	`

	link, err := scanLink(p.pool.QueryRow(ctx, query, string(alias)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return link, nil
}

func (p *PostgresStore) ListByOwner(ctx context.Context, ownerID int64) ([]*shortener.ShortLink, error) {
	query := `
		SELECT alias, original_url, owner_id, created_at, clicks, last_clicked
		FROM short_links
		WHERE owner_id = $1
		ORDER BY created_at DESC, alias
	`

	rows, err := p.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]*shortener.ShortLink, 0)

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	return links, rows.Err()
}

func (p *PostgresStore) EnsureOwner(ctx context.Context, owner *shortener.Owner) (bool, error) {
	query := `
		INSERT INTO owners (id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			last_seen_at = now()
		RETURNING (xmax = 0)
	`

	var inserted bool

	err := p.pool.QueryRow(ctx, query,
		owner.ID,
		owner.Username,
		owner.FirstName,
		owner.LastName,
	).Scan(&inserted)

	return inserted, err
}

// RecordClick bumps the counters and inserts the event in one transaction.
func (p *PostgresStore) RecordClick(ctx context.Context, event *analytics.ClickEvent) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE short_links
		SET clicks = clicks + 1,
			last_clicked = GREATEST(COALESCE(last_clicked, $2), $2)
		WHERE alias = $1
	`, string(event.Alias), event.OccurredAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO click_events (id, link_alias, ip_address, user_agent, device_type, location, referrer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		event.ID,
		string(event.Alias),
		event.IP,
		event.UserAgent,
		event.Device,
		event.Location,
		event.Referrer,
		event.OccurredAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *PostgresStore) ListClicks(ctx context.Context, alias shortener.Alias) ([]*analytics.ClickEvent, error) {
	query := `
		SELECT id, link_alias, ip_address, user_agent, device_type, location, referrer, created_at
		FROM click_events
		WHERE link_alias = $1
		ORDER BY created_at DESC
	`

	rows, err := p.pool.Query(ctx, query, string(alias))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*analytics.ClickEvent, 0)

	for rows.Next() {
		var event analytics.ClickEvent

		var eventAlias string

		if err := rows.Scan(
			&event.ID,
			&eventAlias,
			&event.IP,
			&event.UserAgent,
			&event.Device,
			&event.Location,
			&event.Referrer,
			&event.OccurredAt,
		); err != nil {
			return nil, err
		}

		event.Alias = shortener.Alias(eventAlias)
		events = append(events, &event)
	}

	return events, rows.Err()
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

func scanLink(row pgx.Row) (*shortener.ShortLink, error) {
	var (
		link        shortener.ShortLink
		alias       string
		lastClicked *time.Time
	)

	if err := row.Scan(
		&alias,
		&link.OriginalURL,
		&link.OwnerID,
		&link.CreatedAt,
		&link.Clicks,
		&lastClicked,
	); err != nil {
		return nil, err
	}

	link.Alias = shortener.Alias(alias)
	link.LastClicked = lastClicked

	return &link, nil
}

// Compile-time checks.
var (
	_ shortener.Repository      = (*PostgresStore)(nil)
	_ shortener.OwnerRepository = (*PostgresStore)(nil)
	_ analytics.Store           = (*PostgresStore)(nil)
)
