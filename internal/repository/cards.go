// Package repository backs the relay server with a PostgreSQL card
// cache so repeated deck imports do not re-fetch the same cards from
// the remote card API.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/card"
)

// ErrNotFound is returned when no stored card matches the lookup.
var ErrNotFound = errors.New("card not found")

// Statements run one at a time; pgx's extended protocol takes a single
// statement per Exec.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cards (
		id               TEXT NOT NULL,
		name             TEXT NOT NULL,
		set_code         TEXT NOT NULL,
		collector_number TEXT NOT NULL,
		payload          JSONB NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (set_code, collector_number)
	)`,
	`CREATE INDEX IF NOT EXISTS cards_name_idx ON cards (lower(name))`,
}

// CardRepository stores card templates in PostgreSQL.
type CardRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewCardRepository connects to the database and verifies the
// connection with a ping.
func NewCardRepository(ctx context.Context, dbURL string, logger *zap.Logger) (*CardRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect to card database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping card database: %w", err)
	}
	return &CardRepository{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the cards table when it does not exist yet.
func (r *CardRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure card schema: %w", err)
		}
	}
	return nil
}

// FindBySetNumber looks up one printing by set code and collector number.
func (r *CardRepository) FindBySetNumber(ctx context.Context, set, number string) (*card.Card, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT payload FROM cards WHERE set_code = $1 AND collector_number = $2`,
		strings.ToLower(set), number)
	return scanCard(row)
}

// FindByName looks up printings by case-insensitive exact name.
func (r *CardRepository) FindByName(ctx context.Context, name string) ([]*card.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT payload FROM cards WHERE lower(name) = lower($1) ORDER BY set_code, collector_number`,
		name)
	if err != nil {
		return nil, fmt.Errorf("query cards by name: %w", err)
	}
	defer rows.Close()

	var cards []*card.Card
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		c, err := decodeCard(payload)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return cards, nil
}

// SearchByName returns up to limit cards whose names contain the query,
// for deck-editor autocomplete.
func (r *CardRepository) SearchByName(ctx context.Context, query string, limit int) ([]*card.Card, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT payload FROM cards WHERE lower(name) LIKE '%' || lower($1) || '%' ORDER BY name LIMIT $2`,
		query, limit)
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	defer rows.Close()

	var cards []*card.Card
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		c, err := decodeCard(payload)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Upsert stores or refreshes one card template.
func (r *CardRepository) Upsert(ctx context.Context, c *card.Card) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", c.Name, err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO cards (id, name, set_code, collector_number, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (set_code, collector_number)
		DO UPDATE SET id = $1, name = $2, payload = $5, updated_at = now()
	`, c.ID, c.Name, strings.ToLower(c.Set), c.CollectorNumber, payload)
	if err != nil {
		return fmt.Errorf("upsert card %s: %w", c.Name, err)
	}
	return nil
}

// BulkUpsert stores cards in transactional batches and reports how many
// made it in. Individual bad rows are logged and skipped.
func (r *CardRepository) BulkUpsert(ctx context.Context, cards []*card.Card) (int, error) {
	const batchSize = 1000
	imported := 0
	start := time.Now()

	for i := 0; i < len(cards); i += batchSize {
		end := i + batchSize
		if end > len(cards) {
			end = len(cards)
		}
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return imported, fmt.Errorf("begin batch: %w", err)
		}
		for _, c := range cards[i:end] {
			if c.Set == "" || c.CollectorNumber == "" {
				r.logger.Warn("skipping card without printing key", zap.String("card", c.Name))
				continue
			}
			payload, err := json.Marshal(c)
			if err != nil {
				r.logger.Warn("skipping unencodable card", zap.String("card", c.Name), zap.Error(err))
				continue
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO cards (id, name, set_code, collector_number, payload, updated_at)
				VALUES ($1, $2, $3, $4, $5, now())
				ON CONFLICT (set_code, collector_number)
				DO UPDATE SET id = $1, name = $2, payload = $5, updated_at = now()
			`, c.ID, c.Name, strings.ToLower(c.Set), c.CollectorNumber, payload); err != nil {
				tx.Rollback(ctx)
				return imported, fmt.Errorf("insert card %s: %w", c.Name, err)
			}
			imported++
		}
		if err := tx.Commit(ctx); err != nil {
			return imported, fmt.Errorf("commit batch: %w", err)
		}
	}

	r.logger.Info("card bulk import finished",
		zap.Int("imported", imported),
		zap.Duration("took", time.Since(start)),
	)
	return imported, nil
}

// Count returns the number of stored card templates.
func (r *CardRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (r *CardRepository) Close() {
	r.pool.Close()
}

func scanCard(row pgx.Row) (*card.Card, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeCard(payload)
}

func decodeCard(payload []byte) (*card.Card, error) {
	var c card.Card
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("decode stored card: %w", err)
	}
	return &c, nil
}
