package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// Load returns the saved lines in cart order. An unknown session has no lines.
func (r *cartRepository) Load(ctx context.Context, sessionID uuid.UUID) ([]model.CartLineItem, error) {
	const query = `
		SELECT product_id, name, description, unit_price, stock, category_id, quantity
		FROM cart_items
		WHERE session_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		r.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var items []model.CartLineItem
	for rows.Next() {
		var item model.CartLineItem
		p := &item.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// Save replaces the stored cart with items in a single transaction.
func (r *cartRepository) Save(ctx context.Context, sessionID uuid.UUID, items []model.CartLineItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if len(items) > 0 {
		const insert = `
			INSERT INTO cart_items (session_id, product_id, name, description, unit_price, stock, category_id, quantity, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		batch := &pgx.Batch{}
		for i, item := range items {
			p := item.Product
			batch.Queue(insert, sessionID, p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, item.Quantity, i)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			r.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to save cart items")
			return fmt.Errorf("failed to save cart items: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cart: %w", err)
	}

	r.logger.Debug().Str("session_id", sessionID.String()).Int("lines", len(items)).Msg("cart saved")
	return nil
}

func (r *cartRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
