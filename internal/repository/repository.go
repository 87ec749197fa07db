// Package repository persists orders and session carts in PostgreSQL.
package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository defines the data access operations for orders.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's lines within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items. A missing order returns nil, nil.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// List returns orders newest first with their items. A nil sessionID lists every order.
	List(ctx context.Context, sessionID *uuid.UUID) ([]model.Order, error)
}

// CartRepository stores the cart of a browser session.
type CartRepository interface {
	Load(ctx context.Context, sessionID uuid.UUID) ([]model.CartLineItem, error)
	Save(ctx context.Context, sessionID uuid.UUID, items []model.CartLineItem) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
}
