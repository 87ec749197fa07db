// Package service holds the checkout and order-listing business logic.
package service

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// ProductLookup reads a single product from the catalogue.
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

// OrderService defines checkout and order retrieval.
type OrderService interface {
	// PlaceOrder validates the request and stores an order with a snapshot
	// of each product's name and price.
	PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error)

	// ListOrders returns the orders visible to viewer. Admins see every order.
	ListOrders(ctx context.Context, viewer model.Viewer) (*model.OrderList, error)

	// GetByID returns the order when viewer owns it or is an admin, nil otherwise.
	GetByID(ctx context.Context, viewer model.Viewer, id uuid.UUID) (*model.Order, error)
}
