package model

import (
	"time"

	"github.com/google/uuid"
)

// Order represents a placed order.
type Order struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	SessionID uuid.UUID   `json:"sessionId" db:"session_id"`
	PromoCode *string     `json:"promoCode,omitempty" db:"promo_code"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time   `json:"updatedAt" db:"updated_at"`
}

// Total sums the order's line totals.
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// ItemCount sums the order's quantities.
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// OrderItem is a line of an order with the product snapshot taken at checkout.
type OrderItem struct {
	ID          uuid.UUID `json:"-" db:"id"`
	OrderID     uuid.UUID `json:"-" db:"order_id"`
	ProductID   int64     `json:"productId" db:"product_id"`
	ProductName string    `json:"productName" db:"product_name"`
	UnitPrice   float64   `json:"unitPrice" db:"unit_price"`
	Quantity    int       `json:"quantity" db:"quantity"`
}

// OrderRequest is a checkout request built from a session cart.
type OrderRequest struct {
	SessionID uuid.UUID
	PromoCode *string
	Items     []OrderItemRequest
}

// OrderItemRequest is a single requested line.
type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

// OrderList is what the orders page renders. IsAdmin is decided by the
// order service, not by the page.
type OrderList struct {
	Orders  []Order
	IsAdmin bool
}
