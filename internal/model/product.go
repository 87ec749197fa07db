package model

import "fmt"

// Product is a catalogue entry owned by the remote product service.
type Product struct {
	ID          int64   `json:"idProduct,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	CategoryID  int64   `json:"categoryId"`
}

// Validate checks the fields the product service requires on create and update.
func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price cannot be negative")
	}
	if p.Stock < 0 {
		return fmt.Errorf("product stock cannot be negative")
	}
	if p.CategoryID <= 0 {
		return fmt.Errorf("product category is required")
	}
	return nil
}
