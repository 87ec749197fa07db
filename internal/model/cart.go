package model

// CartLineItem is a product snapshot and the quantity held in the cart.
type CartLineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns price times quantity.
func (i CartLineItem) LineTotal() float64 {
	return i.Product.Price * float64(i.Quantity)
}
