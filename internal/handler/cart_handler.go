package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/view"
)

type cartView struct {
	Items     []model.CartLineItem
	Count     int
	Subtotal  float64
	PromoCode string
	Error     string
}

// Cart renders the session cart.
func (p *Pages) Cart(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	return cartContent(s, "", "", http.StatusOK), nil
}

// SetCartQuantity sets a line's quantity; zero or less removes the line.
func (p *Pages) SetCartQuantity(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	id, ok := productID(r)
	if !ok {
		return notFoundContent(r), nil
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		return cartContent(s, "", "Quantity must be a whole number", http.StatusUnprocessableEntity), nil
	}

	s.Cart.SetQuantity(id, quantity)
	return redirect(w, r, "/cart")
}

// RemoveCartItem drops a line from the cart.
func (p *Pages) RemoveCartItem(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	id, ok := productID(r)
	if !ok {
		return notFoundContent(r), nil
	}

	s.Cart.RemoveItem(id)
	return redirect(w, r, "/cart")
}

// ClearCart empties the cart.
func (p *Pages) ClearCart(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	s.Cart.Clear()
	return redirect(w, r, "/cart")
}

// Checkout places an order for the cart contents. On success the ordered
// lines leave the cart and the browser is sent to the order success page.
// Anything added by another tab while the order was placed stays.
func (p *Pages) Checkout(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	promoCode := strings.TrimSpace(r.PostFormValue("promo_code"))

	items := s.Cart.Items()
	req := &model.OrderRequest{
		SessionID: s.ID,
		Items:     make([]model.OrderItemRequest, 0, len(items)),
	}
	if promoCode != "" {
		req.PromoCode = &promoCode
	}
	for _, item := range items {
		req.Items = append(req.Items, model.OrderItemRequest{ProductID: item.Product.ID, Quantity: item.Quantity})
	}

	order, err := p.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			return cartContent(s, promoCode, domainErr.Message, http.StatusUnprocessableEntity), nil
		}
		failure := model.NewMutationFailure("Could not place order", err)
		p.logger.Error().Err(err).Str("session_id", s.ID.String()).Msg("checkout failed")
		return cartContent(s, promoCode, failure.Error(), http.StatusBadGateway), nil
	}

	s.Cart.Deduct(items)
	return redirect(w, r, "/order-success?order="+order.ID.String())
}

func cartContent(s *session.Session, promoCode, message string, status int) *view.Content {
	return &view.Content{
		Template: "cart",
		Title:    "Cart",
		Status:   status,
		Path:     "/cart",
		Data: cartView{
			Items:     s.Cart.Items(),
			Count:     s.Cart.TotalItemCount(),
			Subtotal:  s.Cart.Subtotal(),
			PromoCode: promoCode,
			Error:     message,
		},
	}
}
