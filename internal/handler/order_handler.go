package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/view"

	"github.com/google/uuid"
)

// OrderSuccess confirms a placed order.
func (p *Pages) OrderSuccess(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	data := struct{ Order *model.Order }{}

	if id, err := uuid.Parse(r.URL.Query().Get("order")); err == nil {
		order, err := p.orders.GetByID(r.Context(), viewerFor(r, s), id)
		if err != nil {
			p.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to load placed order")
		}
		data.Order = order
	}

	return &view.Content{Template: "order_success", Title: "Order placed", Data: data}, nil
}

// Orders lists the orders visible to the viewer.
func (p *Pages) Orders(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	if _, err := s.Orders.Mount(r.Context(), viewerFor(r, s)); err != nil {
		return nil, err
	}
	return &view.Content{Template: "orders", Title: "Orders", Data: s.Orders.View()}, nil
}

// OrderDetail shows one order to its owner or an admin.
func (p *Pages) OrderDetail(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	id, ok := orderID(r)
	if !ok {
		return notFoundContent(r), nil
	}

	order, err := p.orders.GetByID(r.Context(), viewerFor(r, s), id)
	if err != nil {
		failure := model.NewFetchFailure("Could not load order", err)
		p.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to load order")
		return errorContent(http.StatusBadGateway, failure.Error()), nil
	}
	if order == nil {
		return notFoundContent(r), nil
	}

	return &view.Content{Template: "order_detail", Title: "Order", Data: order}, nil
}
