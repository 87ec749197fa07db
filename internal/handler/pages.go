package handler

import (
	"context"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/view"

	"github.com/rs/zerolog"
)

// ProductCatalog is the product service as the add and edit forms use it.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, product *model.Product) (*model.Product, error)
}

// Pages holds every page and action of the storefront.
type Pages struct {
	catalog ProductCatalog
	orders  service.OrderService
	logger  zerolog.Logger
}

// NewPages creates the page handlers.
func NewPages(catalog ProductCatalog, orders service.OrderService, logger zerolog.Logger) *Pages {
	return &Pages{
		catalog: catalog,
		orders:  orders,
		logger:  logger.With().Str("handler", "pages").Logger(),
	}
}

// Home renders the landing page.
func (p *Pages) Home(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	return &view.Content{Template: "home", Title: "Home"}, nil
}
