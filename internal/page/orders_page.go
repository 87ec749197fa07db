package page

import (
	"context"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// OrdersFetcher returns the orders visible to viewer and whether viewer
// gets administrative controls.
type OrdersFetcher interface {
	ListOrders(ctx context.Context, viewer model.Viewer) (*model.OrderList, error)
}

// OrdersView is what the orders template renders.
type OrdersView struct {
	Status  Status
	Orders  []model.Order
	IsAdmin bool
	Empty   bool
	Error   string
}

// OrdersPage lists orders with the same three-state lifecycle as the
// product page.
type OrdersPage struct {
	fetcher OrdersFetcher
	loader  *Loader[model.OrderList]
	logger  zerolog.Logger
}

// NewOrdersPage creates an orders page.
func NewOrdersPage(fetcher OrdersFetcher, logger zerolog.Logger) *OrdersPage {
	return &OrdersPage{
		fetcher: fetcher,
		loader: NewLoader[model.OrderList](func(err error) error {
			return model.NewFetchFailure("Could not load orders", err)
		}),
		logger: logger.With().Str("component", "orders-page").Logger(),
	}
}

// Mount fetches the orders visible to viewer.
func (p *OrdersPage) Mount(ctx context.Context, viewer model.Viewer) (State[model.OrderList], error) {
	state, err := p.loader.Mount(ctx, func(ctx context.Context) (model.OrderList, error) {
		list, err := p.fetcher.ListOrders(ctx, viewer)
		if err != nil {
			return model.OrderList{}, err
		}
		if list == nil {
			return model.OrderList{}, nil
		}
		return *list, nil
	})
	if err == nil && state.Status == Failed {
		p.logger.Error().Err(state.Err).Msg("failed to load orders")
	}
	return state, err
}

// Unmount cancels an in-flight fetch.
func (p *OrdersPage) Unmount() {
	p.loader.Unmount()
}

// View returns the renderable state.
func (p *OrdersPage) View() OrdersView {
	state := p.loader.State()
	view := OrdersView{Status: state.Status}

	switch state.Status {
	case Failed:
		view.Error = state.Err.Error()
	case Loaded:
		view.Orders = state.Data.Orders
		view.IsAdmin = state.Data.IsAdmin
		view.Empty = len(state.Data.Orders) == 0
	}
	return view
}
