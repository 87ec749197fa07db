package page

import (
	"context"
	"errors"
	"sync"

	"storefront/internal/cart"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Catalog is the product service collaborator used by the product page.
type Catalog interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// ProductsView is what the product listing template renders.
type ProductsView struct {
	Status   Status
	Products []model.Product
	Empty    bool
	Error    string
	Notice   string
}

// ProductPage is the product listing: one fetch per mount, a cached list,
// and the delete and add-to-cart actions.
type ProductPage struct {
	catalog Catalog
	cart    *cart.Store
	loader  *Loader[[]model.Product]
	logger  zerolog.Logger

	mu     sync.Mutex
	notice error
}

// NewProductPage creates a product page bound to a session cart.
func NewProductPage(catalog Catalog, cartStore *cart.Store, logger zerolog.Logger) *ProductPage {
	return &ProductPage{
		catalog: catalog,
		cart:    cartStore,
		loader: NewLoader[[]model.Product](func(err error) error {
			return model.NewFetchFailure("Could not load products", err)
		}),
		logger: logger.With().Str("component", "product-page").Logger(),
	}
}

// Mount fetches the full product list and clears any previous notice.
func (p *ProductPage) Mount(ctx context.Context) (State[[]model.Product], error) {
	p.setNotice(nil)

	state, err := p.loader.Mount(ctx, p.catalog.ListProducts)
	if err != nil {
		p.logger.Debug().Err(err).Msg("product fetch discarded")
		return state, err
	}
	if state.Status == Failed {
		p.logger.Error().Err(state.Err).Msg("failed to load products")
	}
	return state, nil
}

// Unmount cancels an in-flight fetch.
func (p *ProductPage) Unmount() {
	p.loader.Unmount()
}

// Delete removes product id through the catalog once confirmed. On success
// the cached list drops that product without refetching; on failure the
// list is kept and a notice is recorded.
func (p *ProductPage) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return nil
	}
	p.setNotice(nil)

	if err := p.catalog.DeleteProduct(ctx, id); err != nil {
		failure := model.NewMutationFailure("Could not delete product", err)
		p.setNotice(failure)
		p.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return failure
	}

	p.loader.Update(func(products []model.Product) []model.Product {
		kept := make([]model.Product, 0, len(products))
		for _, product := range products {
			if product.ID != id {
				kept = append(kept, product)
			}
		}
		return kept
	})

	p.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

// AddToCart adds one unit of a cached product to the cart. Unknown IDs are
// ignored and reported as false.
func (p *ProductPage) AddToCart(id int64) bool {
	product, ok := p.Product(id)
	if !ok {
		return false
	}
	p.cart.AddItem(product, 1)
	return true
}

// Product looks up a product in the cached list.
func (p *ProductPage) Product(id int64) (model.Product, bool) {
	state := p.loader.State()
	if state.Status != Loaded {
		return model.Product{}, false
	}
	for _, product := range state.Data {
		if product.ID == id {
			return product, true
		}
	}
	return model.Product{}, false
}

// View returns the renderable state.
func (p *ProductPage) View() ProductsView {
	state := p.loader.State()
	view := ProductsView{Status: state.Status}

	switch state.Status {
	case Failed:
		view.Error = state.Err.Error()
	case Loaded:
		view.Products = append([]model.Product(nil), state.Data...)
		view.Empty = len(state.Data) == 0
	}

	p.mu.Lock()
	if p.notice != nil {
		view.Notice = p.notice.Error()
	}
	p.mu.Unlock()

	return view
}

func (p *ProductPage) setNotice(err error) {
	p.mu.Lock()
	p.notice = err
	p.mu.Unlock()
}

// IsMutationFailure reports whether err is a page-level mutation failure.
func IsMutationFailure(err error) bool {
	var pe *model.PageError
	return errors.As(err, &pe) && pe.Kind == model.MutationFailure
}
