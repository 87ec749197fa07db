// Package router builds the storefront's route table and HTTP handler.
package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/session"
	"storefront/internal/view"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Route maps a path and its methods to a page rendered in the layout.
type Route struct {
	Name    string
	Path    string
	Methods []string
	Page    handler.PageFunc
}

// Routes returns the page and action routes in match order. Literal paths
// come before the patterns that would also match them.
func Routes(p *handler.Pages) []Route {
	get := []string{http.MethodGet}
	post := []string{http.MethodPost}

	return []Route{
		{Name: "home", Path: "/", Methods: get, Page: p.Home},
		{Name: "products", Path: "/products", Methods: get, Page: p.Products},
		{Name: "product-new", Path: "/products/add", Methods: get, Page: p.NewProduct},
		{Name: "product-create", Path: "/products/add", Methods: post, Page: p.CreateProduct},
		{Name: "product-edit", Path: "/products/edit/{id:[0-9]+}", Methods: get, Page: p.EditProduct},
		{Name: "product-update", Path: "/products/edit/{id:[0-9]+}", Methods: post, Page: p.UpdateProduct},
		{Name: "product-delete-confirm", Path: "/products/{id:[0-9]+}/delete", Methods: get, Page: p.ConfirmDelete},
		{Name: "product-delete", Path: "/products/{id:[0-9]+}/delete", Methods: post, Page: p.DeleteProduct},
		{Name: "product-add-to-cart", Path: "/products/{id:[0-9]+}/cart", Methods: post, Page: p.AddToCart},
		{Name: "cart", Path: "/cart", Methods: get, Page: p.Cart},
		{Name: "cart-clear", Path: "/cart/clear", Methods: post, Page: p.ClearCart},
		{Name: "cart-checkout", Path: "/cart/checkout", Methods: post, Page: p.Checkout},
		{Name: "cart-item-quantity", Path: "/cart/items/{id:[0-9]+}", Methods: post, Page: p.SetCartQuantity},
		{Name: "cart-item-remove", Path: "/cart/items/{id:[0-9]+}/remove", Methods: post, Page: p.RemoveCartItem},
		{Name: "order-success", Path: "/order-success", Methods: get, Page: p.OrderSuccess},
		{Name: "orders", Path: "/orders", Methods: get, Page: p.Orders},
		{Name: "order-detail", Path: "/orders/{id}", Methods: get, Page: p.OrderDetail},
	}
}

// Table resolves requests against a route list without serving them.
type Table struct {
	router *mux.Router
}

// NewTable registers routes on a bare router.
func NewTable(routes []Route) *Table {
	r := mux.NewRouter()
	for _, route := range routes {
		r.Handle(route.Path, http.NotFoundHandler()).Methods(route.Methods...).Name(route.Name)
	}
	return &Table{router: r}
}

// Lookup returns the name and path variables of the route serving method
// and path. ok is false when nothing matches.
func (t *Table) Lookup(method, path string) (name string, vars map[string]string, ok bool) {
	req, err := http.NewRequest(method, path, nil)
	if err != nil {
		return "", nil, false
	}

	var match mux.RouteMatch
	if !t.router.Match(req, &match) || match.MatchErr != nil || match.Route == nil {
		return "", nil, false
	}
	return match.Route.GetName(), match.Vars, true
}

// Config holds what the router needs besides the pages.
type Config struct {
	AdminKey string
}

// New creates the HTTP handler with all routes and middleware configured.
func New(
	pages *handler.Pages,
	layout *handler.Layout,
	sessions *session.Manager,
	cfg Config,
	logger zerolog.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check endpoint, outside the layout
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}).Methods(http.MethodGet)

	r.PathPrefix("/static/").Handler(view.StaticHandler())

	for _, route := range Routes(pages) {
		r.Handle(route.Path, layout.Wrap(route.Page)).Methods(route.Methods...).Name(route.Name)
	}

	r.NotFoundHandler = layout.NotFound()
	r.MethodNotAllowedHandler = layout.MethodNotAllowed()

	// Apply middleware in order: Recovery -> Logging -> SecurityHeaders -> Session -> Viewer
	var h http.Handler = r
	h = middleware.Viewer(cfg.AdminKey, logger)(h)
	h = middleware.Session(sessions)(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
