package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/view"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is an in-memory product service.
type fakeCatalog struct {
	mu        sync.Mutex
	products  []model.Product
	listErr   error
	deleteErr error
	saveErr   error
	listCalls int
	nextID    int64
}

func (c *fakeCatalog) ListProducts(ctx context.Context) ([]model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]model.Product{}, c.products...), nil
}

func (c *fakeCatalog) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, model.ErrProductNotFound
}

func (c *fakeCatalog) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return nil, c.saveErr
	}
	c.nextID++
	created := *p
	created.ID = 100 + c.nextID
	c.products = append(c.products, created)
	return &created, nil
}

func (c *fakeCatalog) UpdateProduct(ctx context.Context, id int64, p *model.Product) (*model.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return nil, c.saveErr
	}
	for i := range c.products {
		if c.products[i].ID == id {
			c.products[i] = *p
			c.products[i].ID = id
			return &c.products[i], nil
		}
	}
	return nil, model.ErrProductNotFound
}

func (c *fakeCatalog) DeleteProduct(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	for i := range c.products {
		if c.products[i].ID == id {
			c.products = append(c.products[:i], c.products[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, viewer model.Viewer) (*model.OrderList, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderList), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, viewer model.Viewer, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, viewer, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

type testEnv struct {
	layout  *Layout
	pages   *Pages
	catalog *fakeCatalog
	orders  *MockOrderService
	session *session.Session
}

func newTestEnv(t *testing.T, products ...model.Product) *testEnv {
	t.Helper()
	catalog := &fakeCatalog{products: products}
	orders := new(MockOrderService)

	manager := session.NewManager(session.Deps{Catalog: catalog, Orders: orders, CookieName: "sid"}, zerolog.Nop())
	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	return &testEnv{
		layout:  NewLayout(manager, renderer, zerolog.Nop()),
		pages:   NewPages(catalog, orders, zerolog.Nop()),
		catalog: catalog,
		orders:  orders,
		session: manager.Open(context.Background(), uuid.New()),
	}
}

// do sends a request for the env's session through the layout.
func (e *testEnv) do(fn PageFunc, method, target string, form url.Values, vars map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: "sid", Value: e.session.ID.String()})
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}

	rec := httptest.NewRecorder()
	e.layout.Wrap(fn).ServeHTTP(rec, req)
	return rec
}

// brokenWriter accepts the status line and fails every body write.
type brokenWriter struct {
	header   http.Header
	statuses []int
}

func (w *brokenWriter) Header() http.Header {
	if w.header == nil {
		w.header = http.Header{}
	}
	return w.header
}

func (w *brokenWriter) WriteHeader(status int) {
	w.statuses = append(w.statuses, status)
}

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestLayout_WriteFailureSendsOneStatus(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: env.session.ID.String()})

	w := &brokenWriter{}
	env.layout.Wrap(func(_ http.ResponseWriter, r *http.Request, _ *session.Session) (*view.Content, error) {
		return notFoundContent(r), nil
	}).ServeHTTP(w, req)

	assert.Equal(t, []int{http.StatusNotFound}, w.statuses)
	assert.NotContains(t, w.Header().Get("Content-Type"), "text/plain")
}

var (
	mug    = model.Product{ID: 1, Name: "Mug", Price: 8.5, Stock: 10, CategoryID: 1}
	teapot = model.Product{ID: 2, Name: "Teapot", Price: 30, Stock: 4, CategoryID: 1}
	kettle = model.Product{ID: 3, Name: "Kettle", Price: 45, Stock: 2, CategoryID: 2}
)

func TestLayout_UserMenu(t *testing.T) {
	tests := []struct {
		name       string
		froms      []string
		expectOpen bool
	}{
		{name: "Closed by default", froms: []string{""}, expectOpen: false},
		{name: "Avatar opens", froms: []string{"user-menu-toggle"}, expectOpen: true},
		{name: "Avatar twice closes", froms: []string{"user-menu-toggle", "user-menu-toggle"}, expectOpen: false},
		{name: "Panel keeps open", froms: []string{"user-menu-toggle", "user-menu"}, expectOpen: true},
		{name: "Outside closes", froms: []string{"user-menu-toggle", ""}, expectOpen: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			var rec *httptest.ResponseRecorder
			for _, from := range tt.froms {
				target := "/"
				if from != "" {
					target += "?from=" + from
				}
				rec = env.do(env.pages.Home, http.MethodGet, target, nil, nil)
			}

			body := rec.Body.String()
			assert.Equal(t, tt.expectOpen, !strings.Contains(body, `class="user-menu" hidden`))
			assert.Equal(t, tt.expectOpen, env.session.Menu.IsOpen())
		})
	}
}

func TestLayout_PageErrorRendersErrorPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(func(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
		return nil, errors.New("boom")
	}, http.MethodGet, "/", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "An unexpected error occurred.")
	assert.Contains(t, rec.Body.String(), `class="navbar"`)
}

func TestLayout_NotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()

	env.layout.NotFound().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
	assert.Contains(t, rec.Body.String(), "/nowhere")
	assert.Contains(t, rec.Body.String(), `id="user-menu-toggle"`)
}

func TestProducts(t *testing.T) {
	t.Run("Empty list shows an affordance", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(env.pages.Products, http.MethodGet, "/products", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "No products available.")
	})

	t.Run("Fetch failure shows the error", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.listErr = errors.New("connection refused")

		rec := env.do(env.pages.Products, http.MethodGet, "/products", nil, nil)

		assert.Contains(t, rec.Body.String(), "Could not load products: connection refused")
	})

	t.Run("Lists products", func(t *testing.T) {
		env := newTestEnv(t, mug, teapot)
		rec := env.do(env.pages.Products, http.MethodGet, "/products", nil, nil)

		assert.Contains(t, rec.Body.String(), `id="product-1"`)
		assert.Contains(t, rec.Body.String(), `id="product-2"`)
		assert.Equal(t, 1, env.catalog.listCalls)
	})
}

func TestAddToCart_UpdatesBadge(t *testing.T) {
	env := newTestEnv(t, mug, teapot)
	env.do(env.pages.Products, http.MethodGet, "/products", nil, nil)

	var rec *httptest.ResponseRecorder
	for _, id := range []string{"1", "1", "2", "2", "2"} {
		rec = env.do(env.pages.AddToCart, http.MethodPost, "/products/"+id+"/cart", url.Values{}, map[string]string{"id": id})
	}

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span id="cart-badge" class="badge">5</span>`)
	assert.Equal(t, 5, env.session.Cart.TotalItemCount())
	assert.Equal(t, 1, env.catalog.listCalls, "actions render from the cached list")
}

func TestDeleteProduct(t *testing.T) {
	t.Run("Confirmation page", func(t *testing.T) {
		env := newTestEnv(t, mug, teapot, kettle)
		rec := env.do(env.pages.ConfirmDelete, http.MethodGet, "/products/2/delete", nil, map[string]string{"id": "2"})

		assert.Contains(t, rec.Body.String(), "Delete <strong>Teapot</strong>?")
	})

	t.Run("Confirmed delete removes exactly that product", func(t *testing.T) {
		env := newTestEnv(t, mug, teapot, kettle)
		env.do(env.pages.Products, http.MethodGet, "/products", nil, nil)

		rec := env.do(env.pages.DeleteProduct, http.MethodPost, "/products/2/delete", url.Values{"confirm": {"yes"}}, map[string]string{"id": "2"})

		body := rec.Body.String()
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, body, `id="product-1"`)
		assert.NotContains(t, body, `id="product-2"`)
		assert.Contains(t, body, `id="product-3"`)
		assert.Equal(t, 1, env.catalog.listCalls)
	})

	t.Run("Unconfirmed post keeps the product", func(t *testing.T) {
		env := newTestEnv(t, mug, teapot)
		env.do(env.pages.Products, http.MethodGet, "/products", nil, nil)

		rec := env.do(env.pages.DeleteProduct, http.MethodPost, "/products/2/delete", url.Values{}, map[string]string{"id": "2"})

		assert.Contains(t, rec.Body.String(), `id="product-2"`)
	})

	t.Run("Failed delete keeps the list and shows a notice", func(t *testing.T) {
		env := newTestEnv(t, mug, teapot)
		env.do(env.pages.Products, http.MethodGet, "/products", nil, nil)
		env.catalog.deleteErr = errors.New("status 500")

		rec := env.do(env.pages.DeleteProduct, http.MethodPost, "/products/2/delete", url.Values{"confirm": {"yes"}}, map[string]string{"id": "2"})

		body := rec.Body.String()
		assert.Contains(t, body, "Could not delete product: status 500")
		assert.Contains(t, body, `id="product-1"`)
		assert.Contains(t, body, `id="product-2"`)
	})
}

func TestProductForms(t *testing.T) {
	valid := url.Values{"name": {"Cup"}, "description": {"Small"}, "price": {"3.50"}, "stock": {"5"}, "categoryId": {"2"}}

	t.Run("Create redirects to the listing", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(env.pages.CreateProduct, http.MethodPost, "/products/add", valid, nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/products", rec.Header().Get("Location"))
		require.Len(t, env.catalog.products, 1)
		assert.Equal(t, 3.5, env.catalog.products[0].Price)
	})

	t.Run("Invalid fields redisplay the form", func(t *testing.T) {
		env := newTestEnv(t)
		form := url.Values{"name": {"Cup"}, "price": {"abc"}, "stock": {"5"}, "categoryId": {"2"}}

		rec := env.do(env.pages.CreateProduct, http.MethodPost, "/products/add", form, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "price must be a number")
		assert.Contains(t, rec.Body.String(), `value="Cup"`)
		assert.Empty(t, env.catalog.products)
	})

	t.Run("Product service failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.catalog.saveErr = errors.New("timeout")

		rec := env.do(env.pages.CreateProduct, http.MethodPost, "/products/add", valid, nil)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Could not save product: timeout")
	})

	t.Run("Edit form is prefilled", func(t *testing.T) {
		env := newTestEnv(t, kettle)
		rec := env.do(env.pages.EditProduct, http.MethodGet, "/products/edit/3", nil, map[string]string{"id": "3"})

		assert.Contains(t, rec.Body.String(), `value="Kettle"`)
		assert.Contains(t, rec.Body.String(), `action="/products/edit/3"`)
	})

	t.Run("Edit of unknown product is not found", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(env.pages.EditProduct, http.MethodGet, "/products/edit/9", nil, map[string]string{"id": "9"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Update redirects", func(t *testing.T) {
		env := newTestEnv(t, kettle)
		rec := env.do(env.pages.UpdateProduct, http.MethodPost, "/products/edit/3", valid, map[string]string{"id": "3"})

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "Cup", env.catalog.products[0].Name)
	})
}

func TestCart(t *testing.T) {
	t.Run("Empty cart", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.do(env.pages.Cart, http.MethodGet, "/cart", nil, nil)

		assert.Contains(t, rec.Body.String(), "Your cart is empty.")
		assert.NotContains(t, rec.Body.String(), `id="cart-badge"`)
	})

	t.Run("Renders lines inside the layout", func(t *testing.T) {
		env := newTestEnv(t)
		env.session.Cart.AddItem(mug, 2)
		env.session.Cart.AddItem(teapot, 1)

		rec := env.do(env.pages.Cart, http.MethodGet, "/cart", nil, nil)

		body := rec.Body.String()
		assert.Contains(t, body, `class="navbar"`)
		assert.Contains(t, body, `id="cart-item-1"`)
		assert.Contains(t, body, "$47.00")
		assert.Contains(t, body, `<span id="cart-badge" class="badge">3</span>`)
	})

	t.Run("Set quantity, remove and clear", func(t *testing.T) {
		env := newTestEnv(t)
		env.session.Cart.AddItem(mug, 2)
		env.session.Cart.AddItem(teapot, 1)

		rec := env.do(env.pages.SetCartQuantity, http.MethodPost, "/cart/items/1", url.Values{"quantity": {"5"}}, map[string]string{"id": "1"})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, 6, env.session.Cart.TotalItemCount())

		env.do(env.pages.SetCartQuantity, http.MethodPost, "/cart/items/1", url.Values{"quantity": {"0"}}, map[string]string{"id": "1"})
		assert.Equal(t, 1, env.session.Cart.TotalItemCount())

		env.do(env.pages.RemoveCartItem, http.MethodPost, "/cart/items/2/remove", url.Values{}, map[string]string{"id": "2"})
		assert.Equal(t, 0, env.session.Cart.TotalItemCount())

		env.session.Cart.AddItem(kettle, 1)
		env.do(env.pages.ClearCart, http.MethodPost, "/cart/clear", url.Values{}, nil)
		assert.Empty(t, env.session.Cart.Items())
	})

	t.Run("Non-numeric quantity", func(t *testing.T) {
		env := newTestEnv(t)
		env.session.Cart.AddItem(mug, 2)

		rec := env.do(env.pages.SetCartQuantity, http.MethodPost, "/cart/items/1", url.Values{"quantity": {"lots"}}, map[string]string{"id": "1"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, 2, env.session.Cart.TotalItemCount())
	})
}

func TestCheckout(t *testing.T) {
	t.Run("Success empties the cart and redirects", func(t *testing.T) {
		env := newTestEnv(t)
		env.session.Cart.AddItem(mug, 2)
		orderID := uuid.New()

		env.orders.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req *model.OrderRequest) bool {
			return req.SessionID == env.session.ID &&
				req.PromoCode != nil && *req.PromoCode == "HAPPYHRS" &&
				len(req.Items) == 1 && req.Items[0].ProductID == 1 && req.Items[0].Quantity == 2
		})).Return(&model.Order{ID: orderID}, nil)

		rec := env.do(env.pages.Checkout, http.MethodPost, "/cart/checkout", url.Values{"promo_code": {" HAPPYHRS "}}, nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/order-success?order="+orderID.String(), rec.Header().Get("Location"))
		assert.Empty(t, env.session.Cart.Items())
	})

	t.Run("Items added during checkout stay in the cart", func(t *testing.T) {
		env := newTestEnv(t)
		env.session.Cart.AddItem(mug, 2)

		env.orders.On("PlaceOrder", mock.Anything, mock.MatchedBy(func(req *model.OrderRequest) bool {
			return len(req.Items) == 1 && req.Items[0].ProductID == mug.ID && req.Items[0].Quantity == 2
		})).Run(func(mock.Arguments) {
			env.session.Cart.AddItem(mug, 1)
			env.session.Cart.AddItem(teapot, 1)
		}).Return(&model.Order{ID: uuid.New()}, nil)

		rec := env.do(env.pages.Checkout, http.MethodPost, "/cart/checkout", url.Values{}, nil)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, []model.CartLineItem{
			{Product: mug, Quantity: 1},
			{Product: teapot, Quantity: 1},
		}, env.session.Cart.Items())
	})

	t.Run("Domain error keeps the cart", func(t *testing.T) {
		env := newTestEnv(t)
		env.session.Cart.AddItem(mug, 1)
		env.orders.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, model.ErrInvalidPromoCode)

		rec := env.do(env.pages.Checkout, http.MethodPost, "/cart/checkout", url.Values{"promo_code": {"BADCODE1"}}, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Promo code is not valid")
		assert.Contains(t, rec.Body.String(), `value="BADCODE1"`)
		assert.Equal(t, 1, env.session.Cart.TotalItemCount())
	})

	t.Run("Unexpected failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.session.Cart.AddItem(mug, 1)
		env.orders.On("PlaceOrder", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		rec := env.do(env.pages.Checkout, http.MethodPost, "/cart/checkout", url.Values{}, nil)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Could not place order: db down")
	})
}

func TestOrders(t *testing.T) {
	t.Run("Listing passes the session viewer", func(t *testing.T) {
		env := newTestEnv(t)
		order := model.Order{ID: uuid.New(), SessionID: env.session.ID, Items: []model.OrderItem{{ProductName: "Mug", UnitPrice: 8.5, Quantity: 2}}}
		env.orders.On("ListOrders", mock.Anything, model.Viewer{SessionID: env.session.ID}).
			Return(&model.OrderList{Orders: []model.Order{order}}, nil)

		rec := env.do(env.pages.Orders, http.MethodGet, "/orders", nil, nil)

		body := rec.Body.String()
		assert.Contains(t, body, "My orders")
		assert.Contains(t, body, order.ID.String())
		assert.Contains(t, body, "$17.00")
	})

	t.Run("Admin listing", func(t *testing.T) {
		env := newTestEnv(t)
		env.orders.On("ListOrders", mock.Anything, mock.Anything).Return(&model.OrderList{IsAdmin: true}, nil)

		rec := env.do(env.pages.Orders, http.MethodGet, "/orders", nil, nil)

		assert.Contains(t, rec.Body.String(), "All orders")
	})

	t.Run("Detail not visible", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()
		env.orders.On("GetByID", mock.Anything, mock.Anything, id).Return(nil, nil)

		rec := env.do(env.pages.OrderDetail, http.MethodGet, "/orders/"+id.String(), nil, map[string]string{"id": id.String()})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Success page", func(t *testing.T) {
		env := newTestEnv(t)
		order := &model.Order{ID: uuid.New(), Items: []model.OrderItem{{ProductName: "Mug", UnitPrice: 8.5, Quantity: 1}}}
		env.orders.On("GetByID", mock.Anything, mock.Anything, order.ID).Return(order, nil)

		rec := env.do(env.pages.OrderSuccess, http.MethodGet, "/order-success?order="+order.ID.String(), nil, nil)

		assert.Contains(t, rec.Body.String(), "Thank you for your order!")
		assert.Contains(t, rec.Body.String(), "$8.50")
	})
}
