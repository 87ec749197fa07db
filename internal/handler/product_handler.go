package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/model"
	"storefront/internal/page"
	"storefront/internal/session"
	"storefront/internal/view"
)

type productForm struct {
	Heading string
	Action  string
	Product model.Product
	Error   string
}

// Products mounts the product listing: one fetch per visit.
func (p *Pages) Products(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	if _, err := s.Products.Mount(r.Context()); err != nil {
		return nil, err
	}
	return listingContent(s), nil
}

// AddToCart adds one unit of a listed product and re-renders the listing
// from the cached list.
func (p *Pages) AddToCart(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	id, ok := productID(r)
	if !ok {
		return notFoundContent(r), nil
	}
	if err := p.ensureListing(r.Context(), s); err != nil {
		return nil, err
	}

	if !s.Products.AddToCart(id) {
		p.logger.Debug().Int64("product_id", id).Msg("add to cart ignored for unlisted product")
	}
	return listingContent(s), nil
}

// ConfirmDelete asks for confirmation before deleting a product.
func (p *Pages) ConfirmDelete(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	id, ok := productID(r)
	if !ok {
		return notFoundContent(r), nil
	}

	product, ok := s.Products.Product(id)
	if !ok {
		fetched, err := p.catalog.GetProduct(r.Context(), id)
		if err != nil {
			return p.productFetchFailure(r, id, err), nil
		}
		product = *fetched
	}

	return &view.Content{Template: "confirm_delete", Title: "Delete product", Data: product}, nil
}

// DeleteProduct deletes a product once confirmed and re-renders the listing
// without refetching it. A failed delete leaves the listing as it was and
// shows a notice.
func (p *Pages) DeleteProduct(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	id, ok := productID(r)
	if !ok {
		return notFoundContent(r), nil
	}
	if err := p.ensureListing(r.Context(), s); err != nil {
		return nil, err
	}

	confirmed := r.PostFormValue("confirm") == "yes"
	if err := s.Products.Delete(r.Context(), id, confirmed); err != nil && !page.IsMutationFailure(err) {
		return nil, err
	}

	return listingContent(s), nil
}

// NewProduct renders the empty add-product form.
func (p *Pages) NewProduct(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	return formContent(productForm{Heading: "Add product", Action: "/products/add"}, http.StatusOK), nil
}

// CreateProduct submits the add-product form.
func (p *Pages) CreateProduct(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	form := productForm{Heading: "Add product", Action: "/products/add"}

	product, err := parseProductForm(r)
	form.Product = product
	if err != nil {
		form.Error = err.Error()
		return formContent(form, http.StatusUnprocessableEntity), nil
	}

	created, err := p.catalog.CreateProduct(r.Context(), &product)
	if err != nil {
		failure := model.NewMutationFailure("Could not save product", err)
		p.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		form.Error = failure.Error()
		return formContent(form, http.StatusBadGateway), nil
	}

	p.logger.Info().Int64("product_id", created.ID).Msg("product added from form")
	return redirect(w, r, "/products")
}

// EditProduct renders the edit form filled with the current product.
func (p *Pages) EditProduct(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	id, ok := productID(r)
	if !ok {
		return notFoundContent(r), nil
	}

	product, err := p.catalog.GetProduct(r.Context(), id)
	if err != nil {
		return p.productFetchFailure(r, id, err), nil
	}

	return formContent(productForm{
		Heading: "Edit product",
		Action:  fmt.Sprintf("/products/edit/%d", id),
		Product: *product,
	}, http.StatusOK), nil
}

// UpdateProduct submits the edit form.
func (p *Pages) UpdateProduct(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
	id, ok := productID(r)
	if !ok {
		return notFoundContent(r), nil
	}
	form := productForm{Heading: "Edit product", Action: fmt.Sprintf("/products/edit/%d", id)}

	product, err := parseProductForm(r)
	product.ID = id
	form.Product = product
	if err != nil {
		form.Error = err.Error()
		return formContent(form, http.StatusUnprocessableEntity), nil
	}

	if _, err := p.catalog.UpdateProduct(r.Context(), id, &product); err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return notFoundContent(r), nil
		}
		failure := model.NewMutationFailure("Could not save product", err)
		p.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
		form.Error = failure.Error()
		return formContent(form, http.StatusBadGateway), nil
	}

	return redirect(w, r, "/products")
}

// ensureListing mounts the listing when an action arrives before it was
// ever loaded, so actions always have a list to render.
func (p *Pages) ensureListing(ctx context.Context, s *session.Session) error {
	if s.Products.View().Status != page.Loading {
		return nil
	}
	_, err := s.Products.Mount(ctx)
	return err
}

func (p *Pages) productFetchFailure(r *http.Request, id int64, err error) *view.Content {
	if errors.Is(err, model.ErrProductNotFound) {
		return notFoundContent(r)
	}
	failure := model.NewFetchFailure("Could not load product", err)
	p.logger.Error().Err(err).Int64("product_id", id).Msg("failed to load product")
	return errorContent(http.StatusBadGateway, failure.Error())
}

func listingContent(s *session.Session) *view.Content {
	return &view.Content{Template: "products", Title: "Products", Data: s.Products.View(), Path: "/products"}
}

func formContent(form productForm, status int) *view.Content {
	return &view.Content{Template: "product_form", Title: form.Heading, Status: status, Data: form}
}

// parseProductForm reads the product fields. The returned product holds
// whatever parsed so the form can be redisplayed.
func parseProductForm(r *http.Request) (model.Product, error) {
	if err := r.ParseForm(); err != nil {
		return model.Product{}, fmt.Errorf("invalid form submission")
	}

	product := model.Product{
		Name:        strings.TrimSpace(r.PostForm.Get("name")),
		Description: strings.TrimSpace(r.PostForm.Get("description")),
	}

	var problems []string
	if v, err := strconv.ParseFloat(strings.TrimSpace(r.PostForm.Get("price")), 64); err == nil {
		product.Price = v
	} else {
		problems = append(problems, "price must be a number")
	}
	if v, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("stock"))); err == nil {
		product.Stock = v
	} else {
		problems = append(problems, "stock must be a whole number")
	}
	if v, err := strconv.ParseInt(strings.TrimSpace(r.PostForm.Get("categoryId")), 10, 64); err == nil {
		product.CategoryID = v
	} else {
		problems = append(problems, "category must be a whole number")
	}

	if len(problems) > 0 {
		return product, fmt.Errorf("invalid fields: %s", strings.Join(problems, ", "))
	}
	if err := product.Validate(); err != nil {
		return product, err
	}
	return product, nil
}
