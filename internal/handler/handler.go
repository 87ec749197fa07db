// Package handler renders the storefront pages and performs their actions.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/page"
	"storefront/internal/session"
	"storefront/internal/ui"
	"storefront/internal/view"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// PageFunc produces the content of one page. A nil content with a nil
// error means the function already wrote the response, e.g. a redirect.
type PageFunc func(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error)

// Layout is the shell every page renders in: it applies the interaction
// to the user menu, runs the page and draws the navigation bar around it.
type Layout struct {
	sessions *session.Manager
	renderer *view.Renderer
	logger   zerolog.Logger
}

// NewLayout creates the shared layout.
func NewLayout(sessions *session.Manager, renderer *view.Renderer, logger zerolog.Logger) *Layout {
	return &Layout{
		sessions: sessions,
		renderer: renderer,
		logger:   logger.With().Str("handler", "layout").Logger(),
	}
}

// Wrap turns a page into an http.Handler rendered inside the layout.
func (l *Layout) Wrap(fn PageFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		if !ok {
			s = l.sessions.Resolve(w, r)
			r = r.WithContext(session.WithSession(r.Context(), s))
		}

		// Every request through the layout is a pointer interaction; its
		// "from" names the element it came from.
		s.Menu.Click(r.URL.Query().Get("from"))

		content, err := fn(w, r, s)
		if err != nil {
			if errors.Is(err, page.ErrDiscarded) {
				l.logger.Debug().Str("path", r.URL.Path).Msg("request abandoned before render")
				return
			}
			l.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("page failed")
			content = errorContent(http.StatusInternalServerError, "An unexpected error occurred.")
		}
		if content == nil {
			return
		}

		l.render(w, r, s, content)
	})
}

func (l *Layout) render(w http.ResponseWriter, r *http.Request, s *session.Session, c *view.Content) {
	path := c.Path
	if path == "" {
		path = r.URL.Path
	}

	// The badge count is read after the page ran so it reflects its mutations.
	nav := ui.NewNavBar(path, s.Cart.TotalItemCount(), s.Menu.IsOpen())
	err := l.renderer.Render(w, nav, c)
	switch {
	case err == nil:
	case errors.Is(err, view.ErrResponseWrite):
		l.logger.Warn().Err(err).Str("template", c.Template).Msg("client went away mid-response")
	default:
		l.logger.Error().Err(err).Str("template", c.Template).Msg("failed to render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// NotFound renders the "page not found" page inside the layout.
func (l *Layout) NotFound() http.Handler {
	return l.Wrap(func(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
		return notFoundContent(r), nil
	})
}

// MethodNotAllowed renders a 405 page inside the layout.
func (l *Layout) MethodNotAllowed() http.Handler {
	return l.Wrap(func(w http.ResponseWriter, r *http.Request, s *session.Session) (*view.Content, error) {
		return errorContent(http.StatusMethodNotAllowed, "This page does not accept "+r.Method+" requests."), nil
	})
}

func notFoundContent(r *http.Request) *view.Content {
	return &view.Content{Template: "not_found", Title: "Not found", Status: http.StatusNotFound, Data: r.URL.Path}
}

func errorContent(status int, message string) *view.Content {
	return &view.Content{Template: "error", Title: "Error", Status: status, Data: message}
}

func redirect(w http.ResponseWriter, r *http.Request, to string) (*view.Content, error) {
	http.Redirect(w, r, to, http.StatusSeeOther)
	return nil, nil
}

func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func orderID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	return id, err == nil
}

func viewerFor(r *http.Request, s *session.Session) model.Viewer {
	v := model.ViewerFrom(r.Context())
	v.SessionID = s.ID
	return v
}
