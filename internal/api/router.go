package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stella-dust/zolapub/internal/blogservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *blogservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Sync batches.
	r.Post("/sync/push", h.Push)
	r.Post("/sync/pull", h.Pull)
	r.Get("/activity", h.Activity)

	// Catalog.
	r.Get("/articles", h.ListArticles)
	r.Post("/articles", h.NewArticle)
	r.Get("/tags", h.Tags)
	r.Get("/search", h.Search)

	r.Post("/images", h.UploadImage)

	// Site.
	r.Post("/publish", h.Publish)
	r.Post("/preview", h.Preview)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
