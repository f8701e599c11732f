package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/stella-dust/zolapub/internal/blogservice"
	"github.com/stella-dust/zolapub/internal/models"
	"github.com/stella-dust/zolapub/internal/preview"
)

const maxUploadBytes = 10 << 20 // 10 MB

// Handler holds API route handlers.
type Handler struct {
	svc *blogservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *blogservice.Service) *Handler {
	return &Handler{svc: svc}
}

// treeParam reads the "tree" query parameter, defaulting to the vault.
func treeParam(r *http.Request) (models.Tree, bool) {
	switch t := models.Tree(r.URL.Query().Get("tree")); t {
	case "":
		return models.TreeVault, true
	case models.TreeVault, models.TreeSite:
		return t, true
	default:
		return "", false
	}
}

// Push handles POST /api/sync/push.
//
//	@Summary		Copy vault articles and images to the site tree
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncReport
//	@Failure		409	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync/push [post]
func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Push(r.Context())
	if err != nil {
		writeError(w, "push", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Pull handles POST /api/sync/pull.
//
//	@Summary		Copy site articles and images back to the vault
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	SyncReport
//	@Failure		409	{object}	errResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sync/pull [post]
func (h *Handler) Pull(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Pull(r.Context())
	if err != nil {
		writeError(w, "pull", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Activity handles GET /api/activity.
//
//	@Summary		Recent activity log entries, newest first
//	@Tags			sync
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries"
//	@Success		200		{object}	ActivityResponse
//	@Security		BearerAuth
//	@Router			/activity [get]
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	writeJSON(w, http.StatusOK, ActivityResponse{Entries: h.svc.Activity(limit)})
}

// ListArticles handles GET /api/articles.
//
//	@Summary		List catalogued articles, newest first
//	@Tags			articles
//	@Produce		json
//	@Param			tree	query		string	false	"Tree"	Enums(vault, site)
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			drafts	query		bool	false	"Include drafts"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	ArticleListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles [get]
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	t, ok := treeParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("tree must be vault or site"))
		return
	}
	q := r.URL.Query()
	drafts, _ := strconv.ParseBool(q.Get("drafts"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	rows, err := h.svc.Articles(r.Context(), blogservice.ArticleQuery{
		Tree:   t,
		Tag:    q.Get("tag"),
		Drafts: drafts,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, "list articles", err)
		return
	}
	writeJSON(w, http.StatusOK, ArticleListResponse{Articles: rows})
}

// NewArticle handles POST /api/articles.
//
//	@Summary		Create a draft article in the vault
//	@Tags			articles
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NewArticleRequest	true	"Article to create"
//	@Success		201		{object}	NewArticleResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/articles [post]
func (h *Handler) NewArticle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req NewArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.NewArticle(r.Context(), req.Title, req.Tags)
	if err != nil {
		writeError(w, "new article", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Tags handles GET /api/tags.
//
//	@Summary		Tag usage counts
//	@Tags			articles
//	@Produce		json
//	@Param			tree	query		string	false	"Tree"	Enums(vault, site)
//	@Success		200		{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	t, ok := treeParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("tree must be vault or site"))
		return
	}
	tags, err := h.svc.Tags(r.Context(), t)
	if err != nil {
		writeError(w, "tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across catalogued articles
//	@Tags			articles
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			tree	query		string	false	"Tree"	Enums(vault, site)
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	t, ok := treeParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("tree must be vault or site"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), t, q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// UploadImage handles POST /api/images (multipart/form-data, field "file").
//
//	@Summary		Store an image in the vault images directory
//	@Tags			articles
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		201		{object}	ImageUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	res, err := h.svc.AddImage(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, "upload image", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Publish handles POST /api/publish.
//
//	@Summary		Commit the site tree and push it to the remote
//	@Tags			site
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PublishRequest	false	"Commit message"
//	@Success		200		{object}	publish.Result
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/publish [post]
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.Publish(r.Context(), req.Message)
	if err != nil {
		writeError(w, "publish", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Preview handles POST /api/preview.
//
//	@Summary		Start the site preview server
//	@Tags			site
//	@Produce		json
//	@Success		200	{object}	PreviewResponse
//	@Security		BearerAuth
//	@Router			/preview [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Preview(r.Context())
	if err != nil {
		writeError(w, "preview", err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{Status: string(st), URL: preview.DefaultURL})
}
