package category

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/category"
	"github.com/MrJamesThe3rd/mochi/internal/http/httputil"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

type Handler struct {
	repo *category.Repository
}

func NewHandler(repo *category.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/tree", h.tree)
	r.Get("/usage", h.usage)
	r.Put("/order", h.reorder)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/path", h.path)
	r.Post("/{id}/toggle", h.toggle)
	r.Post("/{id}/move", h.move)
}

type createCategoryRequest struct {
	Name      string      `json:"name"`
	Type      record.Type `json:"type"`
	Icon      string      `json:"icon"`
	Color     string      `json:"color"`
	ParentID  string      `json:"parentId,omitempty"`
	Order     int         `json:"order"`
	IsEnabled *bool       `json:"isEnabled,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	c, err := h.repo.Create(r.Context(), category.Category{
		Name:      req.Name,
		Type:      req.Type,
		Icon:      req.Icon,
		Color:     req.Color,
		ParentID:  req.ParentID,
		Order:     req.Order,
		IsEnabled: req.IsEnabled == nil || *req.IsEnabled,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, c)
}

func typeParam(r *http.Request) *record.Type {
	t := record.Type(r.URL.Query().Get("type"))
	if t == "" {
		return nil
	}

	return &t
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	enabled, err := httputil.Bool(r, "isEnabled")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	q := category.Query{IsEnabled: enabled, Keyword: r.URL.Query().Get("keyword")}

	if t := typeParam(r); t != nil {
		q.Type = *t
	}

	if r.URL.Query().Has("parentId") {
		q.ParentID = new(r.URL.Query().Get("parentId"))
	}

	cats, err := h.repo.FindByQuery(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cats)
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.repo.BuildTree(r.Context(), typeParam(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, nodes)
}

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.repo.UsageStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, usage)
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	var updates []category.OrderUpdate
	if !httputil.Decode(w, r, &updates) {
		return
	}

	if err := h.repo.UpdateOrder(r.Context(), updates); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, found, err := h.repo.Get(r.Context(), id)
	httputil.Found(w, "category", id, c, found, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p category.Patch
	if !httputil.Decode(w, r, &p) {
		return
	}

	c, found, err := h.repo.Update(r.Context(), id, p)
	httputil.Found(w, "category", id, c, found, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) path(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cats, err := h.repo.Path(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if len(cats) == 0 {
		httputil.WriteError(w, apperr.NotFound("category", id))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cats)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.ToggleEnabled(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, c)
}

type moveRequest struct {
	// ParentID is empty to make the category a root.
	ParentID string `json:"parentId"`
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	c, err := h.repo.MoveToParent(r.Context(), chi.URLParam(r, "id"), req.ParentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, c)
}
