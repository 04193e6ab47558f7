package setting

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/http/httputil"
	"github.com/MrJamesThe3rd/mochi/internal/setting"
)

type Handler struct {
	repo *setting.Repository
}

func NewHandler(repo *setting.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{key}", h.get)
	r.Put("/{key}", h.set)
	r.Delete("/{key}", h.delete)
}

type valueResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repo.All(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var v json.RawMessage

	found, err := h.repo.Get(r.Context(), key, &v)
	httputil.Found(w, "setting", key, valueResponse{Key: key, Value: v}, found, err)
}

// set takes the raw JSON body as the new value.
func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	var v json.RawMessage
	if !httputil.Decode(w, r, &v) {
		return
	}

	s, err := h.repo.Set(r.Context(), chi.URLParam(r, "key"), v)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	deleted, err := h.repo.Delete(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if !deleted {
		httputil.WriteError(w, apperr.NotFound("setting", key))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
