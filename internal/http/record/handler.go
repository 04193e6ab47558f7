package record

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/mochi/internal/http/httputil"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

type Handler struct {
	repo *record.Repository
}

func NewHandler(repo *record.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/recent", h.recent)
	r.Get("/stats", h.stats)
	r.Get("/by-date", h.byDate)
	r.Get("/trash", h.trash)
	r.Delete("/trash", h.emptyTrash)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.softDelete)
	r.Post("/{id}/restore", h.restore)
	r.Delete("/{id}/permanent", h.hardDelete)
}

type createRecordRequest struct {
	Type       record.Type `json:"type"`
	Amount     int64       `json:"amount"`
	CategoryID string      `json:"categoryId"`
	AccountID  string      `json:"accountId"`
	Date       string      `json:"date"`
	Time       string      `json:"time,omitempty"`
	Remark     string      `json:"remark,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	rec, err := h.repo.Create(r.Context(), record.Record{
		Type:       req.Type,
		Amount:     req.Amount,
		CategoryID: req.CategoryID,
		AccountID:  req.AccountID,
		Date:       req.Date,
		Time:       req.Time,
		Remark:     req.Remark,
		Tags:       req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, rec)
}

// list pages through live records. Every query parameter narrows the search.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := httputil.Int(r, "page", 1)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	size, err := httputil.Int(r, "pageSize", record.DefaultPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.repo.FindByQuery(r.Context(), record.Query{
		Type:       record.Type(q.Get("type")),
		CategoryID: q.Get("categoryId"),
		AccountID:  q.Get("accountId"),
		StartDate:  q.Get("startDate"),
		EndDate:    q.Get("endDate"),
		Keyword:    q.Get("keyword"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.Int(r, "limit", record.DefaultRecentLimit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	recs, err := h.repo.FindRecent(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, recs)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	rng, err := httputil.DateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stats, err := h.repo.Stats(r.Context(), rng)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) byDate(w http.ResponseWriter, r *http.Request) {
	rng, err := httputil.DateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if rng == nil {
		httputil.BadRequest(w, "startDate and endDate are required")
		return
	}

	groups, err := h.repo.RecordsByDate(r.Context(), *rng)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, groups)
}

func (h *Handler) trash(w http.ResponseWriter, r *http.Request) {
	recs, err := h.repo.Trash(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, recs)
}

type emptyTrashResponse struct {
	Deleted int `json:"deleted"`
}

func (h *Handler) emptyTrash(w http.ResponseWriter, r *http.Request) {
	n, err := h.repo.EmptyTrash(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, emptyTrashResponse{Deleted: n})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, found, err := h.repo.Get(r.Context(), id)
	httputil.Found(w, "record", id, rec, found, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p record.Patch
	if !httputil.Decode(w, r, &p) {
		return
	}

	rec, found, err := h.repo.Update(r.Context(), id, p)
	httputil.Found(w, "record", id, rec, found, err)
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	rec, err := h.repo.SoftDelete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	rec, err := h.repo.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) hardDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.HardDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
