package budget

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/mochi/internal/budget"
	"github.com/MrJamesThe3rd/mochi/internal/http/httputil"
)

type Handler struct {
	repo *budget.Repository
}

func NewHandler(repo *budget.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/active", h.active)
	r.Get("/status", h.allStatus)
	r.Get("/stats", h.stats)
	r.Get("/alerts", h.alerts)
	r.Post("/sync", h.syncAll)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/status", h.status)
	r.Post("/{id}/toggle", h.toggle)
	r.Post("/{id}/sync", h.sync)
	r.Post("/{id}/reset", h.reset)
}

type createBudgetRequest struct {
	Name           string        `json:"name"`
	Type           budget.Type   `json:"type"`
	TargetID       string        `json:"targetId,omitempty"`
	Amount         int64         `json:"amount"`
	Period         budget.Period `json:"period"`
	StartDate      string        `json:"startDate"`
	EndDate        string        `json:"endDate"`
	IsEnabled      *bool         `json:"isEnabled,omitempty"`
	AlertThreshold *int          `json:"alertThreshold,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	b := budget.Budget{
		Name:           req.Name,
		Type:           req.Type,
		TargetID:       req.TargetID,
		Amount:         req.Amount,
		Period:         req.Period,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		IsEnabled:      req.IsEnabled == nil || *req.IsEnabled,
		AlertThreshold: budget.DefaultAlertThreshold,
	}

	if req.AlertThreshold != nil {
		b.AlertThreshold = *req.AlertThreshold
	}

	created, err := h.repo.Create(r.Context(), b)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	enabled, err := httputil.Bool(r, "isEnabled")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	budgets, err := h.repo.FindByQuery(r.Context(), budget.Query{
		Type:      budget.Type(q.Get("type")),
		Period:    budget.Period(q.Get("period")),
		TargetID:  q.Get("targetId"),
		IsEnabled: enabled,
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, budgets)
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.repo.FindActive(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, budgets)
}

func (h *Handler) allStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.repo.AllStatus(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statuses)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.repo.NeedingAlert(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, budgets)
}

func (h *Handler) syncAll(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.SyncAllSpent(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, found, err := h.repo.Get(r.Context(), id)
	httputil.Found(w, "budget", id, b, found, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p budget.Patch
	if !httputil.Decode(w, r, &p) {
		return
	}

	b, found, err := h.repo.Update(r.Context(), id, p)
	httputil.Found(w, "budget", id, b, found, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, s)
}

// mutate runs one of the single-budget operations and writes the result.
func (h *Handler) mutate(fn func(*budget.Repository, *http.Request, string) (budget.Budget, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := fn(h.repo, r, chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, b)
	}
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	h.mutate(func(repo *budget.Repository, r *http.Request, id string) (budget.Budget, error) {
		return repo.ToggleEnabled(r.Context(), id)
	})(w, r)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	h.mutate(func(repo *budget.Repository, r *http.Request, id string) (budget.Budget, error) {
		return repo.SyncSpent(r.Context(), id)
	})(w, r)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(func(repo *budget.Repository, r *http.Request, id string) (budget.Budget, error) {
		return repo.Reset(r.Context(), id)
	})(w, r)
}
