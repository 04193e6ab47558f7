package statistics

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/mochi/internal/http/httputil"
	"github.com/MrJamesThe3rd/mochi/internal/record"
	"github.com/MrJamesThe3rd/mochi/internal/statistics"
)

type Handler struct {
	svc *statistics.Service
}

func NewHandler(svc *statistics.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/overview", h.overview)
	r.Get("/trend", h.trend)
	r.Get("/categories", h.categories)
	r.Get("/accounts", h.accounts)
	r.Get("/monthly", h.monthly)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	rng, err := httputil.DateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.svc.Overview(r.Context(), rng))
}

func (h *Handler) trend(w http.ResponseWriter, r *http.Request) {
	rng, err := httputil.DateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.svc.Trend(r.Context(), rng))
}

// categories breaks down expenses unless type=income is given.
func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	rng, err := httputil.DateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t := record.TypeExpense
	if r.URL.Query().Get("type") == string(record.TypeIncome) {
		t = record.TypeIncome
	}

	httputil.WriteJSON(w, http.StatusOK, h.svc.CategoryBreakdown(r.Context(), rng, t))
}

func (h *Handler) accounts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.AccountBreakdown(r.Context()))
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	months, err := httputil.Int(r, "months", statistics.DefaultMonths)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if months < 1 || months > 60 {
		httputil.BadRequest(w, "months must be between 1 and 60")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.svc.MonthlyComparison(r.Context(), months))
}
