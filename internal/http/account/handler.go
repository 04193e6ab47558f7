package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/mochi/internal/account"
	"github.com/MrJamesThe3rd/mochi/internal/http/httputil"
)

type Handler struct {
	repo *account.Repository
}

func NewHandler(repo *account.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/totals", h.totals)
	r.Post("/transfer", h.transfer)
	r.Put("/order", h.reorder)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Put("/{id}/balance", h.setBalance)
	r.Post("/{id}/sync", h.sync)
	r.Post("/{id}/toggle", h.toggle)
}

type createAccountRequest struct {
	Name      string       `json:"name"`
	Type      account.Type `json:"type"`
	Icon      string       `json:"icon"`
	Color     string       `json:"color"`
	Balance   int64        `json:"balance"`
	Order     int          `json:"order"`
	Remark    string       `json:"remark,omitempty"`
	IsEnabled *bool        `json:"isEnabled,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	a, err := h.repo.Create(r.Context(), account.Account{
		Name:      req.Name,
		Type:      req.Type,
		Icon:      req.Icon,
		Color:     req.Color,
		Balance:   req.Balance,
		Order:     req.Order,
		Remark:    req.Remark,
		IsEnabled: req.IsEnabled == nil || *req.IsEnabled,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	enabled, err := httputil.Bool(r, "isEnabled")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	accounts, err := h.repo.FindByQuery(r.Context(), account.Query{
		Type:      account.Type(r.URL.Query().Get("type")),
		IsEnabled: enabled,
		Keyword:   r.URL.Query().Get("keyword"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, accounts)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

type totalsResponse struct {
	TotalAssets int64 `json:"totalAssets"`
	TotalDebts  int64 `json:"totalDebts"`
	NetAssets   int64 `json:"netAssets"`
}

func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	assets, err := h.repo.TotalAssets(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	debts, err := h.repo.TotalDebts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, totalsResponse{
		TotalAssets: assets,
		TotalDebts:  debts,
		NetAssets:   assets - debts,
	})
}

type transferRequest struct {
	FromID string `json:"fromAccountId"`
	ToID   string `json:"toAccountId"`
	Amount int64  `json:"amount"`
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	if err := h.repo.Transfer(r.Context(), req.FromID, req.ToID, req.Amount); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	var updates []account.OrderUpdate
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

	a, found, err := h.repo.Get(r.Context(), id)
	httputil.Found(w, "account", id, a, found, err)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p account.Patch
	if !httputil.Decode(w, r, &p) {
		return
	}

	a, found, err := h.repo.Update(r.Context(), id, p)
	httputil.Found(w, "account", id, a, found, err)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type balanceRequest struct {
	Balance int64 `json:"balance"`
}

func (h *Handler) setBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	a, err := h.repo.SetBalance(r.Context(), chi.URLParam(r, "id"), req.Balance)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.SyncBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.ToggleEnabled(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, a)
}
