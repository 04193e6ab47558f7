package system

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/mochi/internal/datainit"
	"github.com/MrJamesThe3rd/mochi/internal/http/httputil"
	"github.com/MrJamesThe3rd/mochi/internal/migration"
)

type Handler struct {
	migrations *migration.Service
	init       *datainit.Service
}

func NewHandler(migrations *migration.Service, init *datainit.Service) *Handler {
	return &Handler{migrations: migrations, init: init}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/status", h.status)
	r.Get("/integrity", h.integrity)
	r.Post("/migrate", h.migrate)
	r.Post("/repair", h.repair)
}

type statusResponse struct {
	CurrentVersion int                 `json:"currentVersion"`
	LatestVersion  int                 `json:"latestVersion"`
	NeedsMigration bool                `json:"needsMigration"`
	Migrations     []migration.Applied `json:"migrations"`
	Initialized    bool                `json:"initialized"`
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		CurrentVersion: h.migrations.CurrentVersion(),
		LatestVersion:  h.migrations.LatestVersion(),
		NeedsMigration: h.migrations.NeedsMigration(),
		Migrations:     h.migrations.History(),
		Initialized:    h.init.IsInitialized(),
	})
}

type integrityResponse struct {
	Schema migration.Report   `json:"schema"`
	Data   datainit.Integrity `json:"data"`
}

func (h *Handler) integrity(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, integrityResponse{
		Schema: h.migrations.ValidateIntegrity(r.Context()),
		Data:   h.init.CheckDataIntegrity(r.Context()),
	})
}

func (h *Handler) migrate(w http.ResponseWriter, r *http.Request) {
	if err := h.migrations.Migrate(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.status(w, r)
}

// repair runs the data repair and reports the integrity that follows it.
func (h *Handler) repair(w http.ResponseWriter, r *http.Request) {
	h.init.RepairData(r.Context())
	h.integrity(w, r)
}
