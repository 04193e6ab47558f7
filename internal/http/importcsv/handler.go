package importcsv

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/mochi/internal/http/httputil"
	"github.com/MrJamesThe3rd/mochi/internal/importer"
	"github.com/MrJamesThe3rd/mochi/internal/record"
)

const maxUpload = 10 << 20

type Handler struct {
	svc *importer.Service
}

func NewHandler(svc *importer.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type importResponse struct {
	DryRun   bool            `json:"dryRun"`
	Imported int             `json:"imported"`
	Records  []record.Record `json:"records"`
}

// importCSV reads the "file" form field. With dryRun=true the rows are
// resolved and returned without being stored.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		httputil.BadRequest(w, "failed to parse form: "+err.Error())
		return
	}

	dryRun, err := httputil.Bool(r, "dryRun")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	if dryRun != nil && *dryRun {
		recs, err := h.svc.Preview(r.Context(), file)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, importResponse{DryRun: true, Records: recs})

		return
	}

	recs, err := h.svc.Import(r.Context(), file)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, importResponse{Imported: len(recs), Records: recs})
}
