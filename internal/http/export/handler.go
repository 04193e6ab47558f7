package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/mochi/internal/apperr"
	"github.com/MrJamesThe3rd/mochi/internal/database"
	"github.com/MrJamesThe3rd/mochi/internal/export"
	"github.com/MrJamesThe3rd/mochi/internal/http/httputil"
)

type Handler struct {
	svc     *export.Service
	backups *export.Backups
	store   export.SnapshotStore
}

func NewHandler(svc *export.Service, backups *export.Backups, store export.SnapshotStore) *Handler {
	return &Handler{svc: svc, backups: backups, store: store}
}

// Routes serves record exports.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.export)
}

// BackupRoutes serves whole-store snapshots, both as downloads and as files
// kept in the backup directory.
func (h *Handler) BackupRoutes(r chi.Router) {
	r.Get("/", h.listBackups)
	r.Post("/", h.saveBackup)
	r.Get("/snapshot", h.snapshot)
	r.Post("/snapshot", h.restoreSnapshot)
	r.Post("/restore", h.restoreBackup)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}

	if !format.Valid() {
		httputil.BadRequest(w, fmt.Sprintf("unknown format %q", format))
		return
	}

	rng, err := httputil.DateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(format, rng, time.Now())))

	n, err := h.svc.Export(r.Context(), rng, format, w)
	if err != nil {
		// Headers may already be out; the log is all that is left.
		slog.Error("failed to export records", "format", format, "error", err)
		return
	}

	slog.Info("records exported", "format", format, "count", n)
}

type backupResponse struct {
	Name string `json:"name"`
}

func (h *Handler) listBackups(w http.ResponseWriter, r *http.Request) {
	paths, err := h.backups.List()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := make([]backupResponse, 0, len(paths))
	for _, p := range paths {
		resp = append(resp, backupResponse{Name: filepath.Base(p)})
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) saveBackup(w http.ResponseWriter, r *http.Request) {
	path, err := h.backups.Save(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, backupResponse{Name: filepath.Base(path)})
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Backup(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.BackupFilename(snap.Timestamp)))
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) restoreSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap database.Snapshot
	if !httputil.Decode(w, r, &snap) {
		return
	}

	if err := h.store.Restore(r.Context(), &snap); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// restoreBackup restores one of the listed backup files. Only names returned
// by List are accepted.
func (h *Handler) restoreBackup(w http.ResponseWriter, r *http.Request) {
	var req backupResponse
	if !httputil.Decode(w, r, &req) {
		return
	}

	paths, err := h.backups.List()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	i := slices.IndexFunc(paths, func(p string) bool { return filepath.Base(p) == req.Name })
	if i < 0 {
		httputil.WriteError(w, apperr.NotFound("backup", req.Name))
		return
	}

	if err := h.backups.Restore(r.Context(), paths[i]); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
