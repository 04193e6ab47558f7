package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/mochi/internal/app"
	"github.com/MrJamesThe3rd/mochi/internal/http/account"
	"github.com/MrJamesThe3rd/mochi/internal/http/budget"
	"github.com/MrJamesThe3rd/mochi/internal/http/category"
	"github.com/MrJamesThe3rd/mochi/internal/http/export"
	"github.com/MrJamesThe3rd/mochi/internal/http/importcsv"
	"github.com/MrJamesThe3rd/mochi/internal/http/record"
	"github.com/MrJamesThe3rd/mochi/internal/http/setting"
	"github.com/MrJamesThe3rd/mochi/internal/http/statistics"
	"github.com/MrJamesThe3rd/mochi/internal/http/system"
)

type Handlers struct {
	Records    *record.Handler
	Categories *category.Handler
	Accounts   *account.Handler
	Budgets    *budget.Handler
	Statistics *statistics.Handler
	Settings   *setting.Handler
	Import     *importcsv.Handler
	Export     *export.Handler
	System     *system.Handler
}

func New(allowedOrigins []string, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))

			r.Route("/records", h.Records.Routes)
			r.Route("/categories", h.Categories.Routes)
			r.Route("/accounts", h.Accounts.Routes)
			r.Route("/budgets", h.Budgets.Routes)
			r.Route("/statistics", h.Statistics.Routes)
			r.Route("/settings", h.Settings.Routes)
			r.Route("/export", h.Export.Routes)
			r.Route("/backups", h.Export.BackupRoutes)
			r.Route("/system", h.System.Routes)
		})

		r.Route("/import", h.Import.Routes)
	})

	return router
}

// NewHandlers builds every API handler from the application services.
func NewHandlers(a *app.App) Handlers {
	return Handlers{
		Records:    record.NewHandler(a.Records),
		Categories: category.NewHandler(a.Categories),
		Accounts:   account.NewHandler(a.Accounts),
		Budgets:    budget.NewHandler(a.Budgets),
		Statistics: statistics.NewHandler(a.Statistics),
		Settings:   setting.NewHandler(a.Settings),
		Import:     importcsv.NewHandler(a.Importer),
		Export:     export.NewHandler(a.Exporter, a.Backups, a.Store),
		System:     system.NewHandler(a.Migrations, a.Init),
	}
}
