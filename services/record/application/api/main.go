package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/recordvault/pkg/config"
	"github.com/ghuser/recordvault/services/record/application/handlers"
	appsvcs "github.com/ghuser/recordvault/services/record/application/services"
)

// RecordRoutes registers record endpoints on the provided chi router, which
// is expected to be mounted at /api.
func RecordRoutes(r chi.Router, svcs *appsvcs.Services, cfg *config.Config) {
	prod := cfg.Environment == config.EnvProduction

	r.Route("/records", func(r chi.Router) {
		r.Post("/", handlers.NewPostRecordHandler(svcs, prod).Execute)
		r.Get("/", handlers.NewGetRecordsHandler(svcs, prod).Execute)
		r.Get("/search", handlers.NewSearchRecordsHandler(svcs, prod).Execute)
		r.Patch("/{id}", handlers.NewPatchRecordHandler(svcs, prod).Execute)
		r.Delete("/{id}", handlers.NewDeleteRecordHandler(svcs, prod).Execute)
	})
	r.Post("/export", handlers.NewPostExportHandler(svcs, prod).Execute)
	r.Get("/stats", handlers.NewGetStatsHandler(svcs, prod).Execute)
}
