package handlers

import (
	"net/http"

	"github.com/ghuser/recordvault/pkg/errhttp"
	"github.com/ghuser/recordvault/pkg/httpx"
	appsvcs "github.com/ghuser/recordvault/services/record/application/services"
)

// PostExportHandler handles POST /api/export requests.
type PostExportHandler struct {
	svc        *appsvcs.Services
	production bool
}

// NewPostExportHandler returns a PostExportHandler backed by the given services.
func NewPostExportHandler(svc *appsvcs.Services, production bool) *PostExportHandler {
	return &PostExportHandler{svc: svc, production: production}
}

// Execute rewrites the export report on the server's filesystem.
func (h *PostExportHandler) Execute(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Vault.ExportData(r.Context())
	if err != nil {
		errhttp.WriteError(w, err, h.production)
		return
	}
	httpx.JSON(w, http.StatusOK, ExportResponse{Path: res.Path, Count: res.Count, ExportedAt: res.ExportedAt})
}

// GetStatsHandler handles GET /api/stats requests.
type GetStatsHandler struct {
	svc        *appsvcs.Services
	production bool
}

// NewGetStatsHandler returns a GetStatsHandler backed by the given services.
func NewGetStatsHandler(svc *appsvcs.Services, production bool) *GetStatsHandler {
	return &GetStatsHandler{svc: svc, production: production}
}

// Execute answers a statistics snapshot.
func (h *GetStatsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Vault.ViewStatistics(r.Context())
	if err != nil {
		errhttp.WriteError(w, err, h.production)
		return
	}
	httpx.JSON(w, http.StatusOK, toStatsResponse(stats))
}
