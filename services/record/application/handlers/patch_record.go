package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/recordvault/pkg/errhttp"
	"github.com/ghuser/recordvault/pkg/httpx"
	pkgvalidator "github.com/ghuser/recordvault/pkg/validator"
	appsvcs "github.com/ghuser/recordvault/services/record/application/services"
)

// UpdateRecordRequest is the request body for PATCH /api/records/{id}.
// Empty fields are left unchanged; both empty is rejected with 422.
type UpdateRecordRequest struct {
	Name    string `json:"name"`
	Details string `json:"details"`
}

// PatchRecordHandler handles PATCH /api/records/{id} requests.
type PatchRecordHandler struct {
	svc        *appsvcs.Services
	production bool
}

// NewPatchRecordHandler returns a PatchRecordHandler backed by the given services.
func NewPatchRecordHandler(svc *appsvcs.Services, production bool) *PatchRecordHandler {
	return &PatchRecordHandler{svc: svc, production: production}
}

// Execute applies a partial update and answers the updated record.
func (h *PatchRecordHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[UpdateRecordRequest](w, r)
	if !ok {
		return
	}

	rec, err := h.svc.Vault.UpdateRecord(r.Context(), chi.URLParam(r, "id"), req.Name, req.Details)
	if err != nil {
		errhttp.WriteError(w, err, h.production)
		return
	}
	httpx.JSON(w, http.StatusOK, toRecordResponse(rec))
}
