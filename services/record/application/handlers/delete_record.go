package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appsvcs "github.com/ghuser/recordvault/services/record/application/services"
)

// DeleteRecordHandler handles DELETE /api/records/{id} requests.
type DeleteRecordHandler struct {
	svc        *appsvcs.Services
	production bool
}

// NewDeleteRecordHandler returns a DeleteRecordHandler backed by the given services.
func NewDeleteRecordHandler(svc *appsvcs.Services, production bool) *DeleteRecordHandler {
	return &DeleteRecordHandler{svc: svc, production: production}
}

// Execute deletes a record. The caller confirms with ?confirm=true; without
// it nothing is deleted and the answer is 428.
func (h *DeleteRecordHandler) Execute(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	res, err := h.svc.Vault.DeleteRecord(r.Context(), chi.URLParam(r, "id"), confirmed)
	writeMutation(w, http.StatusOK, res, err, h.production)
}
