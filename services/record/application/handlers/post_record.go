package handlers

import (
	"net/http"

	pkgvalidator "github.com/ghuser/recordvault/pkg/validator"
	appsvcs "github.com/ghuser/recordvault/services/record/application/services"
)

// CreateRecordRequest is the request body for POST /api/records.
type CreateRecordRequest struct {
	Name    string `json:"name" validate:"required,notblank"`
	Details string `json:"details"`
}

// PostRecordHandler handles POST /api/records requests.
type PostRecordHandler struct {
	svc        *appsvcs.Services
	production bool
}

// NewPostRecordHandler returns a PostRecordHandler backed by the given services.
func NewPostRecordHandler(svc *appsvcs.Services, production bool) *PostRecordHandler {
	return &PostRecordHandler{svc: svc, production: production}
}

// Execute adds a record and answers 201 with the record and its backup.
func (h *PostRecordHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateRecordRequest](w, r)
	if !ok {
		return
	}

	res, err := h.svc.Vault.AddRecord(r.Context(), req.Name, req.Details)
	writeMutation(w, http.StatusCreated, res, err, h.production)
}
