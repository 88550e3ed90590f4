package handlers

import (
	"net/http"

	"github.com/ghuser/recordvault/pkg/errhttp"
	"github.com/ghuser/recordvault/pkg/httpx"
	pkgvalidator "github.com/ghuser/recordvault/pkg/validator"
	appsvcs "github.com/ghuser/recordvault/services/record/application/services"
)

// SearchRecordsQuery holds the parameters of GET /api/records/search.
type SearchRecordsQuery struct {
	By string `json:"by" validate:"required,oneof=name id"`
	Q  string `json:"q" validate:"required,notblank"`
}

// SearchRecordsHandler handles GET /api/records/search requests.
type SearchRecordsHandler struct {
	svc        *appsvcs.Services
	production bool
}

// NewSearchRecordsHandler returns a SearchRecordsHandler backed by the given services.
func NewSearchRecordsHandler(svc *appsvcs.Services, production bool) *SearchRecordsHandler {
	return &SearchRecordsHandler{svc: svc, production: production}
}

// Execute searches by name substring or by exact id. An id search with no
// match answers 404; a name search with no match answers an empty list.
func (h *SearchRecordsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	q, ok := pkgvalidator.ValidateQuery(w, &SearchRecordsQuery{
		By: r.URL.Query().Get("by"),
		Q:  r.URL.Query().Get("q"),
	})
	if !ok {
		return
	}

	records, err := h.svc.Vault.SearchRecords(r.Context(), q.By, q.Q)
	if err != nil {
		errhttp.WriteError(w, err, h.production)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(records))
}
