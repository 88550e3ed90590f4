package handlers

import (
	"net/http"

	"github.com/ghuser/recordvault/pkg/errhttp"
	"github.com/ghuser/recordvault/pkg/httpx"
	pkgvalidator "github.com/ghuser/recordvault/pkg/validator"
	appsvcs "github.com/ghuser/recordvault/services/record/application/services"
	"github.com/ghuser/recordvault/services/record/domain/models"
)

// ListRecordsQuery holds the optional ordering of GET /api/records. With no
// sort the records come back in creation order.
type ListRecordsQuery struct {
	Sort string `json:"sort" validate:"omitempty,oneof=name createdAt"`
	Dir  string `json:"dir" validate:"omitempty,excluded_without=Sort,oneof=asc desc"`
}

// GetRecordsHandler handles GET /api/records requests.
type GetRecordsHandler struct {
	svc        *appsvcs.Services
	production bool
}

// NewGetRecordsHandler returns a GetRecordsHandler backed by the given services.
func NewGetRecordsHandler(svc *appsvcs.Services, production bool) *GetRecordsHandler {
	return &GetRecordsHandler{svc: svc, production: production}
}

// Execute lists every record, sorted when ?sort= is given.
func (h *GetRecordsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	q, ok := pkgvalidator.ValidateQuery(w, &ListRecordsQuery{
		Sort: r.URL.Query().Get("sort"),
		Dir:  r.URL.Query().Get("dir"),
	})
	if !ok {
		return
	}

	var (
		records []*models.Record
		err     error
	)
	if q.Sort == "" {
		records, err = h.svc.Vault.ListRecords(r.Context())
	} else {
		dir := q.Dir
		if dir == "" {
			dir = string(models.Ascending)
		}
		records, err = h.svc.Vault.SortRecords(r.Context(), q.Sort, dir)
	}
	if err != nil {
		errhttp.WriteError(w, err, h.production)
		return
	}
	httpx.JSON(w, http.StatusOK, toListResponse(records))
}
