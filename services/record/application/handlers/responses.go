package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/recordvault/pkg/errhttp"
	"github.com/ghuser/recordvault/pkg/httpx"
	appsvcs "github.com/ghuser/recordvault/services/record/application/services"
	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
	domainsvcs "github.com/ghuser/recordvault/services/record/domain/services"
)

// RecordResponse is the JSON shape of one record.
type RecordResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MutationResponse is returned by create and delete. Warning is set when the
// change was saved but the backup could not be written.
type MutationResponse struct {
	Record     RecordResponse `json:"record"`
	BackupPath string         `json:"backup_path,omitempty"`
	Warning    string         `json:"warning,omitempty"`
}

// ListResponse wraps a list of records.
type ListResponse struct {
	Records []RecordResponse `json:"records"`
	Count   int              `json:"count"`
}

// ExportResponse describes the written export report.
type ExportResponse struct {
	Path       string    `json:"path"`
	Count      int       `json:"count"`
	ExportedAt time.Time `json:"exported_at"`
}

// StatsResponse renders absent values as "N/A", like every other driver.
type StatsResponse struct {
	Count             int    `json:"count"`
	LastModified      string `json:"last_modified"`
	EarliestCreated   string `json:"earliest_created"`
	LatestCreated     string `json:"latest_created"`
	LongestName       string `json:"longest_name"`
	LongestNameLength int    `json:"longest_name_length"`
}

func toRecordResponse(r *models.Record) RecordResponse {
	return RecordResponse{
		ID:        r.ID,
		Name:      r.Name.String(),
		Details:   r.Details,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toListResponse(records []*models.Record) ListResponse {
	out := make([]RecordResponse, len(records))
	for i, r := range records {
		out[i] = toRecordResponse(r)
	}
	return ListResponse{Records: out, Count: len(out)}
}

func toStatsResponse(s *domainsvcs.Statistics) StatsResponse {
	return StatsResponse{
		Count:             s.Count,
		LastModified:      models.FormatTimestamp(s.LastModified),
		EarliestCreated:   models.FormatTimestamp(s.EarliestCreated),
		LatestCreated:     models.FormatTimestamp(s.LatestCreated),
		LongestName:       s.LongestNameText(),
		LongestNameLength: s.LongestNameLength,
	}
}

// writeMutation answers a create or delete. A committed change whose backup
// failed still gets the success status, with the failure as a warning.
func writeMutation(w http.ResponseWriter, status int, res *appsvcs.MutationResult, err error, production bool) {
	if res == nil {
		errhttp.WriteError(w, err, production)
		return
	}
	body := MutationResponse{Record: toRecordResponse(res.Record), BackupPath: res.BackupPath}
	if err != nil {
		if !errors.Is(err, recorddomain.ErrIOFailure) {
			errhttp.WriteError(w, err, production)
			return
		}
		body.Warning = "backup failed; the change is saved"
		if !production {
			body.Warning += ": " + err.Error()
		}
	}
	httpx.JSON(w, status, body)
}
