// Package errhttp maps domain sentinel errors to HTTP responses.
// Add a case to classify for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/recordvault/pkg/database"
	"github.com/ghuser/recordvault/pkg/httpx"
	recorddomain "github.com/ghuser/recordvault/services/record/domain"
)

// WriteError writes err as an httpx.ErrorBody. Wrapped sentinels are matched
// with errors.Is; anything unrecognized is a 500. In production, 5xx
// messages are replaced with the status text.
func WriteError(w http.ResponseWriter, err error, isProduction bool) {
	status, code := classify(err)
	httpx.JSONError(w, status, code, httpx.SafeError(err, status, isProduction))
}

// StatusFor returns the HTTP status a handler should answer err with.
func StatusFor(err error) int {
	status, _ := classify(err)
	return status
}

// ErrInvalidSelection and ErrNothingToUpdate are ErrValidation, so the
// ErrValidation case must stay after the more specific ones.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, recorddomain.ErrInvalidID):
		return http.StatusBadRequest, httpx.CodeInvalidID
	case errors.Is(err, recorddomain.ErrRecordNotFound):
		return http.StatusNotFound, httpx.CodeNotFound
	case errors.Is(err, recorddomain.ErrDeleteCancelled):
		return http.StatusPreconditionRequired, httpx.CodeNotConfirmed
	case errors.Is(err, recorddomain.ErrValidation):
		return http.StatusUnprocessableEntity, httpx.CodeValidation
	case errors.Is(err, database.ErrUnavailable):
		return http.StatusServiceUnavailable, httpx.CodeStoreDown
	default:
		return http.StatusInternalServerError, httpx.CodeInternal
	}
}
