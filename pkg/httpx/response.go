package httpx

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in ErrorBody.Code. Clients branch on the code; the
// message is for people.
const (
	CodeBadRequest   = "bad_request"
	CodeInvalidID    = "invalid_id"
	CodeNotFound     = "not_found"
	CodeNotConfirmed = "not_confirmed"
	CodeValidation   = "validation_failed"
	CodeTooLarge     = "body_too_large"
	CodeStoreDown    = "store_unavailable"
	CodeInternal     = "internal"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v as JSON with the given status code. Encoding errors are
// discarded once the header is out.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes an ErrorBody with the given code and message.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: message, Code: code})
}

// SafeError returns the message to show a client. In production 5xx
// messages are replaced with the status text.
func SafeError(err error, status int, isProduction bool) string {
	if isProduction && status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}
