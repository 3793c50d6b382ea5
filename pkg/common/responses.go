// Package common holds the HTTP response envelope and request body
// helpers shared by every handler.
package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	appErrors "archflow-backend/pkg/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	writeJSON(w, status, response)
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}

	writeJSON(w, status, response)
}

// RespondAppError sends an error response derived from an application
// error: its HTTP status, type as the code, and any structured details.
// Unknown errors become a plain 500.
func RespondAppError(w http.ResponseWriter, r *http.Request, err error) {
	RespondAppErrorWithData(w, r, err, nil)
}

// RespondAppErrorWithData is RespondAppError with a data payload attached
// to the same envelope. The chat endpoint uses this to hand the client its
// unmodified graph alongside the failure.
func RespondAppErrorWithData(w http.ResponseWriter, r *http.Request, err error, data interface{}) {
	status := http.StatusInternalServerError
	info := &ErrorInfo{
		Code:    string(appErrors.ErrorTypeInternal),
		Message: "an unexpected error occurred",
	}

	if appErr := appErrors.GetAppError(err); appErr != nil {
		status = appErr.HTTPStatus
		info.Code = string(appErr.Type)
		info.Message = appErr.Message
		info.Details = appErr.Details
		if appErr.Code != "" {
			info.Code = appErr.Code
		}
	}

	response := APIResponse{
		Success: false,
		Data:    data,
		Error:   info,
		Meta: &MetaInfo{
			RequestID: ExtractRequestID(r),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// ExtractRequestID extracts the request ID from the request context or
// headers.
func ExtractRequestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return ""
}

// ParseJSONBody parses a JSON request body with a size limit. Unknown
// fields are rejected so typos fail loudly instead of being ignored.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return appErrors.NewValidationError("request body too large").
				WithDetails(map[string]interface{}{"max_bytes": maxErr.Limit})
		}
		return appErrors.NewValidationError("invalid request body").
			WithDetails(map[string]interface{}{"violations": []string{err.Error()}}).
			WithCause(err)
	}

	return nil
}
