package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "annotator-readmill/pkg/errors"
)

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// statusFor maps a sync error to the status reported to the viewer. Failed
// remote calls are reported as a bad gateway whatever the remote status was.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case apperrors.IsType(err, apperrors.ErrorTypeTransport):
		return http.StatusBadGateway
	}
	return apperrors.GetStatusCode(err)
}
