package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// decodeRequest decodes a JSON request body into v, rejecting unknown
// fields.
func decodeRequest(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("error decoding request body: %w", err)
	}
	return nil
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, log hclog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps an error to its taxonomy status code and writes a
// JSON error body. Internal errors are logged in full but surfaced
// with a generic message.
func respondError(w http.ResponseWriter, log hclog.Logger, err error, logArgs ...any) {
	status := vaulterrors.StatusCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("internal error", append([]any{"error", err}, logArgs...)...)
		msg = "internal server error"
	} else {
		log.Warn("request failed", append([]any{"error", err, "status", status}, logArgs...)...)
	}
	respondJSON(w, log, status, errorResponse{Error: msg})
}

// parseResourceIDFromURL parses a URL path with the format
// "/api/v1/{apiPath}/{resourceID}" and returns the resource ID.
func parseResourceIDFromURL(url, apiPath string) (string, error) {
	url = strings.TrimPrefix(url, fmt.Sprintf("/api/v1/%s", apiPath))

	urlPath := strings.Split(url, "/")
	var resultPath []string
	for _, v := range urlPath {
		if v != "" {
			resultPath = append(resultPath, v)
		}
	}
	if len(resultPath) != 1 {
		return "", fmt.Errorf("invalid URL path")
	}
	return resultPath[0], nil
}
