package api

import (
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/papervault-io/papervault/internal/auth"
	"github.com/papervault-io/papervault/internal/server"
	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// MergePostRequest asks for the listed documents to be merged, in
// order, into a downloadable artifact.
type MergePostRequest struct {
	DocumentIDs []string `json:"documentIds"`
}

func (req MergePostRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.DocumentIDs, validation.Required),
	)
}

// MergePostResponse carries the URL of the finished artifact.
type MergePostResponse struct {
	ArtifactURL string `json:"artifactUrl"`
}

// MergeHandler serves merge requests.
func MergeHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		userID, ok := auth.GetUserID(r.Context())
		if !ok {
			srv.Logger.Error("user ID not found in request context", logArgs...)
			http.Error(
				w, "No authorization information in request", http.StatusUnauthorized)
			return
		}

		if r.Method != "POST" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		req := MergePostRequest{}
		if err := decodeRequest(r, &req); err != nil {
			respondError(w, srv.Logger,
				vaulterrors.Newf("Merge", vaulterrors.ErrValidation, "%v", err),
				logArgs...)
			return
		}
		if err := req.Validate(); err != nil {
			respondError(w, srv.Logger,
				vaulterrors.Newf("Merge", vaulterrors.ErrValidation, "%v", err),
				logArgs...)
			return
		}

		name, err := srv.Merge.Merge(r.Context(), userID, req.DocumentIDs)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		respondJSON(w, srv.Logger, http.StatusCreated, MergePostResponse{
			ArtifactURL: fmt.Sprintf("/api/v1/artifacts/%s", name),
		})
	})
}
