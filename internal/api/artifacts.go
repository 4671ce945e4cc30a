package api

import (
	"net/http"

	"github.com/papervault-io/papervault/internal/server"
	"github.com/papervault-io/papervault/pkg/pagebundle"
	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// ArtifactHandler serves merge artifacts by name. Artifact names are
// unguessable, so the endpoint takes no authentication; expired or
// swept artifacts simply return a not found.
func ArtifactHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		name, err := parseResourceIDFromURL(r.URL.Path, "artifacts")
		if err != nil {
			respondError(w, srv.Logger,
				vaulterrors.New("GetArtifact", vaulterrors.ErrValidation,
					"missing artifact name"),
				logArgs...)
			return
		}

		payload, err := srv.Artifacts.Get(name)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		w.Header().Set("Content-Type", pagebundle.ContentType)
		if _, err := w.Write(payload); err != nil {
			srv.Logger.Error("error writing artifact response",
				append([]any{"error", err}, logArgs...)...)
		}
	})
}
