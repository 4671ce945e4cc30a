package api

import (
	"net/http"

	"github.com/papervault-io/papervault/internal/auth"
	"github.com/papervault-io/papervault/internal/server"
)

// SearchHandler serves title and topic search over the requester's
// accessible documents.
func SearchHandler(srv server.Server) http.Handler {
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

		if r.Method != "GET" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		query := r.URL.Query().Get("q")
		docs, err := srv.Resolver.Search(r.Context(), userID, query)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		out := make([]DocumentResponse, 0, len(docs))
		for i := range docs {
			out = append(out, documentResponse(&docs[i]))
		}
		respondJSON(w, srv.Logger, http.StatusOK, out)
	})
}
