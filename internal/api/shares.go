package api

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/papervault-io/papervault/internal/auth"
	"github.com/papervault-io/papervault/internal/server"
	"github.com/papervault-io/papervault/pkg/access"
	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// SharePostRequest grants a user access to a document by email.
type SharePostRequest struct {
	DocumentID   string `json:"documentId"`
	GranteeEmail string `json:"granteeEmail"`
}

func (req SharePostRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.GranteeEmail, validation.Required),
	)
}

// ShareResponse is the wire form of a share grant.
type ShareResponse struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	GrantorID  string    `json:"grantorId"`
	GranteeID  string    `json:"granteeId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ShareDetailResponse extends a grant with the document and counterpart
// user, for the listing endpoints.
type ShareDetailResponse struct {
	ShareResponse
	Document         DocumentResponse `json:"document"`
	CounterpartEmail string           `json:"counterpartEmail"`
}

func shareDetailResponse(g access.GrantWithDetails) ShareDetailResponse {
	return ShareDetailResponse{
		ShareResponse: ShareResponse{
			ID:         g.Grant.ID,
			DocumentID: g.Grant.DocumentID,
			GrantorID:  g.Grant.GrantorID,
			GranteeID:  g.Grant.GranteeID,
			CreatedAt:  g.Grant.CreatedAt,
		},
		Document:         documentResponse(&g.Document),
		CounterpartEmail: g.Counterpart.Email,
	}
}

// SharesHandler serves the share grant collection: creating grants and
// listing them in either direction.
func SharesHandler(srv server.Server) http.Handler {
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

		switch r.Method {
		case "POST":
			req := SharePostRequest{}
			if err := decodeRequest(r, &req); err != nil {
				respondError(w, srv.Logger,
					vaulterrors.Newf("CreateShare", vaulterrors.ErrValidation, "%v", err),
					logArgs...)
				return
			}
			if err := req.Validate(); err != nil {
				respondError(w, srv.Logger,
					vaulterrors.Newf("CreateShare", vaulterrors.ErrValidation, "%v", err),
					logArgs...)
				return
			}

			grant, err := srv.Ledger.Grant(r.Context(), userID, req.DocumentID, req.GranteeEmail)
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			srv.Logger.Info("share grant created",
				append([]any{
					"grant_id", grant.ID,
					"document_id", grant.DocumentID,
					"grantee", grant.GranteeID,
				}, logArgs...)...)
			respondJSON(w, srv.Logger, http.StatusCreated, ShareResponse{
				ID:         grant.ID,
				DocumentID: grant.DocumentID,
				GrantorID:  grant.GrantorID,
				GranteeID:  grant.GranteeID,
				CreatedAt:  grant.CreatedAt,
			})

		case "GET":
			var (
				grants []access.GrantWithDetails
				err    error
			)
			switch dir := r.URL.Query().Get("direction"); dir {
			case "", "to-me":
				grants, err = srv.Ledger.GrantedTo(r.Context(), userID)
			case "by-me":
				grants, err = srv.Ledger.GrantedBy(r.Context(), userID)
			default:
				err = vaulterrors.Newf("ListShares", vaulterrors.ErrValidation,
					"unknown direction %q", dir)
			}
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			out := make([]ShareDetailResponse, 0, len(grants))
			for _, g := range grants {
				out = append(out, shareDetailResponse(g))
			}
			respondJSON(w, srv.Logger, http.StatusOK, out)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// ShareHandler serves a single share grant: revocation.
func ShareHandler(srv server.Server) http.Handler {
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

		if r.Method != "DELETE" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		grantID, err := parseResourceIDFromURL(r.URL.Path, "shares")
		if err != nil {
			respondError(w, srv.Logger,
				vaulterrors.New("RevokeShare", vaulterrors.ErrValidation, "missing grant ID"),
				logArgs...)
			return
		}
		logArgs = append(logArgs, "grant_id", grantID)

		if err := srv.Ledger.Revoke(r.Context(), userID, grantID); err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}
		srv.Logger.Info("share grant revoked", logArgs...)
		w.WriteHeader(http.StatusNoContent)
	})
}
