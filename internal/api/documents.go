package api

import (
	"errors"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/papervault-io/papervault/internal/auth"
	"github.com/papervault-io/papervault/internal/server"
	"github.com/papervault-io/papervault/pkg/models"
	"github.com/papervault-io/papervault/pkg/pagebundle"
	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// DocumentPostRequest creates a document from its metadata and pages.
type DocumentPostRequest struct {
	Title  string   `json:"title"`
	Topic  string   `json:"topic"`
	Public bool     `json:"public"`
	Pages  []string `json:"pages"`
}

func (req DocumentPostRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&req.Topic, validation.Required, validation.Length(1, 500)),
		validation.Field(&req.Pages, validation.Required),
	)
}

// DocumentResponse is the wire form of a document.
type DocumentResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Topic          string    `json:"topic"`
	Public         bool      `json:"public"`
	OwnerID        string    `json:"ownerId"`
	ContentLocator string    `json:"contentLocator"`
	CreatedAt      time.Time `json:"createdAt"`
}

func documentResponse(d *models.Document) DocumentResponse {
	return DocumentResponse{
		ID:             d.ID,
		Title:          d.Title,
		Topic:          d.Topic,
		Public:         d.Public,
		OwnerID:        d.OwnerID,
		ContentLocator: d.ContentLocator,
		CreatedAt:      d.CreatedAt,
	}
}

// DocumentGetResponse extends the metadata with the page content.
type DocumentGetResponse struct {
	DocumentResponse
	Pages []string `json:"pages"`
}

// DocumentPatchRequest toggles visibility.
type DocumentPatchRequest struct {
	Public *bool `json:"public"`
}

// DocumentsHandler serves the document collection: upload and "my
// files" listing.
func DocumentsHandler(srv server.Server) http.Handler {
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
			req := DocumentPostRequest{}
			if err := decodeRequest(r, &req); err != nil {
				respondError(w, srv.Logger,
					vaulterrors.Newf("CreateDocument", vaulterrors.ErrValidation, "%v", err),
					logArgs...)
				return
			}
			if err := req.Validate(); err != nil {
				respondError(w, srv.Logger,
					vaulterrors.Newf("CreateDocument", vaulterrors.ErrValidation, "%v", err),
					logArgs...)
				return
			}

			payload, err := pagebundle.New(req.Pages).Encode()
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}

			// Store content first, then the record; a failed record
			// insert must not leave an orphaned blob behind.
			locator, err := srv.BlobStore.Put(r.Context(), payload)
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			doc := models.Document{
				Title:          req.Title,
				Topic:          req.Topic,
				Public:         req.Public,
				OwnerID:        userID,
				ContentLocator: locator,
			}
			if err := srv.DB.Create(&doc).Error; err != nil {
				if delErr := srv.BlobStore.Delete(r.Context(), locator); delErr != nil {
					srv.Logger.Warn("failed to clean up blob after record insert failure",
						append([]any{"locator", locator, "error", delErr}, logArgs...)...)
				}
				respondError(w, srv.Logger, err, logArgs...)
				return
			}

			srv.Logger.Info("document created",
				append([]any{"document_id", doc.ID, "user", userID}, logArgs...)...)
			respondJSON(w, srv.Logger, http.StatusCreated, documentResponse(&doc))

		case "GET":
			docs, err := models.ListDocumentsByOwner(srv.DB.WithContext(r.Context()), userID)
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			out := make([]DocumentResponse, 0, len(docs))
			for i := range docs {
				out = append(out, documentResponse(&docs[i]))
			}
			respondJSON(w, srv.Logger, http.StatusOK, out)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// DocumentHandler serves a single document: fetch with content,
// visibility toggle, and delete.
func DocumentHandler(srv server.Server) http.Handler {
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

		docID, err := parseResourceIDFromURL(r.URL.Path, "documents")
		if err != nil {
			respondError(w, srv.Logger,
				vaulterrors.New("Document", vaulterrors.ErrValidation, "missing document ID"),
				logArgs...)
			return
		}
		logArgs = append(logArgs, "document_id", docID)

		doc, err := models.GetDocument(srv.DB.WithContext(r.Context()), docID)
		if err != nil {
			respondError(w, srv.Logger, err, logArgs...)
			return
		}

		switch r.Method {
		case "GET":
			canAccess, err := srv.Resolver.CanAccess(r.Context(), userID, doc)
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			if !canAccess {
				respondError(w, srv.Logger,
					vaulterrors.Newf("GetDocument", vaulterrors.ErrForbidden,
						"not authorized for document %s", docID),
					logArgs...)
				return
			}

			payload, err := srv.BlobStore.Get(r.Context(), doc.ContentLocator)
			if err != nil {
				if errors.Is(err, vaulterrors.ErrNotFound) {
					err = vaulterrors.Newf("GetDocument", vaulterrors.ErrUpstreamFetch,
						"content of document %s is missing upstream", docID)
				}
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			bundle, err := pagebundle.Decode(payload)
			if err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			respondJSON(w, srv.Logger, http.StatusOK, DocumentGetResponse{
				DocumentResponse: documentResponse(doc),
				Pages:            bundle.Pages,
			})

		case "PATCH":
			if doc.OwnerID != userID {
				respondError(w, srv.Logger,
					vaulterrors.Newf("UpdateDocument", vaulterrors.ErrForbidden,
						"only the owner may update document %s", docID),
					logArgs...)
				return
			}
			req := DocumentPatchRequest{}
			if err := decodeRequest(r, &req); err != nil || req.Public == nil {
				respondError(w, srv.Logger,
					vaulterrors.New("UpdateDocument", vaulterrors.ErrValidation,
						"public flag is required"),
					logArgs...)
				return
			}
			if err := models.UpdateDocumentVisibility(
				srv.DB.WithContext(r.Context()), docID, *req.Public); err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			doc.Public = *req.Public
			respondJSON(w, srv.Logger, http.StatusOK, documentResponse(doc))

		case "DELETE":
			if doc.OwnerID != userID {
				respondError(w, srv.Logger,
					vaulterrors.Newf("DeleteDocument", vaulterrors.ErrForbidden,
						"only the owner may delete document %s", docID),
					logArgs...)
				return
			}
			if err := models.DeleteDocument(srv.DB.WithContext(r.Context()), docID); err != nil {
				respondError(w, srv.Logger, err, logArgs...)
				return
			}
			// Blob cleanup is sequenced after the record and its
			// grants are gone; a stray blob is preferable to a record
			// pointing at deleted content.
			if err := srv.BlobStore.Delete(r.Context(), doc.ContentLocator); err != nil {
				srv.Logger.Warn("failed to delete document blob",
					append([]any{"locator", doc.ContentLocator, "error", err}, logArgs...)...)
			}
			srv.Logger.Info("document deleted", logArgs...)
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
