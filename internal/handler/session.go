package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qr-billing/api/internal/auth"
	"github.com/qr-billing/api/internal/session"
)

// SessionReader loads the persisted identifier pair.
// Satisfied by *session.PGStore.
type SessionReader interface {
	Load(ctx context.Context) (session.PersistedSession, error)
}

// SessionHandler exposes the persisted session to the tracking view.
type SessionHandler struct {
	store       SessionReader
	tokenSecret string
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store SessionReader, tokenSecret string) *SessionHandler {
	return &SessionHandler{store: store, tokenSecret: tokenSecret}
}

// RegisterRoutes registers the session endpoint on the given Chi router.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.Get)
}

type sessionResponse struct {
	SessionID     *int64 `json:"session_id"`
	BusinessID    *int64 `json:"business_id"`
	TrackingToken string `json:"tracking_token,omitempty"`
}

// Get returns the last persisted identifier pair plus a tracking token the
// dashboard can use to open the checkout event stream. The token is only
// minted when both identifiers exist.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Load(r.Context())
	if err != nil {
		log.Printf("ERROR: load session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := sessionResponse{SessionID: rec.SessionID, BusinessID: rec.BusinessID}
	if rec.SessionID != nil && rec.BusinessID != nil {
		token, err := auth.GenerateTrackingToken(h.tokenSecret, *rec.SessionID, *rec.BusinessID)
		if err != nil {
			log.Printf("ERROR: generate tracking token: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp.TrackingToken = token
	}

	writeJSON(w, http.StatusOK, resp)
}
