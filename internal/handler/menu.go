package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MenuReader fetches the menu document from the ordering backend.
// Satisfied by *backend.Client.
type MenuReader interface {
	FetchMenu(ctx context.Context) (json.RawMessage, error)
}

// MenuHandler proxies the backend menu document.
type MenuHandler struct {
	backend MenuReader
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(backend MenuReader) *MenuHandler {
	return &MenuHandler{backend: backend}
}

// RegisterRoutes registers the menu endpoint on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Get)
}

// Get returns the menu document. Retries against a flaky backend happen in
// the client; by the time an error reaches here the backend is really down.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.backend.FetchMenu(r.Context())
	if err != nil {
		log.Printf("ERROR: fetch menu: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "menu unavailable"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}
