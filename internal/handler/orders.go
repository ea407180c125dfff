package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	mw "github.com/qr-billing/api/internal/middleware"
)

// OrderReader reads order status from the ordering backend.
// Satisfied by *backend.Client.
type OrderReader interface {
	ListOrders(ctx context.Context, businessID int64, sessionID *int64) (json.RawMessage, error)
}

// OrdersHandler proxies the tracking view's order list. The backend owns the
// document shape; the response passes through untouched.
type OrdersHandler struct {
	backend           OrderReader
	store             SessionReader
	defaultBusinessID int64
}

// NewOrdersHandler creates a new OrdersHandler.
func NewOrdersHandler(backend OrderReader, store SessionReader, defaultBusinessID int64) *OrdersHandler {
	return &OrdersHandler{backend: backend, store: store, defaultBusinessID: defaultBusinessID}
}

// RegisterRoutes registers the orders endpoint on the given Chi router.
func (h *OrdersHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
}

// List fetches orders for the current session. A tracking token wins, then
// explicit query parameters; the persisted session fills in whatever the
// caller omitted, so the tracking view keeps working after a page reload.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	businessID, sessionID := h.resolveIdentifiers(r)

	doc, err := h.backend.ListOrders(r.Context(), businessID, sessionID)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "ordering service unavailable"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (h *OrdersHandler) resolveIdentifiers(r *http.Request) (int64, *int64) {
	// A tracking token pins the exact identifier pair it was minted for.
	if claims := mw.ClaimsFromContext(r.Context()); claims != nil {
		sessionID := claims.SessionID
		return claims.BusinessID, &sessionID
	}

	var businessID int64
	var sessionID *int64

	if s := r.URL.Query().Get("business_id"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			businessID = v
		}
	}
	if s := r.URL.Query().Get("session_id"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			sessionID = &v
		}
	}

	if businessID == 0 || sessionID == nil {
		rec, err := h.store.Load(r.Context())
		if err != nil {
			log.Printf("ERROR: load session for orders: %v", err)
		} else {
			if businessID == 0 && rec.BusinessID != nil {
				businessID = *rec.BusinessID
			}
			if sessionID == nil {
				sessionID = rec.SessionID
			}
		}
	}
	if businessID == 0 {
		businessID = h.defaultBusinessID
	}

	return businessID, sessionID
}
