package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/qr-billing/api/internal/cart"
	"github.com/qr-billing/api/internal/checkout"
)

// FlowRunner is the slice of the checkout controller the handler needs.
// Satisfied by *checkout.Controller; narrow interface for testability.
type FlowRunner interface {
	Confirm(ctx context.Context, req checkout.Request) (*checkout.OrderRecord, error)
}

// CheckoutHandler handles the order confirmation endpoint.
type CheckoutHandler struct {
	flow FlowRunner
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(flow FlowRunner) *CheckoutHandler {
	return &CheckoutHandler{flow: flow}
}

// RegisterRoutes registers the checkout endpoint on the given Chi router.
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.Confirm)
}

// --- Request / Response types ---

type checkoutRequest struct {
	CustomerName  string         `json:"customer_name"`
	PaymentMethod string         `json:"payment_method"`
	Items         []checkoutItem `json:"items"`
}

type checkoutItem struct {
	ItemID          int64           `json:"item_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	SelectedOptions []string        `json:"selected_options,omitempty"`
}

type orderItemResponse struct {
	ItemID          int64    `json:"item_id"`
	Name            string   `json:"name"`
	UnitPrice       string   `json:"unit_price"`
	Quantity        int      `json:"quantity"`
	SelectedOptions []string `json:"selected_options,omitempty"`
}

type orderRecordResponse struct {
	Items          []orderItemResponse `json:"items"`
	Subtotal       string              `json:"subtotal"`
	Tax            string              `json:"tax"`
	Total          string              `json:"total"`
	OrderID        *int64              `json:"order_id"`
	SessionID      *int64              `json:"session_id"`
	BusinessID     int64               `json:"business_id"`
	TableNumber    string              `json:"table_number,omitempty"`
	QRID           string              `json:"qr_id,omitempty"`
	PaymentMethod  string              `json:"payment_method"`
	PaymentStatus  string              `json:"payment_status"`
	PaymentWarning string              `json:"payment_warning,omitempty"`
}

func toOrderRecordResponse(rec *checkout.OrderRecord) orderRecordResponse {
	items := make([]orderItemResponse, len(rec.Items))
	for i, it := range rec.Items {
		items[i] = orderItemResponse{
			ItemID:          it.ItemID,
			Name:            it.Name,
			UnitPrice:       it.UnitPrice.StringFixed(2),
			Quantity:        it.Quantity,
			SelectedOptions: it.SelectedOptions,
		}
	}
	return orderRecordResponse{
		Items:          items,
		Subtotal:       rec.Subtotal.StringFixed(2),
		Tax:            rec.Tax.StringFixed(2),
		Total:          rec.Total.StringFixed(2),
		OrderID:        rec.OrderID,
		SessionID:      rec.SessionID,
		BusinessID:     rec.BusinessID,
		TableNumber:    rec.TableNumber,
		QRID:           rec.QRID,
		PaymentMethod:  rec.PaymentMethod,
		PaymentStatus:  rec.PaymentStatus,
		PaymentWarning: rec.PaymentWarning,
	}
}

// --- Handlers ---

// Confirm runs one checkout attempt. The physical ordering context rides on
// the query string, forwarded verbatim from the page the QR code opened.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]cart.LineItem, len(req.Items))
	for i, it := range req.Items {
		lines[i] = cart.LineItem{
			ItemID:          it.ItemID,
			Name:            it.Name,
			UnitPrice:       it.UnitPrice,
			Quantity:        it.Quantity,
			SelectedOptions: it.SelectedOptions,
		}
	}

	rec, err := h.flow.Confirm(r.Context(), checkout.Request{
		Cart:          lines,
		Query:         r.URL.Query(),
		CustomerName:  req.CustomerName,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.writeConfirmError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderRecordResponse(rec))
}

func (h *CheckoutHandler) writeConfirmError(w http.ResponseWriter, err error) {
	if errors.Is(err, checkout.ErrEmptyCart) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		return
	}
	if errors.Is(err, checkout.ErrCheckoutInFlight) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "checkout already in progress"})
		return
	}

	var rejected *checkout.RejectedError
	if errors.As(err, &rejected) {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":          rejected.Message,
			"backend_status": rejected.Status,
		})
		return
	}

	var unreachable *checkout.UnreachableError
	if errors.As(err, &unreachable) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "ordering service unreachable"})
		return
	}

	log.Printf("ERROR: confirm checkout: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
