package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qr-billing/api/internal/enum"
)

// Errors returned by the reconciliation and read calls.
var (
	// ErrOrderNotFound is the backend's distinct "no matching order" signal
	// on the mark-paid endpoint. It is the only error that triggers the
	// one-shot re-submission fallback.
	ErrOrderNotFound = errors.New("no matching order on backend")
)

const (
	menuFetchAttempts = 3
	menuFetchBackoff  = 400 * time.Millisecond
)

// Client talks to the opaque ordering backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client. Timeouts live here; callers own
// retry policy.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// --- Wire types (backend contract, camelCase per the backend's API) ---

// CreateOrderRequest is the single versioned order-creation payload.
type CreateOrderRequest struct {
	BusinessID    int64              `json:"businessId"`
	TableNumber   string             `json:"tableNumber,omitempty"`
	QRID          string             `json:"qrId,omitempty"`
	CustomerName  string             `json:"customerName"`
	PaymentMethod string             `json:"paymentMethod"`
	Items         []OrderItemRequest `json:"items"`
}

// OrderItemRequest is one menu line of the order payload.
type OrderItemRequest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

type createOrderResponse struct {
	Success       bool   `json:"success"`
	OrderID       *int64 `json:"orderId"`
	SessionID     *int64 `json:"sessionId"`
	PaymentMethod string `json:"paymentMethod"`
	Message       string `json:"message"`
}

// MarkPaidRequest keys the reconciliation call by whichever identifiers
// the caller has. Total is an optional audit amount.
type MarkPaidRequest struct {
	BusinessID  int64  `json:"businessId"`
	SessionID   *int64 `json:"sessionId,omitempty"`
	QRID        string `json:"qrId,omitempty"`
	TableNumber string `json:"tableNumber,omitempty"`
	Total       string `json:"total,omitempty"`
}

type markPaidResponse struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// --- Calls ---

// CreateOrder performs exactly one order-creation call and normalizes the
// outcome. It never returns a Go error: transport failures become the
// NetworkFailure variant, backend refusals the Rejected variant.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) SubmissionResult {
	id := requestID()
	body, err := json.Marshal(req)
	if err != nil {
		return failed(fmt.Sprintf("encode request: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/checkout", bytes.NewReader(body))
	if err != nil {
		return failed(fmt.Sprintf("create request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("backend[%s] POST /api/checkout network failure: %v", id, err)
		return failed(err.Error())
	}
	defer resp.Body.Close()

	var decoded createOrderResponse
	raw, _ := io.ReadAll(resp.Body)
	// Non-JSON bodies are tolerated; the zero success flag rejects them below.
	_ = json.Unmarshal(raw, &decoded)

	log.Printf("backend[%s] POST /api/checkout status=%d success=%t elapsed=%s",
		id, resp.StatusCode, decoded.Success, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !decoded.Success {
		return rejected(resp.StatusCode, backendMessage(decoded.Message, raw))
	}

	return succeeded(Success{
		OrderID:       decoded.OrderID,
		SessionID:     decoded.SessionID,
		PaymentMethod: decoded.PaymentMethod,
	})
}

// MarkPaid asks the backend to record the order as paid. ErrOrderNotFound
// is returned only for the backend's distinct no-matching-order code; any
// other refusal or transport failure comes back as a generic error.
func (c *Client) MarkPaid(ctx context.Context, req MarkPaidRequest) error {
	id := requestID()
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders/mark-paid", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("backend[%s] POST /api/orders/mark-paid network failure: %v", id, err)
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var decoded markPaidResponse
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)

	log.Printf("backend[%s] POST /api/orders/mark-paid status=%d success=%t code=%q",
		id, resp.StatusCode, decoded.Success, decoded.ErrorCode)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && decoded.Success {
		return nil
	}
	if decoded.ErrorCode == enum.BackendCodeOrderNotFound {
		return ErrOrderNotFound
	}
	return fmt.Errorf("mark paid refused: status %d: %s", resp.StatusCode, backendMessage(decoded.Message, raw))
}

// FetchMenu retrieves the backend menu document. Menu loading tolerates a
// flaky backend: up to menuFetchAttempts attempts with a linear backoff,
// matching the UI's historical loading behavior. The checkout path never
// uses this policy.
func (c *Client) FetchMenu(ctx context.Context) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= menuFetchAttempts; attempt++ {
		doc, err := c.getJSON(ctx, "/api/menu")
		if err == nil {
			return doc, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(menuFetchBackoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("fetch menu after %d attempts: %w", menuFetchAttempts, lastErr)
}

// ListOrders reads order status for the tracking view. Single attempt; the
// tracking view polls.
func (c *Client) ListOrders(ctx context.Context, businessID int64, sessionID *int64) (json.RawMessage, error) {
	path := "/api/orders?businessId=" + strconv.FormatInt(businessID, 10)
	if sessionID != nil {
		path += "&sessionId=" + strconv.FormatInt(*sessionID, 10)
	}
	return c.getJSON(ctx, path)
}

func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}

	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return doc, nil
}

// --- Helpers ---

func requestID() string {
	return uuid.NewString()[:8]
}

func backendMessage(message string, raw []byte) string {
	if message != "" {
		return message
	}
	return truncate(string(raw), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
