package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateOrder_Success(t *testing.T) {
	var gotBody CreateOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/checkout" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"orderId":55,"sessionId":9,"paymentMethod":"ONLINE"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	result := c.CreateOrder(context.Background(), CreateOrderRequest{
		BusinessID:    1,
		TableNumber:   "7",
		CustomerName:  "Guest",
		PaymentMethod: "ONLINE",
		Items:         []OrderItemRequest{{ID: 3, Name: "Dosa", Price: "100.00", Quantity: 2}},
	})

	if result.Success == nil {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Success.OrderID == nil || *result.Success.OrderID != 55 {
		t.Fatalf("order id = %v, want 55", result.Success.OrderID)
	}
	if result.Success.SessionID == nil || *result.Success.SessionID != 9 {
		t.Fatalf("session id = %v, want 9", result.Success.SessionID)
	}
	if result.Success.PaymentMethod != "ONLINE" {
		t.Fatalf("payment method = %q, want ONLINE", result.Success.PaymentMethod)
	}
	if gotBody.BusinessID != 1 || gotBody.TableNumber != "7" || len(gotBody.Items) != 1 {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestCreateOrder_SuccessWithMissingIdentifiers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	result := NewClient(server.URL).CreateOrder(context.Background(), CreateOrderRequest{BusinessID: 1})

	if result.Success == nil {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Success.OrderID != nil || result.Success.SessionID != nil {
		t.Fatal("expected nil identifiers when backend omits them")
	}
}

func TestCreateOrder_HTTPErrorIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"kitchen offline"}`))
	}))
	defer server.Close()

	result := NewClient(server.URL).CreateOrder(context.Background(), CreateOrderRequest{BusinessID: 1})

	if result.Rejected == nil {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if result.Rejected.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", result.Rejected.HTTPStatus)
	}
	if result.Rejected.BackendMessage != "kitchen offline" {
		t.Fatalf("message = %q", result.Rejected.BackendMessage)
	}
}

func TestCreateOrder_SuccessFalseOn200IsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"item unavailable"}`))
	}))
	defer server.Close()

	result := NewClient(server.URL).CreateOrder(context.Background(), CreateOrderRequest{BusinessID: 1})

	if result.Rejected == nil {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if result.Rejected.HTTPStatus != http.StatusOK {
		t.Fatalf("status = %d, want 200", result.Rejected.HTTPStatus)
	}
}

func TestCreateOrder_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	result := NewClient(server.URL).CreateOrder(context.Background(), CreateOrderRequest{BusinessID: 1})

	if result.NetworkFailure == nil {
		t.Fatalf("expected network failure, got %+v", result)
	}
	if result.NetworkFailure.Message == "" {
		t.Fatal("expected failure message")
	}
}

func TestCreateOrder_NonJSONBodyIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway error</html>`))
	}))
	defer server.Close()

	result := NewClient(server.URL).CreateOrder(context.Background(), CreateOrderRequest{BusinessID: 1})

	if result.Rejected == nil {
		t.Fatalf("expected rejection, got %+v", result)
	}
	if !strings.Contains(result.Rejected.BackendMessage, "gateway error") {
		t.Fatalf("message should carry body snippet, got %q", result.Rejected.BackendMessage)
	}
}

func TestMarkPaid_Success(t *testing.T) {
	var got MarkPaidRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/mark-paid" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	sid := int64(9)
	err := NewClient(server.URL).MarkPaid(context.Background(), MarkPaidRequest{
		BusinessID: 1,
		SessionID:  &sid,
		Total:      "216.00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SessionID == nil || *got.SessionID != 9 {
		t.Fatalf("session id on wire = %v, want 9", got.SessionID)
	}
}

func TestMarkPaid_OrderNotFoundCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"errorCode":"ORDER_NOT_FOUND"}`))
	}))
	defer server.Close()

	err := NewClient(server.URL).MarkPaid(context.Background(), MarkPaidRequest{BusinessID: 1})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestMarkPaid_GenericFailureIsNotOrderNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"success":false,"message":"upstream down"}`))
	}))
	defer server.Close()

	err := NewClient(server.URL).MarkPaid(context.Background(), MarkPaidRequest{BusinessID: 1})
	if err == nil || errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected generic error, got %v", err)
	}
}

func TestFetchMenu_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"items":[]}`))
	}))
	defer server.Close()

	doc, err := NewClient(server.URL).FetchMenu(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc) != `{"items":[]}` {
		t.Fatalf("unexpected doc: %s", doc)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestFetchMenu_GivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).FetchMenu(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != menuFetchAttempts {
		t.Fatalf("attempts = %d, want %d", attempts, menuFetchAttempts)
	}
}

func TestListOrders_BuildsQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"orders":[]}`))
	}))
	defer server.Close()

	sid := int64(9)
	_, err := NewClient(server.URL).ListOrders(context.Background(), 4, &sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "businessId=4&sessionId=9" {
		t.Fatalf("query = %q", gotQuery)
	}
}
