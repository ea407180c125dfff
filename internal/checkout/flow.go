package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/qr-billing/api/internal/backend"
	"github.com/qr-billing/api/internal/cart"
	"github.com/qr-billing/api/internal/enum"
	"github.com/qr-billing/api/internal/identity"
	"github.com/qr-billing/api/internal/session"
)

// Errors returned by Confirm before any network call is made.
var (
	ErrEmptyCart        = errors.New("cart is empty, nothing to submit")
	ErrCheckoutInFlight = errors.New("checkout already in progress")
)

// RejectedError reports a backend refusal: a response arrived, the backend
// said no. Status is the HTTP status of the refusal.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order rejected: status %d: %s", e.Status, e.Message)
}

// UnreachableError reports that no response arrived at all.
type UnreachableError struct {
	Message string
}

func (e *UnreachableError) Error() string {
	return "backend unreachable: " + e.Message
}

// Submitter is the slice of the backend client the controller needs.
type Submitter interface {
	CreateOrder(ctx context.Context, req backend.CreateOrderRequest) backend.SubmissionResult
	MarkPaid(ctx context.Context, req backend.MarkPaidRequest) error
}

// SessionStore persists the identifier pair across submissions.
type SessionStore interface {
	Save(ctx context.Context, rec session.PersistedSession) error
	Load(ctx context.Context) (session.PersistedSession, error)
}

// Request is one checkout attempt as received from the ordering UI.
type Request struct {
	Cart          []cart.LineItem
	Query         url.Values
	CustomerName  string
	PaymentMethod string
}

// OrderRecord is the settled outcome of a successful submission. It is
// composed from the snapshot plus the backend identifiers, never from the
// live cart.
type OrderRecord struct {
	Items          []cart.LineItem
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	OrderID        *int64
	SessionID      *int64
	BusinessID     int64
	TableNumber    string
	QRID           string
	PaymentMethod  string
	PaymentStatus  string
	PaymentWarning string
}

// Controller drives one checkout at a time through the submission flow:
// IDLE -> SUBMITTING -> RECONCILING -> SETTLED, then back to IDLE. A second
// Confirm while a flow is in flight is refused locally without touching the
// network.
type Controller struct {
	backend           Submitter
	store             SessionStore
	defaultBusinessID int64
	observers         []Observer

	mu    sync.Mutex
	state string
}

func NewController(b Submitter, store SessionStore, defaultBusinessID int64, observers ...Observer) *Controller {
	return &Controller{
		backend:           b,
		store:             store,
		defaultBusinessID: defaultBusinessID,
		observers:         observers,
		state:             enum.FlowStateIdle,
	}
}

// Confirm runs one full checkout attempt. On acceptance it returns the
// settled record; a reconciliation that could not verify payment still
// settles successfully, with PaymentStatus UNKNOWN and a warning on the
// record. Refusals come back as *RejectedError or *UnreachableError.
func (c *Controller) Confirm(ctx context.Context, req Request) (*OrderRecord, error) {
	snap := cart.BuildSnapshot(req.Cart)
	if snap.Empty() {
		return nil, ErrEmptyCart
	}

	octx := identity.Resolve(req.Query, c.fallbackBusinessID(ctx))

	if !c.begin(octx.BusinessID) {
		return nil, ErrCheckoutInFlight
	}
	defer c.finish()

	createReq := buildCreateRequest(snap, octx, req)

	result := c.backend.CreateOrder(ctx, createReq)
	switch {
	case result.NetworkFailure != nil:
		err := &UnreachableError{Message: result.NetworkFailure.Message}
		c.settleFailure(octx.BusinessID, err)
		return nil, err
	case result.Rejected != nil:
		err := &RejectedError{Status: result.Rejected.HTTPStatus, Message: result.Rejected.BackendMessage}
		c.settleFailure(octx.BusinessID, err)
		return nil, err
	}

	accepted := *result.Success
	c.transition(enum.FlowStateReconciling, Event{
		State:      enum.FlowStateReconciling,
		BusinessID: octx.BusinessID,
		OrderID:    accepted.OrderID,
	})

	status, warning, fresh := c.reconcile(ctx, createReq, accepted, octx, snap.Total())
	if fresh != nil {
		accepted = *fresh
	}

	c.persistSession(ctx, accepted.SessionID, octx.BusinessID)

	record := &OrderRecord{
		Items:          snap.Items(),
		Subtotal:       snap.Subtotal(),
		Tax:            snap.Tax(),
		Total:          snap.Total(),
		OrderID:        accepted.OrderID,
		SessionID:      accepted.SessionID,
		BusinessID:     octx.BusinessID,
		TableNumber:    octx.TableNumber,
		QRID:           octx.QRID,
		PaymentMethod:  effectiveMethod(accepted.PaymentMethod, createReq.PaymentMethod),
		PaymentStatus:  status,
		PaymentWarning: warning,
	}

	c.transition(enum.FlowStateSettled, Event{
		State:         enum.FlowStateSettled,
		BusinessID:    octx.BusinessID,
		OrderID:       accepted.OrderID,
		PaymentStatus: status,
	})

	return record, nil
}

// begin moves IDLE -> SUBMITTING, refusing when a flow is already running.
func (c *Controller) begin(businessID int64) bool {
	c.mu.Lock()
	if c.state != enum.FlowStateIdle {
		c.mu.Unlock()
		return false
	}
	c.state = enum.FlowStateSubmitting
	c.mu.Unlock()
	c.notify(Event{State: enum.FlowStateSubmitting, BusinessID: businessID})
	return true
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.state = enum.FlowStateIdle
	c.mu.Unlock()
}

func (c *Controller) transition(state string, ev Event) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.notify(ev)
}

func (c *Controller) settleFailure(businessID int64, err error) {
	c.transition(enum.FlowStateSettled, Event{
		State:      enum.FlowStateSettled,
		BusinessID: businessID,
		Error:      err.Error(),
	})
}

func (c *Controller) notify(ev Event) {
	for _, o := range c.observers {
		o.FlowEvent(ev)
	}
}

// fallbackBusinessID prefers the persisted business over the configured
// default. Explicit query parameters override both inside Resolve.
func (c *Controller) fallbackBusinessID(ctx context.Context) int64 {
	rec, err := c.store.Load(ctx)
	if err != nil {
		log.Printf("ERROR: load persisted session: %v", err)
		return c.defaultBusinessID
	}
	if rec.BusinessID != nil && *rec.BusinessID > 0 {
		return *rec.BusinessID
	}
	return c.defaultBusinessID
}

// persistSession overwrites the stored identifier pair after settlement.
// The order already exists on the backend, so a storage failure is logged
// and does not fail the flow.
func (c *Controller) persistSession(ctx context.Context, sessionID *int64, businessID int64) {
	rec := session.PersistedSession{SessionID: sessionID, BusinessID: &businessID}
	if err := c.store.Save(ctx, rec); err != nil {
		log.Printf("ERROR: persist session: %v", err)
	}
}

func buildCreateRequest(snap cart.Snapshot, octx identity.OrderContext, req Request) backend.CreateOrderRequest {
	method := req.PaymentMethod
	if method == "" {
		method = enum.PaymentMethodCounter
	}
	name := req.CustomerName
	if name == "" {
		name = "Guest"
	}

	items := snap.Items()
	wire := make([]backend.OrderItemRequest, 0, len(items))
	for _, it := range items {
		wire = append(wire, backend.OrderItemRequest{
			ID:       it.ItemID,
			Name:     it.Name,
			Price:    it.UnitPrice.StringFixed(2),
			Quantity: it.Quantity,
		})
	}

	return backend.CreateOrderRequest{
		BusinessID:    octx.BusinessID,
		TableNumber:   octx.TableNumber,
		QRID:          octx.QRID,
		CustomerName:  name,
		PaymentMethod: method,
		Items:         wire,
	}
}

func effectiveMethod(echoed, requested string) string {
	if echoed != "" {
		return echoed
	}
	return requested
}
