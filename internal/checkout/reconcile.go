package checkout

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/qr-billing/api/internal/backend"
	"github.com/qr-billing/api/internal/enum"
	"github.com/qr-billing/api/internal/identity"
)

// reconcile verifies payment for an accepted order and returns the final
// payment status. Status only ever moves upward: once PAID is reached no
// later step can pull it back. Failures to verify settle as UNKNOWN with a
// human-readable warning; they never fail the flow.
//
// When the backend reports no matching order, reconcile runs the fallback
// exactly once: re-submit the identical order, then retry mark-paid with
// the fresh identifiers. The returned *backend.Success is non-nil only when
// the fallback re-submission produced fresher identifiers.
func (c *Controller) reconcile(
	ctx context.Context,
	createReq backend.CreateOrderRequest,
	accepted backend.Success,
	octx identity.OrderContext,
	total decimal.Decimal,
) (status, warning string, fresh *backend.Success) {
	// Orders placed with an online method are settled by the payment
	// provider before the backend accepts them. The method string doubles
	// as the paid indicator; there is no separate flag on the wire.
	if isOnlineMethod(effectiveMethod(accepted.PaymentMethod, createReq.PaymentMethod)) {
		return enum.PaymentStatusPaid, "", nil
	}

	markReq, ok := buildMarkPaidRequest(accepted, octx, total)
	if !ok {
		return enum.PaymentStatusUnknown,
			"payment could not be verified: the order carries no usable identifiers", nil
	}

	err := c.backend.MarkPaid(ctx, markReq)
	if err == nil {
		return enum.PaymentStatusPaid, "", nil
	}
	if !errors.Is(err, backend.ErrOrderNotFound) {
		log.Printf("ERROR: mark paid: %v", err)
		return enum.PaymentStatusUnknown,
			"payment could not be verified; staff can confirm it at the counter", nil
	}

	// Fallback, one cycle only: the backend lost or expired the order
	// between creation and reconciliation. Re-create it and retry.
	log.Printf("reconcile: order not found on backend, re-submitting once")
	result := c.backend.CreateOrder(ctx, createReq)
	if result.Success == nil {
		return enum.PaymentStatusUnknown,
			"payment could not be verified; staff can confirm it at the counter", nil
	}
	fresh = result.Success

	retryReq, ok := buildMarkPaidRequest(*fresh, octx, total)
	if !ok {
		return enum.PaymentStatusUnknown,
			"payment could not be verified: the order carries no usable identifiers", fresh
	}
	if err := c.backend.MarkPaid(ctx, retryReq); err != nil {
		log.Printf("ERROR: mark paid after re-submission: %v", err)
		return enum.PaymentStatusUnknown,
			"payment could not be verified; staff can confirm it at the counter", fresh
	}
	return enum.PaymentStatusPaid, "", fresh
}

// buildMarkPaidRequest keys the call by the strongest identifier available:
// session id, then QR id, then table number. It reports !ok when none of
// the three exists.
func buildMarkPaidRequest(accepted backend.Success, octx identity.OrderContext, total decimal.Decimal) (backend.MarkPaidRequest, bool) {
	req := backend.MarkPaidRequest{
		BusinessID: octx.BusinessID,
		Total:      total.StringFixed(2),
	}
	switch {
	case accepted.SessionID != nil:
		req.SessionID = accepted.SessionID
	case octx.QRID != "":
		req.QRID = octx.QRID
	case octx.TableNumber != "":
		req.TableNumber = octx.TableNumber
	default:
		return backend.MarkPaidRequest{}, false
	}
	return req, true
}

func isOnlineMethod(method string) bool {
	return strings.EqualFold(method, enum.PaymentMethodOnline)
}
