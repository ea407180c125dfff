package enum

// ── Group A: State machines ──

const (
	FlowStateIdle        = "IDLE"
	FlowStateSubmitting  = "SUBMITTING"
	FlowStateReconciling = "RECONCILING"
	FlowStateSettled     = "SETTLED"
)

const (
	PaymentStatusUnknown = "UNKNOWN"
	PaymentStatusUnpaid  = "UNPAID"
	PaymentStatusPaid    = "PAID"
)

// ── Group B: Wire labels (defined by the ordering backend) ──

const (
	PaymentMethodOnline  = "ONLINE"
	PaymentMethodCounter = "COUNTER"
)

const (
	BackendCodeOrderNotFound = "ORDER_NOT_FOUND"
)
