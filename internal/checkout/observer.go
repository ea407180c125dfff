package checkout

import "log"

// Event describes one flow state transition. The controller notifies every
// observer at each transition; observers must not block.
type Event struct {
	State         string `json:"state"`
	BusinessID    int64  `json:"business_id"`
	OrderID       *int64 `json:"order_id,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Observer receives flow state transitions. Implementations: the flow log
// and the WebSocket hub bridge.
type Observer interface {
	FlowEvent(ev Event)
}

// LogObserver writes transitions to the process log when enabled. It
// replaces the scattered debug toggles of the original client with one
// injectable instrumentation point.
type LogObserver struct {
	Enabled bool
}

func (o LogObserver) FlowEvent(ev Event) {
	if !o.Enabled {
		return
	}
	if ev.Error != "" {
		log.Printf("[FLOW] %s business=%d error=%q", ev.State, ev.BusinessID, ev.Error)
		return
	}
	log.Printf("[FLOW] %s business=%d order=%v payment=%s", ev.State, ev.BusinessID, ev.OrderID, ev.PaymentStatus)
}
