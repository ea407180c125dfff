package backend

// Success is the accepted-order variant of a SubmissionResult. OrderID and
// SessionID are nil when the backend omitted them; that is not an error.
type Success struct {
	OrderID       *int64
	SessionID     *int64
	PaymentMethod string
}

// Rejection is the backend-said-no variant: a response arrived but the HTTP
// status or the application-level success flag indicated failure.
type Rejection struct {
	HTTPStatus     int
	BackendMessage string
}

// NetworkFailure is the no-response variant.
type NetworkFailure struct {
	Message string
}

// SubmissionResult is the normalized outcome of one order-creation call.
// Exactly one variant is populated.
type SubmissionResult struct {
	Success        *Success
	Rejected       *Rejection
	NetworkFailure *NetworkFailure
}

func succeeded(s Success) SubmissionResult {
	return SubmissionResult{Success: &s}
}

func rejected(status int, message string) SubmissionResult {
	return SubmissionResult{Rejected: &Rejection{HTTPStatus: status, BackendMessage: message}}
}

func failed(message string) SubmissionResult {
	return SubmissionResult{NetworkFailure: &NetworkFailure{Message: message}}
}
