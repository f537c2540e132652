package domain

import "time"

// Status of a payment order. Pending is the only non-terminal state; the
// four terminal states are mutually exclusive and absorbing: once one is
// recorded for a transaction, no further transition applies.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusRefunded  Status = "refunded"
)

// Terminal reports whether no further automated transition may occur.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusCancelled, StatusExpired, StatusRefunded:
		return true
	}
	return false
}

// NormalizeGatewayStatus maps a raw gateway status string to the canonical
// Status. The gateway reports approval under several names. Unrecognized
// values return (StatusPending, false) so callers can keep polling while
// flagging the unknown value instead of silently coercing it.
func NormalizeGatewayStatus(raw string) (Status, bool) {
	switch raw {
	case "approved", "paid", "approved_payment":
		return StatusApproved, true
	case "cancelled":
		return StatusCancelled, true
	case "expired":
		return StatusExpired, true
	case "refunded":
		return StatusRefunded, true
	case "pending":
		return StatusPending, true
	}
	return StatusPending, false
}

// Order is a payment record tied 1:1 to an external gateway transaction.
type Order struct {
	ID            int64     `json:"id,omitempty"`
	TransactionID string    `json:"transactionId"`
	Tracking      string    `json:"tracking"`
	Amount        int64     `json:"amount"` // minor currency units (cents)
	PaymentMethod string    `json:"paymentMethod"`
	Status        Status    `json:"status"`
	CustomerName  string    `json:"customerName,omitempty"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
	SecureID      string    `json:"secureId,omitempty"`
	SecureURL     string    `json:"secureUrl,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`
}
