package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ChargeRequest is the body for POST /api/payments/charge.
type ChargeRequest struct {
	Amount        int64  `json:"amount"` // minor currency units (cents)
	CustomerName  string `json:"customerName,omitempty"`
	CustomerEmail string `json:"customerEmail,omitempty"`
	CPF           string `json:"cpf,omitempty"`
	Tracking      string `json:"tracking,omitempty"`
}

// Charge is the successfully created pix charge.
type Charge struct {
	TransactionID string
	Status        string
	Amount        int64
	QRCode        string
	QRCodeText    string
	ExpiresAt     time.Time
	SecureID      string
	SecureURL     string
}

// chargeEnvelope is the gateway response shape for both payment
// endpoints.
type chargeEnvelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Status  string     `json:"status"`
	Data    chargeData `json:"data"`
}

type chargeData struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Amount    int64   `json:"amount"`
	SecureID  string  `json:"secureId"`
	SecureURL string  `json:"secureUrl"`
	Pix       pixData `json:"pix"`
}

type pixData struct {
	QRCode         string `json:"qrcode"`
	QRCodeText     string `json:"qrcodeText"`
	ExpirationDate string `json:"expirationDate"`
}

// CreateCharge issues a new pix charge. Unlike the lead/order calls, a
// failure here is surfaced to the caller: there is no local fallback for
// a charge that was never confirmed created.
func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	var env chargeEnvelope
	if err := c.do(ctx, "create charge", http.MethodPost, "/api/payments/charge", req, &env); err != nil {
		return nil, err
	}
	if !env.Success || env.Data.ID == "" {
		return nil, fmt.Errorf("create charge: gateway refused: %s", env.Message)
	}
	charge := &Charge{
		TransactionID: env.Data.ID,
		Status:        env.Data.Status,
		Amount:        env.Data.Amount,
		QRCode:        env.Data.Pix.QRCode,
		QRCodeText:    env.Data.Pix.QRCodeText,
		SecureID:      env.Data.SecureID,
		SecureURL:     env.Data.SecureURL,
	}
	if env.Data.Pix.ExpirationDate != "" {
		t, err := time.Parse(time.RFC3339, env.Data.Pix.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("create charge: bad expirationDate %q: %w", env.Data.Pix.ExpirationDate, err)
		}
		charge.ExpiresAt = t
	}
	return charge, nil
}

// ChargeStatus returns the raw gateway status string for a transaction.
// The poller owns normalization to the canonical status set.
func (c *Client) ChargeStatus(ctx context.Context, transactionID string) (string, error) {
	var env chargeEnvelope
	path := "/api/payments/" + url.PathEscape(transactionID) + "/status"
	if err := c.do(ctx, "charge status", http.MethodGet, path, nil, &env); err != nil {
		return "", err
	}
	if env.Data.Status == "" {
		return "", fmt.Errorf("charge status: empty status for transaction %s", transactionID)
	}
	return env.Data.Status, nil
}
