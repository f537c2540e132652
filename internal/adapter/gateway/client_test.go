package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/leadsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/leads/by-tracking/missing":
			http.Error(w, "not found", http.StatusNotFound)
		case "/api/leads/bulk":
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
		case "/api/leads":
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.GetLeadByTracking(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.CreateLeadsBulk(ctx, []domain.Lead{{Tracking: "A"}})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	_, err = c.ListLeads(ctx)
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, http.StatusInternalServerError, unreachable.Status)
}

func TestNetworkErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL)
	_, err := c.ListLeads(context.Background())
	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Error(t, unreachable.Err)

	// The not-found signal never hides behind a network failure.
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateLeadDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/leads", r.URL.Path)
		var lead domain.Lead
		require.NoError(t, json.NewDecoder(r.Body).Decode(&lead))
		lead.ID = 7
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(lead)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	created, err := c.CreateLead(context.Background(), domain.Lead{Name: "Maria", Tracking: "ABC123"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, "ABC123", created.Tracking)
}

func TestCreateLeadsBulkChecksItemCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": []domain.Lead{{ID: 1}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateLeadsBulk(context.Background(), []domain.Lead{{Tracking: "A"}, {Tracking: "B"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 items for 2 leads")
}

func TestCreateCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/payments/charge", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"status":  "pending",
			"data": map[string]any{
				"id":     "tx-42",
				"status": "pending",
				"amount": 5000,
				"pix": map[string]any{
					"qrcodeText":     "pix-code",
					"expirationDate": "2026-01-02T15:04:05Z",
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	charge, err := c.CreateCharge(context.Background(), ChargeRequest{Amount: 5000})
	require.NoError(t, err)
	assert.Equal(t, "tx-42", charge.TransactionID)
	assert.Equal(t, int64(5000), charge.Amount)
	assert.Equal(t, "pix-code", charge.QRCodeText)
	assert.Equal(t, 2026, charge.ExpiresAt.Year())
}

func TestCreateChargeRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "card declined"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateCharge(context.Background(), ChargeRequest{Amount: 100})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}

func TestChargeStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/payments/tx-42/status", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "tx-42", "status": "approved_payment"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	status, err := c.ChargeStatus(context.Background(), "tx-42")
	require.NoError(t, err)
	assert.Equal(t, "approved_payment", status)
}
