package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/example/leadsync/internal/adapter/store"
	"github.com/example/leadsync/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewServer(st, zerolog.Nop(), opts...), st
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestLeadCRUD(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/leads", domain.Lead{Name: "Maria", Tracking: "ABC123"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created domain.Lead
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.NotZero(t, created.ID)

	w = doJSON(t, s, http.MethodGet, "/api/leads/by-tracking/abc123", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/leads/by-tracking/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	created.Name = "Maria Silva"
	w = doJSON(t, s, http.MethodPut, "/api/leads/"+strconv.FormatInt(created.ID, 10), created)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/leads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var leads []domain.Lead
	require.NoError(t, json.NewDecoder(w.Body).Decode(&leads))
	require.Len(t, leads, 1)
	assert.Equal(t, "Maria Silva", leads[0].Name)

	w = doJSON(t, s, http.MethodDelete, "/api/leads/"+strconv.FormatInt(created.ID, 10), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/api/leads", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestBulkEndpointRejectsOversizedPayload(t *testing.T) {
	s, _ := newTestServer(t, WithBulkLimit(512))

	small := []domain.Lead{{Name: "a", Tracking: "T1"}}
	w := doJSON(t, s, http.MethodPost, "/api/leads/bulk", small)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Items []domain.Lead `json:"items"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.NotZero(t, resp.Items[0].ID)

	big := make([]domain.Lead, 50)
	for i := range big {
		big[i] = domain.Lead{Name: strings.Repeat("x", 40), Tracking: "BIG"}
	}
	w = doJSON(t, s, http.MethodPost, "/api/leads/bulk", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestOrderByTransactionRoutes(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	w := doJSON(t, s, http.MethodPost, "/api/orders", domain.Order{TransactionID: "tx-1", Amount: 5000})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/orders/by-transaction/tx-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var order domain.Order
	require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
	assert.Equal(t, domain.StatusPending, order.Status)

	w = doJSON(t, s, http.MethodPut, "/api/orders/by-transaction/tx-1",
		map[string]any{"status": "approved", "updated_at": time.Now().UTC()})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := st.FindOrderByTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)

	w = doJSON(t, s, http.MethodGet, "/api/orders/by-transaction/tx-missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChargeStubLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/api/payments/charge",
		map[string]any{"amount": 5000, "customerName": "Maria"})
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Amount int64  `json:"amount"`
			Pix    struct {
				QRCodeText     string `json:"qrcodeText"`
				ExpirationDate string `json:"expirationDate"`
			} `json:"pix"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	require.True(t, env.Success)
	require.NotEmpty(t, env.Data.ID)
	assert.Equal(t, int64(5000), env.Data.Amount)
	assert.NotEmpty(t, env.Data.Pix.QRCodeText)
	_, err := time.Parse(time.RFC3339, env.Data.Pix.ExpirationDate)
	assert.NoError(t, err)

	w = doJSON(t, s, http.MethodGet, "/api/payments/"+env.Data.ID+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var statusEnv struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&statusEnv))
	assert.Equal(t, "pending", statusEnv.Data.Status)

	s.SetChargeStatus(env.Data.ID, "paid")
	w = doJSON(t, s, http.MethodGet, "/api/payments/"+env.Data.ID+"/status", nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&statusEnv))
	assert.Equal(t, "paid", statusEnv.Data.Status)

	w = doJSON(t, s, http.MethodGet, "/api/payments/unknown-tx/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChargeRejectsNonPositiveAmount(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/payments/charge", map[string]any{"amount": 0})
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}
