// Package httpapi is the backend REST surface consumed by the admin
// panel and by the gateway client. It serves the lead/order CRUD
// contract over a domain.Store plus a stub pix charge endpoint, which
// also makes it the drop-in remote for repository tests.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/example/leadsync/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// DefaultBulkLimit is the request body size above which the bulk
// endpoint answers 413.
const DefaultBulkLimit = 1 << 20

// Server routes the API over a persistent store.
type Server struct {
	Router    *mux.Router
	store     domain.Store
	log       zerolog.Logger
	bulkLimit int64
	chargeTTL time.Duration

	mu      sync.Mutex
	charges map[string]string // transaction id -> raw gateway status
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithBulkLimit overrides the 413 threshold in bytes.
func WithBulkLimit(n int64) ServerOption {
	return func(s *Server) { s.bulkLimit = n }
}

// WithChargeTTL overrides the charge expiration window.
func WithChargeTTL(d time.Duration) ServerOption {
	return func(s *Server) { s.chargeTTL = d }
}

func NewServer(store domain.Store, logger zerolog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		Router:    mux.NewRouter(),
		store:     store,
		log:       logger.With().Str("component", "httpapi").Logger(),
		bulkLimit: DefaultBulkLimit,
		chargeTTL: 30 * time.Minute,
		charges:   make(map[string]string),
	}
	r := s.Router
	r.HandleFunc("/api/leads", s.handleListLeads).Methods(http.MethodGet)
	r.HandleFunc("/api/leads", s.handleCreateLead).Methods(http.MethodPost)
	r.HandleFunc("/api/leads", s.handleClearLeads).Methods(http.MethodDelete)
	r.HandleFunc("/api/leads/bulk", s.handleBulkLeads).Methods(http.MethodPost)
	r.HandleFunc("/api/leads/by-tracking/{tracking}", s.handleLeadByTracking).Methods(http.MethodGet)
	r.HandleFunc("/api/leads/{id:[0-9]+}", s.handleUpdateLead).Methods(http.MethodPut)
	r.HandleFunc("/api/leads/{id:[0-9]+}", s.handleDeleteLead).Methods(http.MethodDelete)

	r.HandleFunc("/api/orders", s.handleListOrders).Methods(http.MethodGet)
	r.HandleFunc("/api/orders", s.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/orders", s.handleClearOrders).Methods(http.MethodDelete)
	r.HandleFunc("/api/orders/by-transaction/{transactionId}", s.handleOrderByTransaction).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/by-transaction/{transactionId}", s.handleUpdateOrder).Methods(http.MethodPut)

	r.HandleFunc("/api/payments/charge", s.handleCreateCharge).Methods(http.MethodPost)
	r.HandleFunc("/api/payments/{transactionId}/status", s.handleChargeStatus).Methods(http.MethodGet)
	return s
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, domain.ErrValidation) {
		http.Error(w, "invalid data", http.StatusBadRequest)
		return
	}
	s.log.Error().Err(err).Msg("store operation failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// Lead handlers

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.store.ListLeads(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	s.writeJSON(w, http.StatusOK, leads)
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var lead domain.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	created, err := s.store.CreateLead(r.Context(), &lead)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleBulkLeads(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.bulkLimit {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}
	var leads []domain.Lead
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.bulkLimit)).Decode(&leads); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	created, err := s.store.CreateLeads(r.Context(), leads)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if created == nil {
		created = []domain.Lead{}
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"items": created})
}

func (s *Server) handleLeadByTracking(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.FindLeadByTracking(r.Context(), mux.Vars(r)["tracking"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var lead domain.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	lead.ID = id
	if err := s.store.UpdateLead(r.Context(), lead); err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := s.store.DeleteLead(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearLeads(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAllLeads(r.Context()); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Order handlers

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.ListOrders(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	s.writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var order domain.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if order.Status == "" {
		order.Status = domain.StatusPending
	}
	created, err := s.store.CreateOrder(r.Context(), &order)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleOrderByTransaction(w http.ResponseWriter, r *http.Request) {
	order, err := s.store.FindOrderByTransaction(r.Context(), mux.Vars(r)["transactionId"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		Status    domain.Status `json:"status"`
		UpdatedAt time.Time     `json:"updated_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	at := patch.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	order, err := s.store.UpdateOrderStatus(r.Context(), mux.Vars(r)["transactionId"], patch.Status, at)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleClearOrders(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAllOrders(r.Context()); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Payment stub handlers. Charges are held in memory with a raw gateway
// status that SetChargeStatus can flip; the admin panel's polling loop
// then observes the transition exactly as it would against the real
// gateway.

type chargeRequest struct {
	Amount        int64  `json:"amount"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CPF           string `json:"cpf"`
	Tracking      string `json:"tracking"`
}

func (s *Server) handleCreateCharge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "amount must be positive",
		})
		return
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.charges[id] = string(domain.StatusPending)
	s.mu.Unlock()
	expires := time.Now().Add(s.chargeTTL).UTC().Format(time.RFC3339)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "charge created",
		"status":  string(domain.StatusPending),
		"data": map[string]any{
			"id":     id,
			"status": string(domain.StatusPending),
			"amount": req.Amount,
			"pix": map[string]any{
				"qrcode":         "data:image/png;base64,",
				"qrcodeText":     "pix-copy-paste-" + id,
				"expirationDate": expires,
			},
		},
	})
}

func (s *Server) handleChargeStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["transactionId"]
	// The in-memory charge state is the gateway's view; a persisted
	// order only answers for transactions the stub never issued.
	s.mu.Lock()
	status := s.charges[id]
	s.mu.Unlock()
	if status == "" {
		if order, err := s.store.FindOrderByTransaction(r.Context(), id); err == nil {
			status = string(order.Status)
		}
	}
	if status == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  status,
		"data": map[string]any{
			"id":     id,
			"status": status,
		},
	})
}

// SetChargeStatus flips the raw status the stub reports for a
// transaction. Used by development tooling and tests.
func (s *Server) SetChargeStatus(transactionID, raw string) {
	s.mu.Lock()
	s.charges[transactionID] = raw
	s.mu.Unlock()
}
