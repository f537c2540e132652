package store

import (
	"context"
	"sync"
	"time"

	"github.com/example/leadsync/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory domain.Store. It backs the
// reference API server in tests and development runs where durability
// does not matter. FailWith forces every operation to return an error,
// which tests use to simulate an unavailable local store.
type MemoryStore struct {
	mu       sync.RWMutex
	leads    []domain.Lead
	orders   []domain.Order
	events   []domain.Event
	leadSeq  int64
	orderSeq int64
	eventSeq int64
	err      error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// FailWith makes every subsequent operation fail with err; nil restores
// normal behavior.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *MemoryStore) Close() error { return nil }

// Lead operations

func (s *MemoryStore) CreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if lead.ID == 0 {
		s.leadSeq++
		lead.ID = s.leadSeq
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	s.leads = append(s.leads, *lead)
	return lead, nil
}

func (s *MemoryStore) CreateLeads(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	now := time.Now()
	for i := range leads {
		if leads[i].ID == 0 {
			s.leadSeq++
			leads[i].ID = s.leadSeq
		}
		if leads[i].CreatedAt.IsZero() {
			leads[i].CreatedAt = now
		}
		s.leads = append(s.leads, leads[i])
	}
	return leads, nil
}

func (s *MemoryStore) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Lead, len(s.leads))
	copy(out, s.leads)
	return out, nil
}

func (s *MemoryStore) FindLeadByTracking(ctx context.Context, tracking string) (*domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	key := domain.Lead{Tracking: tracking}.TrackingKey()
	for i := range s.leads {
		if s.leads[i].TrackingKey() == key {
			l := s.leads[i]
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) UpdateLead(ctx context.Context, lead domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for i := range s.leads {
		if s.leads[i].ID == lead.ID {
			s.leads[i] = lead
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *MemoryStore) DeleteLead(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for i := range s.leads {
		if s.leads[i].ID == id {
			s.leads = append(s.leads[:i], s.leads[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) DeleteAllLeads(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.leads = nil
	return nil
}

// Order operations

func (s *MemoryStore) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if order.ID == 0 {
		s.orderSeq++
		order.ID = s.orderSeq
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}
	s.orders = append(s.orders, *order)
	return order, nil
}

func (s *MemoryStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

func (s *MemoryStore) FindOrderByTransaction(ctx context.Context, transactionID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.orders {
		if s.orders[i].TransactionID == transactionID {
			o := s.orders[i]
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, transactionID string, status domain.Status, at time.Time) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.orders {
		if s.orders[i].TransactionID != transactionID {
			continue
		}
		// Terminal statuses absorb.
		if !s.orders[i].Status.Terminal() {
			s.orders[i].Status = status
			s.orders[i].UpdatedAt = at
		}
		o := s.orders[i]
		return &o, nil
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryStore) DeleteAllOrders(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.orders = nil
	return nil
}

// Event operations

func (s *MemoryStore) AppendEvent(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if event.ID == 0 {
		s.eventSeq++
		event.ID = s.eventSeq
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.events = append(s.events, *event)
	return event, nil
}

func (s *MemoryStore) ListEventsBySession(ctx context.Context, sessionID string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Event
	for _, e := range s.events {
		if sessionID == "" || e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

var _ domain.Store = (*MemoryStore)(nil)
