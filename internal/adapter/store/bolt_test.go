package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/leadsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBolt(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestBoltLeadRoundTrip(t *testing.T) {
	s, _ := newBolt(t)
	ctx := context.Background()

	created, err := s.CreateLead(ctx, &domain.Lead{Name: "Maria", Tracking: "ABC123", Email: "maria@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := s.FindLeadByTracking(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Maria", found.Name)

	_, err = s.FindLeadByTracking(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBoltLeadIDsSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	first, err := s.CreateLead(ctx, &domain.Lead{Name: "one", Tracking: "T1"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	// Sequence keeps counting after reopen, ids are never reassigned.
	second, err := s.CreateLead(ctx, &domain.Lead{Name: "two", Tracking: "T2"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 2)
}

func TestBoltCreateLeadsBulk(t *testing.T) {
	s, _ := newBolt(t)
	ctx := context.Background()

	batch := make([]domain.Lead, 50)
	for i := range batch {
		batch[i] = domain.Lead{Name: "lead", Tracking: trackingFor(i)}
	}
	created, err := s.CreateLeads(ctx, batch)
	require.NoError(t, err)
	require.Len(t, created, 50)

	seen := map[int64]bool{}
	for i, l := range created {
		assert.Equal(t, trackingFor(i), l.Tracking, "input order preserved")
		assert.False(t, seen[l.ID], "duplicate id %d", l.ID)
		seen[l.ID] = true
	}
}

func trackingFor(i int) string {
	return "TRK" + string(rune('A'+i%26)) + string(rune('A'+i/26))
}

func TestBoltUpdateAndDeleteLead(t *testing.T) {
	s, _ := newBolt(t)
	ctx := context.Background()

	created, err := s.CreateLead(ctx, &domain.Lead{Name: "old", Tracking: "UPD1"})
	require.NoError(t, err)

	updated := *created
	updated.Name = "new"
	require.NoError(t, s.UpdateLead(ctx, updated))

	found, err := s.FindLeadByTracking(ctx, "UPD1")
	require.NoError(t, err)
	assert.Equal(t, "new", found.Name)

	assert.ErrorIs(t, s.UpdateLead(ctx, domain.Lead{ID: 9999}), domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateLead(ctx, domain.Lead{}), domain.ErrValidation)

	require.NoError(t, s.DeleteLead(ctx, created.ID))
	_, err = s.FindLeadByTracking(ctx, "UPD1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBoltOrderStatusAbsorption(t *testing.T) {
	s, _ := newBolt(t)
	ctx := context.Background()

	_, err := s.CreateOrder(ctx, &domain.Order{TransactionID: "tx-1", Amount: 5000, Status: domain.StatusPending})
	require.NoError(t, err)

	now := time.Now()
	order, err := s.UpdateOrderStatus(ctx, "tx-1", domain.StatusApproved, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, order.Status)

	// A terminal status is absorbing: later transitions are no-ops.
	order, err = s.UpdateOrderStatus(ctx, "tx-1", domain.StatusCancelled, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, order.Status)
	assert.Equal(t, now.Unix(), order.UpdatedAt.Unix())

	_, err = s.UpdateOrderStatus(ctx, "tx-missing", domain.StatusApproved, now)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBoltClearAll(t *testing.T) {
	s, _ := newBolt(t)
	ctx := context.Background()

	_, err := s.CreateLead(ctx, &domain.Lead{Tracking: "A"})
	require.NoError(t, err)
	_, err = s.CreateOrder(ctx, &domain.Order{TransactionID: "tx"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAllLeads(ctx))
	require.NoError(t, s.DeleteAllOrders(ctx))

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	assert.Empty(t, leads)
	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestBoltEvents(t *testing.T) {
	s, _ := newBolt(t)
	ctx := context.Background()

	for _, sess := range []string{"s1", "s1", "s2"} {
		_, err := s.AppendEvent(ctx, &domain.Event{SessionID: sess, Type: "page_view", PagePath: "/"})
		require.NoError(t, err)
	}
	events, err := s.ListEventsBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
	for _, e := range events {
		assert.False(t, e.Timestamp.IsZero())
	}
	all, err := s.ListEventsBySession(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
