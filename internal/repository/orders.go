package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/leadsync/internal/adapter/gateway"
	"github.com/example/leadsync/internal/domain"
	"github.com/rs/zerolog"
)

// Orders is the dual-write repository for payment orders. Status
// transitions are monotonic toward a terminal state: once a terminal
// status is recorded for a transaction, later updates are no-ops.
type Orders struct {
	remote *gateway.Client
	local  domain.OrderStore
	log    zerolog.Logger
}

func NewOrders(remote *gateway.Client, local domain.OrderStore, logger zerolog.Logger) *Orders {
	return &Orders{
		remote: remote,
		local:  local,
		log:    logger.With().Str("component", "orders-repo").Logger(),
	}
}

func (r *Orders) ListAll(ctx context.Context) ([]domain.Order, error) {
	orders, err := r.remote.ListOrders(ctx)
	if err == nil {
		return orders, nil
	}
	r.log.Debug().Err(err).Msg("remote list failed, serving local store")
	return r.local.ListOrders(ctx)
}

// FindByTransaction resolves an order by transaction id. A 404 from a
// reachable remote is final and does not consult the local store.
func (r *Orders) FindByTransaction(ctx context.Context, transactionID string) (*domain.Order, error) {
	order, err := r.remote.GetOrderByTransaction(ctx, transactionID)
	if err == nil {
		return order, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	r.log.Debug().Err(err).Str("transaction_id", transactionID).Msg("remote lookup failed, trying local store")
	return r.local.FindOrderByTransaction(ctx, transactionID)
}

func (r *Orders) AddOne(ctx context.Context, order domain.Order) (*domain.Order, error) {
	if order.Status == "" {
		order.Status = domain.StatusPending
	}
	created, err := r.remote.CreateOrder(ctx, order)
	if err == nil {
		return created, nil
	}
	r.log.Debug().Err(err).Str("transaction_id", order.TransactionID).Msg("remote create failed, persisting locally")
	return r.local.CreateOrder(ctx, &order)
}

// UpdateStatusByTransaction records a server-confirmed status. Both
// stores enforce terminal absorption; the local path additionally
// refuses to overwrite an already-terminal record.
func (r *Orders) UpdateStatusByTransaction(ctx context.Context, transactionID string, status domain.Status, at time.Time) error {
	patch := gateway.OrderPatch{Status: status, UpdatedAt: at}
	err := r.remote.UpdateOrderByTransaction(ctx, transactionID, patch)
	if err == nil {
		return nil
	}
	// Orders created during an outage exist only locally; a remote 404
	// falls through so their status can still advance.
	r.log.Debug().Err(err).Str("transaction_id", transactionID).Msg("remote status update failed, updating local store")
	_, lerr := r.local.UpdateOrderStatus(ctx, transactionID, status, at)
	return lerr
}

func (r *Orders) ClearAll(ctx context.Context) error {
	err := r.remote.DeleteAllOrders(ctx)
	if err == nil {
		if lerr := r.local.DeleteAllOrders(ctx); lerr != nil {
			r.log.Warn().Err(lerr).Msg("local clear after remote clear failed")
		}
		return nil
	}
	r.log.Debug().Err(err).Msg("remote clear failed, clearing locally")
	return r.local.DeleteAllOrders(ctx)
}
