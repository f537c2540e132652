package domain

import (
	"context"
	"time"
)

// LeadStore is the persistence port for leads. Implementations assign
// the numeric ID and stamp CreatedAt when missing.
type LeadStore interface {
	CreateLead(ctx context.Context, lead *Lead) (*Lead, error)
	// CreateLeads inserts the whole batch in a single transaction,
	// preserving input order in the returned slice.
	CreateLeads(ctx context.Context, leads []Lead) ([]Lead, error)
	ListLeads(ctx context.Context) ([]Lead, error)
	// FindLeadByTracking matches case-insensitively; ErrNotFound when absent.
	FindLeadByTracking(ctx context.Context, tracking string) (*Lead, error)
	UpdateLead(ctx context.Context, lead Lead) error
	DeleteLead(ctx context.Context, id int64) error
	DeleteAllLeads(ctx context.Context) error
}

// OrderStore is the persistence port for payment orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	FindOrderByTransaction(ctx context.Context, transactionID string) (*Order, error)
	// UpdateOrderStatus applies a status transition. A recorded terminal
	// status is absorbing: the update is a no-op and the stored order is
	// returned unchanged.
	UpdateOrderStatus(ctx context.Context, transactionID string, status Status, at time.Time) (*Order, error)
	DeleteAllOrders(ctx context.Context) error
}

// EventStore is the append-only persistence port for analytics events.
type EventStore interface {
	AppendEvent(ctx context.Context, event *Event) (*Event, error)
	ListEventsBySession(ctx context.Context, sessionID string) ([]Event, error)
}

// Store is the full persistent store: a local, durable, key-indexed
// store for the three record kinds, surviving process restarts.
type Store interface {
	LeadStore
	OrderStore
	EventStore
	Close() error
}

// Common domain errors.
var (
	ErrNotFound   = notFoundError("not found")
	ErrValidation = validationError("invalid data")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }
