// Package payment drives a created pix charge to its terminal outcome.
// The controller polls the gateway on a fixed interval, tolerates
// transient failures indefinitely, and applies exactly one terminal
// transition per transaction.
package payment

import (
	"context"
	"sync"
	"time"

	"github.com/example/leadsync/internal/adapter/gateway"
	"github.com/example/leadsync/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultInterval is the status polling period.
const DefaultInterval = 4 * time.Second

// Gateway is the slice of the remote API the controller needs.
type Gateway interface {
	CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error)
	ChargeStatus(ctx context.Context, transactionID string) (string, error)
}

// OrderWriter persists order state; implemented by repository.Orders.
type OrderWriter interface {
	AddOne(ctx context.Context, order domain.Order) (*domain.Order, error)
	UpdateStatusByTransaction(ctx context.Context, transactionID string, status domain.Status, at time.Time) error
}

// Callbacks are the exactly-once terminal side effects: OnApproved is
// the success path (navigation), OnClosed carries the specific failure
// outcome for the user-visible message.
type Callbacks struct {
	OnApproved func()
	OnClosed   func(status domain.Status)
}

// Controller owns charge creation and status polling.
type Controller struct {
	gateway  Gateway
	orders   OrderWriter
	clock    Clock
	interval time.Duration
	log      zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock swaps the wall clock out, used by tests.
func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithInterval overrides the polling period.
func WithInterval(d time.Duration) Option {
	return func(ctl *Controller) { ctl.interval = d }
}

func NewController(gw Gateway, orders OrderWriter, logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		gateway:  gw,
		orders:   orders,
		clock:    RealClock(),
		interval: DefaultInterval,
		log:      logger.With().Str("component", "payment").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateCharge issues a charge and persists the pending order. If charge
// creation fails the error is returned as-is and no order record exists:
// there is no pending order for a charge that was never confirmed.
func (c *Controller) CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	charge, err := c.gateway.CreateCharge(ctx, req)
	if err != nil {
		return nil, err
	}
	now := c.clock.Now()
	order := domain.Order{
		TransactionID: charge.TransactionID,
		Tracking:      req.Tracking,
		Amount:        charge.Amount,
		PaymentMethod: "pix",
		Status:        domain.StatusPending,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		SecureID:      charge.SecureID,
		SecureURL:     charge.SecureURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := c.orders.AddOne(ctx, order); err != nil {
		return nil, err
	}
	c.log.Info().Str("transaction_id", charge.TransactionID).Int64("amount", charge.Amount).Msg("charge created")
	return charge, nil
}

// Watcher is a cancellable polling subscription. Stop is idempotent and
// releases the timer and goroutine, so repeated create/cancel cycles
// never accumulate orphaned timers.
type Watcher struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newWatcher() *Watcher {
	return &Watcher{stop: make(chan struct{}), done: make(chan struct{})}
}

// Stop cancels the subscription.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Done is closed once polling has ended, whether by terminal state,
// Stop, or context cancellation.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Watch polls the gateway for the transaction status until a terminal
// state, Stop, or ctx cancellation. Transient gateway failures never
// stop polling and never surface to the caller. Each terminal state is
// persisted and its callback fired exactly once.
func (c *Controller) Watch(ctx context.Context, transactionID string, cb Callbacks) *Watcher {
	w := newWatcher()
	go c.poll(ctx, transactionID, cb, w)
	return w
}

func (c *Controller) poll(ctx context.Context, transactionID string, cb Callbacks, w *Watcher) {
	defer close(w.done)
	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()
	log := c.log.With().Str("transaction_id", transactionID).Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C():
			raw, err := c.gateway.ChargeStatus(ctx, transactionID)
			if err != nil {
				// Transient failure: no state change, keep polling.
				log.Debug().Err(err).Msg("status query failed")
				continue
			}
			status, known := domain.NormalizeGatewayStatus(raw)
			if !known {
				log.Warn().Str("raw_status", raw).Msg("unknown gateway status, treating as pending")
				continue
			}
			if !status.Terminal() {
				continue
			}
			if err := c.orders.UpdateStatusByTransaction(ctx, transactionID, status, c.clock.Now()); err != nil {
				log.Error().Err(err).Str("status", string(status)).Msg("persisting terminal status failed")
			}
			log.Info().Str("status", string(status)).Msg("terminal status reached")
			if status == domain.StatusApproved {
				if cb.OnApproved != nil {
					cb.OnApproved()
				}
			} else if cb.OnClosed != nil {
				cb.OnClosed(status)
			}
			return
		}
	}
}

// Countdown ticks once per second until expiresAt, reporting whole
// seconds remaining for display. Reaching zero stops the ticker but by
// itself transitions no order status: terminal states only ever come
// from a gateway-confirmed status.
func (c *Controller) Countdown(ctx context.Context, expiresAt time.Time, fn func(remaining int)) *Watcher {
	w := newWatcher()
	go func() {
		defer close(w.done)
		ticker := c.clock.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C():
				remaining := int(expiresAt.Sub(c.clock.Now()).Seconds())
				if remaining <= 0 {
					fn(0)
					return
				}
				fn(remaining)
			}
		}
	}()
	return w
}
