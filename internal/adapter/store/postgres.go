package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/leadsync/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements domain.Store on Postgres for server
// deployments. Records are stored as jsonb payloads with the lookup keys
// promoted to indexed columns.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{Pool: pool}
}

// EnsureSchema creates the tables and indexes if absent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS leads (
  id bigserial PRIMARY KEY,
  tracking text NOT NULL DEFAULT '',
  payload jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS leads_tracking_idx ON leads (lower(tracking));

CREATE TABLE IF NOT EXISTS orders (
  id bigserial PRIMARY KEY,
  transaction_id text NOT NULL,
  status text NOT NULL,
  payload jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_transaction_idx ON orders (transaction_id);

CREATE TABLE IF NOT EXISTS events (
  id bigserial PRIMARY KEY,
  session_id text NOT NULL,
  payload jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS events_session_idx ON events (session_id);`)
	return err
}

func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}

// Lead operations

func (s *PostgresStore) CreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(lead)
	if err != nil {
		return nil, err
	}
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO leads(tracking, payload) VALUES($1, $2) RETURNING id`,
		lead.Tracking, payload)
	if err := row.Scan(&lead.ID); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *PostgresStore) CreateLeads(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	now := time.Now()
	for i := range leads {
		if leads[i].CreatedAt.IsZero() {
			leads[i].CreatedAt = now
		}
		payload, err := json.Marshal(&leads[i])
		if err != nil {
			return nil, err
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO leads(tracking, payload) VALUES($1, $2) RETURNING id`,
			leads[i].Tracking, payload)
		if err := row.Scan(&leads[i].ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, payload FROM leads ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var leads []domain.Lead
	for rows.Next() {
		var id int64
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var l domain.Lead
		if err := json.Unmarshal(payload, &l); err != nil {
			return nil, err
		}
		l.ID = id
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (s *PostgresStore) FindLeadByTracking(ctx context.Context, tracking string) (*domain.Lead, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, payload FROM leads WHERE lower(tracking) = lower($1) ORDER BY id LIMIT 1`,
		tracking)
	var id int64
	var payload []byte
	if err := row.Scan(&id, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var l domain.Lead
	if err := json.Unmarshal(payload, &l); err != nil {
		return nil, err
	}
	l.ID = id
	return &l, nil
}

func (s *PostgresStore) UpdateLead(ctx context.Context, lead domain.Lead) error {
	if lead.ID == 0 {
		return domain.ErrValidation
	}
	payload, err := json.Marshal(&lead)
	if err != nil {
		return err
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE leads SET tracking = $2, payload = $3 WHERE id = $1`,
		lead.ID, lead.Tracking, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id int64) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) DeleteAllLeads(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM leads`)
	return err
}

// Order operations

func (s *PostgresStore) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO orders(transaction_id, status, payload) VALUES($1, $2, $3) RETURNING id`,
		order.TransactionID, string(order.Status), payload)
	if err := row.Scan(&order.ID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, payload FROM orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []domain.Order
	for rows.Next() {
		var id int64
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var o domain.Order
		if err := json.Unmarshal(payload, &o); err != nil {
			return nil, err
		}
		o.ID = id
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *PostgresStore) FindOrderByTransaction(ctx context.Context, transactionID string) (*domain.Order, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, payload FROM orders WHERE transaction_id = $1 ORDER BY id LIMIT 1`,
		transactionID)
	var id int64
	var payload []byte
	if err := row.Scan(&id, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var o domain.Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, err
	}
	o.ID = id
	return &o, nil
}

func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, transactionID string, status domain.Status, at time.Time) (*domain.Order, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT id, payload FROM orders WHERE transaction_id = $1 ORDER BY id LIMIT 1 FOR UPDATE`,
		transactionID)
	var id int64
	var payload []byte
	if err := row.Scan(&id, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var o domain.Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, err
	}
	o.ID = id
	// Terminal statuses absorb: leave the record untouched.
	if o.Status.Terminal() {
		return &o, nil
	}
	o.Status = status
	o.UpdatedAt = at
	updated, err := json.Marshal(&o)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, payload = $3 WHERE id = $1`,
		id, string(status), updated); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStore) DeleteAllOrders(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM orders`)
	return err
}

// Event operations

func (s *PostgresStore) AppendEvent(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO events(session_id, payload) VALUES($1, $2) RETURNING id`,
		event.SessionID, payload)
	if err := row.Scan(&event.ID); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *PostgresStore) ListEventsBySession(ctx context.Context, sessionID string) ([]domain.Event, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, payload FROM events WHERE $1 = '' OR session_id = $1 ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []domain.Event
	for rows.Next() {
		var id int64
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var e domain.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		e.ID = id
		events = append(events, e)
	}
	return events, rows.Err()
}

var _ domain.Store = (*PostgresStore)(nil)
