package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/leadsync/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketLeads  = []byte("leads")
	bucketOrders = []byte("orders")
	bucketEvents = []byte("events")
)

// BoltStore implements domain.Store on an embedded bbolt database, one
// bucket per record kind. It is the default local fallback store and
// survives process restarts.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketLeads, bucketOrders, bucketEvents} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func putLead(b *bolt.Bucket, lead *domain.Lead, now time.Time) error {
	if lead.ID == 0 {
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		lead.ID = int64(seq)
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	data, err := json.Marshal(lead)
	if err != nil {
		return err
	}
	return b.Put(itob(uint64(lead.ID)), data)
}

// Lead operations

func (s *BoltStore) CreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return putLead(tx.Bucket(bucketLeads), lead, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *BoltStore) CreateLeads(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	now := time.Now()
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLeads)
		for i := range leads {
			if err := putLead(b, &leads[i], now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *BoltStore) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLeads).ForEach(func(k, v []byte) error {
			var l domain.Lead
			if err := json.Unmarshal(v, &l); err != nil {
				return err
			}
			leads = append(leads, l)
			return nil
		})
	})
	return leads, err
}

func (s *BoltStore) FindLeadByTracking(ctx context.Context, tracking string) (*domain.Lead, error) {
	key := domain.Lead{Tracking: tracking}.TrackingKey()
	var found *domain.Lead
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLeads).ForEach(func(k, v []byte) error {
			if found != nil {
				return nil
			}
			var l domain.Lead
			if err := json.Unmarshal(v, &l); err != nil {
				return err
			}
			if l.TrackingKey() == key {
				found = &l
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

func (s *BoltStore) UpdateLead(ctx context.Context, lead domain.Lead) error {
	if lead.ID == 0 {
		return domain.ErrValidation
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLeads)
		key := itob(uint64(lead.ID))
		if b.Get(key) == nil {
			return domain.ErrNotFound
		}
		data, err := json.Marshal(lead)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (s *BoltStore) DeleteLead(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLeads).Delete(itob(uint64(id)))
	})
}

func (s *BoltStore) DeleteAllLeads(ctx context.Context) error {
	return s.resetBucket(bucketLeads)
}

// Order operations

func (s *BoltStore) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOrders)
		if order.ID == 0 {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			order.ID = int64(seq)
		}
		now := time.Now()
		if order.CreatedAt.IsZero() {
			order.CreatedAt = now
		}
		if order.UpdatedAt.IsZero() {
			order.UpdatedAt = order.CreatedAt
		}
		data, err := json.Marshal(order)
		if err != nil {
			return err
		}
		return b.Put(itob(uint64(order.ID)), data)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *BoltStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOrders).ForEach(func(k, v []byte) error {
			var o domain.Order
			if err := json.Unmarshal(v, &o); err != nil {
				return err
			}
			orders = append(orders, o)
			return nil
		})
	})
	return orders, err
}

func (s *BoltStore) FindOrderByTransaction(ctx context.Context, transactionID string) (*domain.Order, error) {
	var found *domain.Order
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOrders).ForEach(func(k, v []byte) error {
			if found != nil {
				return nil
			}
			var o domain.Order
			if err := json.Unmarshal(v, &o); err != nil {
				return err
			}
			if o.TransactionID == transactionID {
				found = &o
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

func (s *BoltStore) UpdateOrderStatus(ctx context.Context, transactionID string, status domain.Status, at time.Time) (*domain.Order, error) {
	var updated *domain.Order
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOrders)
		var key []byte
		var order domain.Order
		err := b.ForEach(func(k, v []byte) error {
			if key != nil {
				return nil
			}
			var o domain.Order
			if err := json.Unmarshal(v, &o); err != nil {
				return err
			}
			if o.TransactionID == transactionID {
				key = append([]byte(nil), k...)
				order = o
			}
			return nil
		})
		if err != nil {
			return err
		}
		if key == nil {
			return domain.ErrNotFound
		}
		// Terminal statuses absorb: leave the record untouched.
		if order.Status.Terminal() {
			updated = &order
			return nil
		}
		order.Status = status
		order.UpdatedAt = at
		data, err := json.Marshal(order)
		if err != nil {
			return err
		}
		if err := b.Put(key, data); err != nil {
			return err
		}
		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BoltStore) DeleteAllOrders(ctx context.Context) error {
	return s.resetBucket(bucketOrders)
}

// Event operations

func (s *BoltStore) AppendEvent(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		if event.ID == 0 {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			event.ID = int64(seq)
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return b.Put(itob(uint64(event.ID)), data)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *BoltStore) ListEventsBySession(ctx context.Context, sessionID string) ([]domain.Event, error) {
	var events []domain.Event
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(k, v []byte) error {
			var e domain.Event
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			if sessionID == "" || e.SessionID == sessionID {
				events = append(events, e)
			}
			return nil
		})
	})
	return events, err
}

func (s *BoltStore) resetBucket(name []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(name); err != nil {
			return err
		}
		_, err := tx.CreateBucket(name)
		return err
	})
}

var _ domain.Store = (*BoltStore)(nil)
