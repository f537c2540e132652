// Package repository implements the dual-write layer: every operation
// goes to the remote API first and degrades to the local persisted store
// when the remote is unreachable. The remote response is authoritative
// on success; a confirmed 404 on a key lookup is a final "not found" and
// never triggers the local fallback.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/leadsync/internal/adapter/gateway"
	"github.com/example/leadsync/internal/domain"
	"github.com/rs/zerolog"
)

// bulkChunkSize bounds a single bulk request payload.
const bulkChunkSize = 1000

// BulkError reports a bulk import where some records were rejected with
// an irreducible 413 (bisection reached chunks of size one and the
// server still refused them) and the local store could not absorb them
// either. Created counts the records that did make it in.
type BulkError struct {
	Created int
	Failed  int
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk import: %d of %d records rejected", e.Failed, e.Created+e.Failed)
}

// Leads is the dual-write repository for leads.
//
// Repeated AddOne calls with identical input intentionally yield
// distinct records: the system tolerates duplicate submits and only
// deduplicates by tracking key inside a single bulk batch.
type Leads struct {
	remote *gateway.Client
	local  domain.LeadStore
	log    zerolog.Logger
}

func NewLeads(remote *gateway.Client, local domain.LeadStore, logger zerolog.Logger) *Leads {
	return &Leads{
		remote: remote,
		local:  local,
		log:    logger.With().Str("component", "leads-repo").Logger(),
	}
}

func (r *Leads) ListAll(ctx context.Context) ([]domain.Lead, error) {
	leads, err := r.remote.ListLeads(ctx)
	if err == nil {
		return leads, nil
	}
	r.log.Debug().Err(err).Msg("remote list failed, serving local store")
	return r.local.ListLeads(ctx)
}

// FindByTracking resolves a lead by its tracking code. A 404 from a
// reachable remote is a confirmed absence and is returned as
// domain.ErrNotFound without consulting the local store.
func (r *Leads) FindByTracking(ctx context.Context, tracking string) (*domain.Lead, error) {
	lead, err := r.remote.GetLeadByTracking(ctx, tracking)
	if err == nil {
		return lead, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	r.log.Debug().Err(err).Str("tracking", tracking).Msg("remote lookup failed, trying local store")
	return r.local.FindLeadByTracking(ctx, tracking)
}

func (r *Leads) AddOne(ctx context.Context, lead domain.Lead) (*domain.Lead, error) {
	created, err := r.remote.CreateLead(ctx, lead)
	if err == nil {
		return created, nil
	}
	r.log.Debug().Err(err).Msg("remote create failed, persisting locally")
	return r.local.CreateLead(ctx, &lead)
}

// AddMany imports a batch. The batch is sent in chunks of bulkChunkSize;
// a chunk rejected with 413 is recursively bisected. Records the server
// still refuses at chunk size one are preserved in the local store, with
// case-insensitive tracking dedup (first occurrence wins). If the remote
// path fails for any other reason, the whole original batch is inserted
// locally in one transaction under the same dedup policy.
//
// BulkError is returned only when irreducibly rejected records could not
// be absorbed locally either; it carries the success/failure counts.
func (r *Leads) AddMany(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}
	created := make([]domain.Lead, 0, len(leads))
	var rejected []domain.Lead
	for start := 0; start < len(leads); start += bulkChunkSize {
		end := min(start+bulkChunkSize, len(leads))
		items, rej, err := r.postChunk(ctx, leads[start:end])
		if err != nil {
			r.log.Debug().Err(err).Int("batch", len(leads)).Msg("remote bulk failed, persisting batch locally")
			return r.local.CreateLeads(ctx, domain.DedupLeads(leads))
		}
		created = append(created, items...)
		rejected = append(rejected, rej...)
	}
	if len(rejected) > 0 {
		r.log.Warn().Int("rejected", len(rejected)).Int("created", len(created)).
			Msg("irreducibly rejected records, persisting them locally")
		locals, err := r.local.CreateLeads(ctx, domain.DedupLeads(rejected))
		if err != nil {
			return created, &BulkError{Created: len(created), Failed: len(rejected)}
		}
		created = append(created, locals...)
	}
	return created, nil
}

// postChunk posts one chunk, bisecting on 413. rejected collects
// single-record chunks the server still refused; err is reserved for the
// transient-failure class.
func (r *Leads) postChunk(ctx context.Context, chunk []domain.Lead) (items, rejected []domain.Lead, err error) {
	items, err = r.remote.CreateLeadsBulk(ctx, chunk)
	if err == nil {
		return items, nil, nil
	}
	if errors.Is(err, gateway.ErrPayloadTooLarge) {
		if len(chunk) == 1 {
			return nil, chunk, nil
		}
		mid := len(chunk) / 2
		left, lrej, err := r.postChunk(ctx, chunk[:mid])
		if err != nil {
			return nil, nil, err
		}
		right, rrej, err := r.postChunk(ctx, chunk[mid:])
		if err != nil {
			return nil, nil, err
		}
		return append(left, right...), append(lrej, rrej...), nil
	}
	return nil, nil, err
}

func (r *Leads) UpdateOne(ctx context.Context, lead domain.Lead) error {
	err := r.remote.UpdateLead(ctx, lead)
	if err == nil {
		return nil
	}
	// Leads created during an outage exist only locally; a remote 404
	// on update falls through so they stay editable.
	r.log.Debug().Err(err).Int64("id", lead.ID).Msg("remote update failed, updating local store")
	return r.local.UpdateLead(ctx, lead)
}

// DeleteOne removes a lead. On a successful remote delete the local copy
// is removed as well, so a later local-only read cannot resurrect it.
func (r *Leads) DeleteOne(ctx context.Context, id int64) error {
	err := r.remote.DeleteLead(ctx, id)
	if err == nil {
		if lerr := r.local.DeleteLead(ctx, id); lerr != nil {
			r.log.Warn().Err(lerr).Int64("id", id).Msg("local delete after remote delete failed")
		}
		return nil
	}
	r.log.Debug().Err(err).Int64("id", id).Msg("remote delete failed, deleting locally")
	return r.local.DeleteLead(ctx, id)
}

func (r *Leads) ClearAll(ctx context.Context) error {
	err := r.remote.DeleteAllLeads(ctx)
	if err == nil {
		if lerr := r.local.DeleteAllLeads(ctx); lerr != nil {
			r.log.Warn().Err(lerr).Msg("local clear after remote clear failed")
		}
		return nil
	}
	r.log.Debug().Err(err).Msg("remote clear failed, clearing locally")
	return r.local.DeleteAllLeads(ctx)
}
