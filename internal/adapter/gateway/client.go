// Package gateway is the HTTP client for the backend API. Every call
// resolves to one of four distinguishable outcomes: a decoded typed
// response, domain.ErrNotFound (confirmed absence), ErrPayloadTooLarge
// (bulk payload rejected with 413), or *UnreachableError (network or
// server failure). Callers branch with errors.Is / errors.As instead of
// treating every failure alike.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/leadsync/internal/domain"
)

// ErrPayloadTooLarge signals an HTTP 413 on the bulk endpoint. The batch
// can usually be bisected and retried.
var ErrPayloadTooLarge = tooLargeError("payload too large")

type tooLargeError string

func (e tooLargeError) Error() string { return string(e) }

// UnreachableError covers the transient-failure class: connection
// errors and unexpected server status codes. Repositories fall back to
// the local store when they see it.
type UnreachableError struct {
	Op     string
	Status int // non-zero when caused by an HTTP status
	Err    error
}

func (e *UnreachableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: remote unreachable: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: remote unreachable: status %d", e.Op, e.Status)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// Client talks to the backend API rooted at BaseURL.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// do performs one request and classifies the outcome. in (when non-nil)
// is sent as JSON; out (when non-nil) receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &UnreachableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return ErrPayloadTooLarge
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		io.Copy(io.Discard, resp.Body)
		return &UnreachableError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// Lead endpoints

func (c *Client) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	var leads []domain.Lead
	if err := c.do(ctx, "list leads", http.MethodGet, "/api/leads", nil, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (c *Client) GetLeadByTracking(ctx context.Context, tracking string) (*domain.Lead, error) {
	var lead domain.Lead
	path := "/api/leads/by-tracking/" + url.PathEscape(tracking)
	if err := c.do(ctx, "get lead by tracking", http.MethodGet, path, nil, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (c *Client) CreateLead(ctx context.Context, lead domain.Lead) (*domain.Lead, error) {
	var created domain.Lead
	if err := c.do(ctx, "create lead", http.MethodPost, "/api/leads", lead, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

type bulkLeadsResponse struct {
	Items []domain.Lead `json:"items"`
}

// CreateLeadsBulk posts one chunk to the bulk endpoint. A 413 comes back
// as ErrPayloadTooLarge so the caller can bisect.
func (c *Client) CreateLeadsBulk(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	var resp bulkLeadsResponse
	if err := c.do(ctx, "bulk create leads", http.MethodPost, "/api/leads/bulk", leads, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) != len(leads) {
		return nil, fmt.Errorf("bulk create leads: server returned %d items for %d leads", len(resp.Items), len(leads))
	}
	return resp.Items, nil
}

func (c *Client) UpdateLead(ctx context.Context, lead domain.Lead) error {
	if lead.ID == 0 {
		return domain.ErrValidation
	}
	path := "/api/leads/" + strconv.FormatInt(lead.ID, 10)
	return c.do(ctx, "update lead", http.MethodPut, path, lead, nil)
}

func (c *Client) DeleteLead(ctx context.Context, id int64) error {
	path := "/api/leads/" + strconv.FormatInt(id, 10)
	return c.do(ctx, "delete lead", http.MethodDelete, path, nil, nil)
}

func (c *Client) DeleteAllLeads(ctx context.Context) error {
	return c.do(ctx, "delete all leads", http.MethodDelete, "/api/leads", nil, nil)
}

// Order endpoints

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, "list orders", http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	var created domain.Order
	if err := c.do(ctx, "create order", http.MethodPost, "/api/orders", order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) GetOrderByTransaction(ctx context.Context, transactionID string) (*domain.Order, error) {
	var order domain.Order
	path := "/api/orders/by-transaction/" + url.PathEscape(transactionID)
	if err := c.do(ctx, "get order by transaction", http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// OrderPatch is the partial-update body for PUT by-transaction.
type OrderPatch struct {
	Status    domain.Status `json:"status"`
	UpdatedAt time.Time     `json:"updated_at,omitzero"`
}

func (c *Client) UpdateOrderByTransaction(ctx context.Context, transactionID string, patch OrderPatch) error {
	path := "/api/orders/by-transaction/" + url.PathEscape(transactionID)
	return c.do(ctx, "update order by transaction", http.MethodPut, path, patch, nil)
}

func (c *Client) DeleteAllOrders(ctx context.Context) error {
	return c.do(ctx, "delete all orders", http.MethodDelete, "/api/orders", nil, nil)
}
