package domain

import (
	"strings"
	"time"
)

// Lead is a customer shipment record managed from the admin panel.
// The numeric ID is assigned on first successful persistence (remote or
// local) and never reassigned afterwards.
type Lead struct {
	ID            int64     `json:"id,omitempty"`
	Name          string    `json:"name"`
	CPF           string    `json:"cpf"`
	Email         string    `json:"email"`
	Telephone     string    `json:"telephone"`
	Country       string    `json:"country"`
	State         string    `json:"state"`
	City          string    `json:"city"`
	Address       string    `json:"address"`
	Zipcode       string    `json:"zipcode"`
	Merchant      string    `json:"merchant"`
	Product       string    `json:"product"`
	Provider      string    `json:"provider"`
	Service       string    `json:"service"`
	Tracking      string    `json:"tracking"`
	ProviderInfo1 string    `json:"providerInfo1"`
	ProviderInfo2 string    `json:"providerInfo2"`
	ProviderInfo3 string    `json:"providerInfo3"`
	ProductImage  string    `json:"productImage,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
}

// TrackingKey is the duplicate-detection key for bulk imports. Tracking
// values compare case-insensitively; the store itself enforces no
// uniqueness, dedup is a write-time policy.
func (l Lead) TrackingKey() string {
	return strings.ToLower(strings.TrimSpace(l.Tracking))
}

// DedupLeads collapses case-insensitive tracking duplicates within one
// batch, first occurrence wins. Leads with an empty tracking are never
// considered duplicates of each other.
func DedupLeads(leads []Lead) []Lead {
	seen := make(map[string]struct{}, len(leads))
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		key := l.TrackingKey()
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, l)
	}
	return out
}
