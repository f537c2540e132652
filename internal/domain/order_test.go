package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGatewayStatus(t *testing.T) {
	tests := []struct {
		raw   string
		want  Status
		known bool
	}{
		{"approved", StatusApproved, true},
		{"paid", StatusApproved, true},
		{"approved_payment", StatusApproved, true},
		{"cancelled", StatusCancelled, true},
		{"expired", StatusExpired, true},
		{"refunded", StatusRefunded, true},
		{"pending", StatusPending, true},
		{"waiting_payment", StatusPending, false},
		{"", StatusPending, false},
		{"APPROVED", StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, known := NormalizeGatewayStatus(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	for _, s := range []Status{StatusApproved, StatusCancelled, StatusExpired, StatusRefunded} {
		assert.True(t, s.Terminal(), string(s))
	}
}

func TestDedupLeads(t *testing.T) {
	leads := []Lead{
		{Name: "first", Tracking: "xyz789"},
		{Name: "second", Tracking: "ABC123"},
		{Name: "dup", Tracking: "XYZ789"},
		{Name: "blank-1", Tracking: ""},
		{Name: "blank-2", Tracking: ""},
		{Name: "padded-dup", Tracking: " xyz789 "},
	}
	out := DedupLeads(leads)
	assert.Len(t, out, 4)
	assert.Equal(t, "first", out[0].Name)
	assert.Equal(t, "second", out[1].Name)
	// Leads without tracking are never collapsed.
	assert.Equal(t, "blank-1", out[2].Name)
	assert.Equal(t, "blank-2", out[3].Name)
}
