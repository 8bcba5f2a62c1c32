package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPaidStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"paid", true},
		{"PAID", true},
		{"invoice_paid", true},
		{"PAYMENT_CONFIRMED", true},
		{"Completed", true},
		{"success", true},
		{"unpaid", false},
		{"incomplete", false},
		{"not_confirmed", false},
		{"payment not finished", false},
		{"non-paid", false},
		{"expired", false},
		{"active", false},
		{"", false},
		{"  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPaidStatus(tt.status, DefaultPaidTokens))
		})
	}
}

func TestIsPaidStatus_CustomTokens(t *testing.T) {
	assert.True(t, IsPaidStatus("settled", []string{"Settled"}))
	assert.False(t, IsPaidStatus("paid", []string{"settled"}))
	assert.False(t, IsPaidStatus("paid", nil))
}

func TestInvoiceMapping_MatchesReference(t *testing.T) {
	issued := "order_1001_1_1792148817652480802"

	stored := &InvoiceMapping{Reference: issued}
	assert.True(t, stored.MatchesReference(issued))
	assert.False(t, stored.MatchesReference("order_1001_1_0"))
	assert.False(t, stored.MatchesReference(""))

	// старая связка: токен только в ответе платёжного сервиса
	legacy := &InvoiceMapping{RawPayload: RawPayload(`{"ok":true,"result":{"invoice_id":1,"payload":"` + issued + `"}}`)}
	assert.True(t, legacy.MatchesReference(issued))
	assert.False(t, legacy.MatchesReference("order_1001_1_0"))

	unknown := &InvoiceMapping{RawPayload: RawPayload(`{"ok":true}`)}
	assert.False(t, unknown.MatchesReference(issued))
}
