package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/oliveigah/banking-prototype/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// body mimics gin's JSON binding of an open object.
func body(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestParseDeposit(t *testing.T) {
	req, err := ParseDeposit(body(t, `{"amount": 5000, "currency": "BRL", "note": "salary"}`))
	require.NoError(t, err)

	assert.Equal(t, int64(5000), req.Amount)
	assert.Equal(t, domain.Currency("BRL"), req.Currency)
	assert.True(t, req.DateTime.IsZero())
	// Unrecognized fields pass through into operation data.
	assert.Equal(t, domain.Data{"note": "salary"}, req.Meta)
}

func TestParseDeposit_DateTime(t *testing.T) {
	req, err := ParseDeposit(body(t, `{"amount": 1, "currency": "BRL", "date_time": "2025-03-01T10:30:00Z"}`))
	require.NoError(t, err)
	assert.True(t, req.DateTime.Equal(time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)))
}

func TestParseDeposit_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing amount", `{"currency": "BRL"}`},
		{"zero amount", `{"amount": 0, "currency": "BRL"}`},
		{"negative amount", `{"amount": -5, "currency": "BRL"}`},
		{"fractional amount", `{"amount": 10.5, "currency": "BRL"}`},
		{"missing currency", `{"amount": 10}`},
		{"bad date_time", `{"amount": 10, "currency": "BRL", "date_time": "yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDeposit(body(t, tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParseCardTransaction(t *testing.T) {
	req, err := ParseCardTransaction(body(t, `{"amount": 3000, "currency": "BRL", "card_id": 1}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), req.CardID)
	assert.Nil(t, req.Meta)

	_, err = ParseCardTransaction(body(t, `{"amount": 3000, "currency": "BRL"}`))
	assert.Error(t, err)
}

func TestParseTransfer(t *testing.T) {
	req, err := ParseTransfer(body(t, `{"amount": 2000, "currency": "BRL", "recipient_account_id": 2, "note": "rent"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(2), req.RecipientID)
	assert.Equal(t, domain.Data{"note": "rent"}, req.Meta)

	_, err = ParseTransfer(body(t, `{"amount": 2000, "currency": "BRL"}`))
	assert.Error(t, err)
}

func TestParseSplitTransfer(t *testing.T) {
	req, err := ParseSplitTransfer(body(t, `{
		"amount": 1000,
		"currency": "BRL",
		"other_data": "general",
		"recipients_data": [
			{"percentage": 0.7, "recipient_account_id": 2, "other_data": "x"},
			{"percentage": 0.3, "recipient_account_id": 3}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, int64(1000), req.TotalAmount)
	require.Len(t, req.Recipients, 2)
	assert.Equal(t, int64(2), req.Recipients[0].RecipientID)
	assert.Equal(t, "0.7", req.Recipients[0].Percentage.String())
	assert.Equal(t, domain.Data{"other_data": "x"}, req.Recipients[0].Meta)
	assert.Nil(t, req.Recipients[1].Meta)
	assert.Equal(t, domain.Data{"other_data": "general"}, req.Meta)
}

func TestParseSplitTransfer_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing recipients", `{"amount": 1000, "currency": "BRL"}`},
		{"empty recipients", `{"amount": 1000, "currency": "BRL", "recipients_data": []}`},
		{"zero percentage", `{"amount": 1000, "currency": "BRL", "recipients_data": [{"percentage": 0, "recipient_account_id": 2}]}`},
		{"percentage above one", `{"amount": 1000, "currency": "BRL", "recipients_data": [{"percentage": 1.5, "recipient_account_id": 2}]}`},
		{"missing recipient id", `{"amount": 1000, "currency": "BRL", "recipients_data": [{"percentage": 0.5}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSplitTransfer(body(t, tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParseRefund(t *testing.T) {
	req, err := ParseRefund(body(t, `{"operation_to_refund_id": 1}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), req.OperationID)

	_, err = ParseRefund(body(t, `{}`))
	assert.Error(t, err)
}

func TestParseExchange(t *testing.T) {
	req, err := ParseExchange(body(t, `{"current_amount": 100, "current_currency": "USD", "new_currency": "BRL"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(100), req.CurrentAmount)
	assert.Equal(t, domain.Currency("USD"), req.CurrentCurrency)
	assert.Equal(t, domain.Currency("BRL"), req.NewCurrency)

	_, err = ParseExchange(body(t, `{"current_amount": 100, "current_currency": "USD"}`))
	assert.Error(t, err)
}
