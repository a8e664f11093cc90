package dto

import (
	"fmt"
	"math"
	"time"

	"github.com/oliveigah/banking-prototype/internal/core/domain"
	"github.com/oliveigah/banking-prototype/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Request bodies are open JSON objects: the recognized fields below are
// validated and typed, everything else passes through into operation data.

// TokenRequest is the auth token exchange body.
type TokenRequest struct {
	AccountID int64  `json:"account_id" binding:"required"`
	AccessKey string `json:"access_key" binding:"required"`
}

// TokenResponse carries an issued token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ParseDeposit builds a typed deposit request from an open body.
func ParseDeposit(body map[string]any) (domain.DepositRequest, error) {
	amount, currency, at, err := moneyFields(body)
	if err != nil {
		return domain.DepositRequest{}, err
	}
	return domain.DepositRequest{
		Amount:   amount,
		Currency: currency,
		DateTime: at,
		Meta:     extras(body, "amount", "currency", "date_time"),
	}, nil
}

// ParseWithdraw builds a typed withdraw request from an open body.
func ParseWithdraw(body map[string]any) (domain.WithdrawRequest, error) {
	amount, currency, at, err := moneyFields(body)
	if err != nil {
		return domain.WithdrawRequest{}, err
	}
	return domain.WithdrawRequest{
		Amount:   amount,
		Currency: currency,
		DateTime: at,
		Meta:     extras(body, "amount", "currency", "date_time"),
	}, nil
}

// ParseCardTransaction builds a typed card transaction request.
func ParseCardTransaction(body map[string]any) (domain.CardTransactionRequest, error) {
	amount, currency, at, err := moneyFields(body)
	if err != nil {
		return domain.CardTransactionRequest{}, err
	}
	cardID, ok, err := intField(body, "card_id")
	if err != nil {
		return domain.CardTransactionRequest{}, err
	}
	if !ok {
		return domain.CardTransactionRequest{}, apperror.Validation("card_id is required")
	}
	return domain.CardTransactionRequest{
		Amount:   amount,
		Currency: currency,
		CardID:   cardID,
		DateTime: at,
		Meta:     extras(body, "amount", "currency", "card_id", "date_time"),
	}, nil
}

// ParseTransfer builds a typed single-recipient transfer request.
func ParseTransfer(body map[string]any) (domain.TransferOutRequest, error) {
	amount, currency, at, err := moneyFields(body)
	if err != nil {
		return domain.TransferOutRequest{}, err
	}
	recipientID, ok, err := intField(body, "recipient_account_id")
	if err != nil {
		return domain.TransferOutRequest{}, err
	}
	if !ok {
		return domain.TransferOutRequest{}, apperror.Validation("recipient_account_id is required")
	}
	return domain.TransferOutRequest{
		Amount:      amount,
		Currency:    currency,
		RecipientID: recipientID,
		DateTime:    at,
		Meta:        extras(body, "amount", "currency", "recipient_account_id", "date_time"),
	}, nil
}

// ParseSplitTransfer builds a typed multi-recipient transfer request.
func ParseSplitTransfer(body map[string]any) (domain.SplitTransferRequest, error) {
	amount, currency, at, err := moneyFields(body)
	if err != nil {
		return domain.SplitTransferRequest{}, err
	}
	raw, ok := body["recipients_data"].([]any)
	if !ok || len(raw) == 0 {
		return domain.SplitTransferRequest{}, apperror.Validation("recipients_data must be a non-empty list")
	}

	recipients := make([]domain.SplitRecipient, 0, len(raw))
	for i, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return domain.SplitTransferRequest{}, apperror.Validation(fmt.Sprintf("recipients_data[%d] must be an object", i))
		}
		pct, ok := m["percentage"].(float64)
		if !ok || pct <= 0 || pct > 1 {
			return domain.SplitTransferRequest{}, apperror.Validation(fmt.Sprintf("recipients_data[%d].percentage must be in (0, 1]", i))
		}
		recipientID, ok, err := intField(m, "recipient_account_id")
		if err != nil {
			return domain.SplitTransferRequest{}, err
		}
		if !ok {
			return domain.SplitTransferRequest{}, apperror.Validation(fmt.Sprintf("recipients_data[%d].recipient_account_id is required", i))
		}
		recipients = append(recipients, domain.SplitRecipient{
			Percentage:  decimal.NewFromFloat(pct),
			RecipientID: recipientID,
			Meta:        extras(m, "percentage", "recipient_account_id"),
		})
	}

	return domain.SplitTransferRequest{
		TotalAmount: amount,
		Currency:    currency,
		Recipients:  recipients,
		DateTime:    at,
		Meta:        extras(body, "amount", "currency", "recipients_data", "date_time"),
	}, nil
}

// ParseRefund builds a typed refund request.
func ParseRefund(body map[string]any) (domain.RefundRequest, error) {
	operationID, ok, err := intField(body, "operation_to_refund_id")
	if err != nil {
		return domain.RefundRequest{}, err
	}
	if !ok {
		return domain.RefundRequest{}, apperror.Validation("operation_to_refund_id is required")
	}
	at, err := dateTimeField(body)
	if err != nil {
		return domain.RefundRequest{}, err
	}
	return domain.RefundRequest{
		OperationID: operationID,
		DateTime:    at,
		Meta:        extras(body, "operation_to_refund_id", "date_time"),
	}, nil
}

// ParseExchange builds a typed exchange request.
func ParseExchange(body map[string]any) (domain.ExchangeRequest, error) {
	amount, ok, err := intField(body, "current_amount")
	if err != nil {
		return domain.ExchangeRequest{}, err
	}
	if !ok || amount <= 0 {
		return domain.ExchangeRequest{}, apperror.Validation("current_amount must be a positive integer")
	}
	current, ok := body["current_currency"].(string)
	if !ok || current == "" {
		return domain.ExchangeRequest{}, apperror.Validation("current_currency is required")
	}
	next, ok := body["new_currency"].(string)
	if !ok || next == "" {
		return domain.ExchangeRequest{}, apperror.Validation("new_currency is required")
	}
	at, err := dateTimeField(body)
	if err != nil {
		return domain.ExchangeRequest{}, err
	}
	return domain.ExchangeRequest{
		CurrentAmount:   amount,
		CurrentCurrency: domain.Currency(current),
		NewCurrency:     domain.Currency(next),
		DateTime:        at,
		Meta:            extras(body, "current_amount", "current_currency", "new_currency", "date_time"),
	}, nil
}

// ---- field helpers ----

// moneyFields extracts the amount/currency/date_time triple shared by most
// mutation bodies.
func moneyFields(body map[string]any) (int64, domain.Currency, time.Time, error) {
	amount, ok, err := intField(body, "amount")
	if err != nil {
		return 0, "", time.Time{}, err
	}
	if !ok || amount <= 0 {
		return 0, "", time.Time{}, apperror.Validation("amount must be a positive integer")
	}
	currency, ok := body["currency"].(string)
	if !ok || currency == "" {
		return 0, "", time.Time{}, apperror.Validation("currency is required")
	}
	at, err := dateTimeField(body)
	if err != nil {
		return 0, "", time.Time{}, err
	}
	return amount, domain.Currency(currency), at, nil
}

// intField reads an integer from a decoded JSON object, rejecting fractional
// numbers.
func intField(body map[string]any, key string) (int64, bool, error) {
	raw, present := body[key]
	if !present {
		return 0, false, nil
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false, apperror.Validation(fmt.Sprintf("%s must be an integer", key))
	}
	return int64(f), true, nil
}

func dateTimeField(body map[string]any) (time.Time, error) {
	raw, present := body["date_time"]
	if !present {
		return time.Time{}, nil
	}
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, apperror.Validation("date_time must be an RFC3339 string")
	}
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperror.Validation("date_time must be an RFC3339 string")
	}
	return at, nil
}

// extras returns the caller-supplied fields not consumed by the engine.
func extras(body map[string]any, consumed ...string) domain.Data {
	used := make(map[string]struct{}, len(consumed))
	for _, k := range consumed {
		used[k] = struct{}{}
	}
	out := make(domain.Data)
	for k, v := range body {
		if _, ok := used[k]; ok {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
