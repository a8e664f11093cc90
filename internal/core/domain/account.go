package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel errors for refund preconditions. Nothing is recorded on the ledger
// when one of these is returned.
var (
	ErrOperationNotFound = errors.New("operation does not exist")
	ErrUnrefundable      = errors.New("unrefundable operation")
)

// FallbackCurrency applies when an account is created without an explicit
// default currency.
const FallbackCurrency Currency = "BRL"

// Account is the pure in-memory state of a single banking account. All
// mutations return a new value; the receiver is never changed.
//
// The default-currency balance may go negative down to Limit; every other
// currency floors at zero.
type Account struct {
	ID              int64               `json:"id" msgpack:"id"`
	DefaultCurrency Currency            `json:"default_currency" msgpack:"default_currency"`
	Limit           int64               `json:"limit" msgpack:"limit"`
	Balances        map[Currency]int64  `json:"balances" msgpack:"balances"`
	Operations      map[int64]Operation `json:"operations" msgpack:"operations"`
	NextOperationID int64               `json:"next_operation_id" msgpack:"next_operation_id"`
}

// NewAccountArgs carries the optional initial state for a fresh account.
type NewAccountArgs struct {
	DefaultCurrency Currency
	Limit           int64
	Balances        map[Currency]int64
}

// NewAccount builds a fresh account from the given args.
func NewAccount(id int64, args NewAccountArgs) Account {
	currency := args.DefaultCurrency
	if currency == "" {
		currency = FallbackCurrency
	}
	balances := make(map[Currency]int64, len(args.Balances))
	for c, v := range args.Balances {
		balances[c] = v
	}
	return Account{
		ID:              id,
		DefaultCurrency: currency,
		Limit:           args.Limit,
		Balances:        balances,
		Operations:      make(map[int64]Operation),
		NextOperationID: 1,
	}
}

// Mutation is the outcome of applying an operation to an account. Denials are
// outcomes, not errors: the attempt is recorded on the ledger and balances are
// unchanged.
type Mutation struct {
	Account    Account
	Operations []Operation
	Denied     bool
	Reason     string
}

// Operation returns the single recorded operation of this mutation.
func (m Mutation) Operation() Operation {
	return m.Operations[0]
}

// ---- Requests ----

type DepositRequest struct {
	Amount   int64
	Currency Currency
	DateTime time.Time
	Meta     Data
}

type WithdrawRequest struct {
	Amount   int64
	Currency Currency
	DateTime time.Time
	Meta     Data
}

type CardTransactionRequest struct {
	Amount   int64
	Currency Currency
	CardID   int64
	DateTime time.Time
	Meta     Data
}

type TransferOutRequest struct {
	Amount      int64
	Currency    Currency
	RecipientID int64
	DateTime    time.Time
	Meta        Data
}

// SplitRecipient is one leg of a multi-recipient transfer. Recipient-specific
// Meta fields override the request-level ones.
type SplitRecipient struct {
	Percentage  decimal.Decimal
	RecipientID int64
	Meta        Data
}

type SplitTransferRequest struct {
	TotalAmount int64
	Currency    Currency
	Recipients  []SplitRecipient
	DateTime    time.Time
	Meta        Data
}

type TransferInRequest struct {
	Amount   int64
	Currency Currency
	SenderID int64
	DateTime time.Time
	Meta     Data
}

type RefundRequest struct {
	OperationID int64
	DateTime    time.Time
	Meta        Data
}

type ExchangeRequest struct {
	CurrentAmount   int64
	CurrentCurrency Currency
	NewCurrency     Currency
	DateTime        time.Time
	Meta            Data
}

// ExchangeQuote is the conversion computed by the rates component for an
// exchange request.
type ExchangeQuote struct {
	NewAmount int64
	Rate      decimal.Decimal
}

// ---- Mutations ----

// Deposit credits the balance. Deposits always succeed.
func (a Account) Deposit(req DepositRequest) Mutation {
	next := a.clone()
	next.Balances[req.Currency] += req.Amount

	data := mergeData(req.Meta, Data{
		"amount":   req.Amount,
		"currency": string(req.Currency),
	})
	next, op := next.register(OperationTypeDeposit, OperationStatusDone, req.DateTime, data)
	return Mutation{Account: next, Operations: []Operation{op}}
}

// Withdraw debits the balance if the post-state satisfies the floor invariant,
// otherwise records a denial.
func (a Account) Withdraw(req WithdrawRequest) Mutation {
	data := mergeData(req.Meta, Data{
		"amount":   req.Amount,
		"currency": string(req.Currency),
	})
	return a.debit(OperationTypeWithdraw, req.Amount, req.Currency, req.DateTime, data)
}

// CardTransaction debits the balance like a withdraw, but the recorded entry
// is refundable while its status is done.
func (a Account) CardTransaction(req CardTransactionRequest) Mutation {
	data := mergeData(req.Meta, Data{
		"amount":   req.Amount,
		"currency": string(req.Currency),
		"card_id":  req.CardID,
	})
	return a.debit(OperationTypeCardTransaction, req.Amount, req.Currency, req.DateTime, data)
}

// TransferOut debits the balance for a single-recipient transfer.
func (a Account) TransferOut(req TransferOutRequest) Mutation {
	data := mergeData(req.Meta, Data{
		"amount":               req.Amount,
		"currency":             string(req.Currency),
		"recipient_account_id": req.RecipientID,
	})
	return a.debit(OperationTypeTransferOut, req.Amount, req.Currency, req.DateTime, data)
}

// SplitTransferOut debits the total amount and records one transfer_out per
// recipient with its rounded share. Percentages are taken as supplied and not
// re-normalized; shares round half away from zero, so their sum may differ
// from the total by the rounding residual.
func (a Account) SplitTransferOut(req SplitTransferRequest) Mutation {
	if !a.canDebit(req.TotalAmount, req.Currency) {
		reason := noFundsMessage(req.Currency)
		data := mergeData(req.Meta, Data{
			"amount":          req.TotalAmount,
			"currency":        string(req.Currency),
			"recipients_data": recipientsData(req.Recipients),
			"message":         reason,
		})
		next := a.clone()
		next, op := next.register(OperationTypeTransferOut, OperationStatusDenied, req.DateTime, data)
		return Mutation{Account: next, Operations: []Operation{op}, Denied: true, Reason: reason}
	}

	next := a.clone()
	next.Balances[req.Currency] -= req.TotalAmount

	ops := make([]Operation, 0, len(req.Recipients))
	total := decimal.NewFromInt(req.TotalAmount)
	for _, r := range req.Recipients {
		share := total.Mul(r.Percentage).Round(0).IntPart()
		data := mergeData(req.Meta, r.Meta, Data{
			"amount":               share,
			"currency":             string(req.Currency),
			"recipient_account_id": r.RecipientID,
			"percentage":           r.Percentage.String(),
		})
		var op Operation
		next, op = next.register(OperationTypeTransferOut, OperationStatusDone, req.DateTime, data)
		ops = append(ops, op)
	}
	return Mutation{Account: next, Operations: ops}
}

// TransferIn credits the balance. Credits are always accepted.
func (a Account) TransferIn(req TransferInRequest) Mutation {
	next := a.clone()
	next.Balances[req.Currency] += req.Amount

	data := mergeData(req.Meta, Data{
		"amount":            req.Amount,
		"currency":          string(req.Currency),
		"sender_account_id": req.SenderID,
	})
	next, op := next.register(OperationTypeTransferIn, OperationStatusDone, req.DateTime, data)
	return Mutation{Account: next, Operations: []Operation{op}}
}

// Refund credits back a refundable card transaction and flips its status to
// refunded. Precondition failures record nothing and leave the account as-is.
func (a Account) Refund(req RefundRequest) (Mutation, error) {
	target, ok := a.Operations[req.OperationID]
	if !ok {
		return Mutation{Account: a}, ErrOperationNotFound
	}
	if !target.IsRefundable() {
		return Mutation{Account: a}, ErrUnrefundable
	}

	amount := target.Data.Amount()
	currency := target.Data.Currency()

	next := a.clone()
	next.Balances[currency] += amount

	refunded := next.Operations[req.OperationID]
	refunded.Status = OperationStatusRefunded
	next.Operations[req.OperationID] = refunded

	data := mergeData(req.Meta, Data{
		"operation_to_refund_id": req.OperationID,
		"amount":                 amount,
		"currency":               string(currency),
	})
	next, op := next.register(OperationTypeRefund, OperationStatusDone, req.DateTime, data)
	return Mutation{Account: next, Operations: []Operation{op}}, nil
}

// Exchange swaps balance between two currencies of the same account using the
// supplied quote. Denies without mutating if the debit would break the floor
// invariant.
func (a Account) Exchange(req ExchangeRequest, quote ExchangeQuote) Mutation {
	if !a.canDebit(req.CurrentAmount, req.CurrentCurrency) {
		reason := noFundsMessage(req.CurrentCurrency)
		data := mergeData(req.Meta, Data{
			"amount":       req.CurrentAmount,
			"currency":     string(req.CurrentCurrency),
			"new_currency": string(req.NewCurrency),
			"message":      reason,
		})
		next := a.clone()
		next, op := next.register(OperationTypeExchange, OperationStatusDenied, req.DateTime, data)
		return Mutation{Account: next, Operations: []Operation{op}, Denied: true, Reason: reason}
	}

	next := a.clone()
	next.Balances[req.CurrentCurrency] -= req.CurrentAmount
	next.Balances[req.NewCurrency] += quote.NewAmount

	data := mergeData(req.Meta, Data{
		"amount":        req.CurrentAmount,
		"currency":      string(req.CurrentCurrency),
		"new_amount":    quote.NewAmount,
		"new_currency":  string(req.NewCurrency),
		"exchange_rate": quote.Rate.String(),
	})
	next, op := next.register(OperationTypeExchange, OperationStatusDone, req.DateTime, data)
	return Mutation{Account: next, Operations: []Operation{op}}
}

// ---- Queries ----

// Balance returns the balance for the given currency; absent means zero.
func (a Account) Balance(currency Currency) int64 {
	return a.Balances[currency]
}

// AllBalances returns a copy of every currency balance.
func (a Account) AllBalances() map[Currency]int64 {
	out := make(map[Currency]int64, len(a.Balances))
	for c, v := range a.Balances {
		out[c] = v
	}
	return out
}

// Operation returns the ledger entry with the given id.
func (a Account) Operation(id int64) (Operation, bool) {
	op, ok := a.Operations[id]
	return op, ok
}

// OperationsOn returns the operations recorded during the calendar day of the
// given instant, taken in the instant's own location, most recent first.
func (a Account) OperationsOn(day time.Time) []Operation {
	ini := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	fin := ini.Add(24*time.Hour - time.Nanosecond)
	return a.OperationsBetween(ini, fin)
}

// OperationsBetween returns the operations recorded inside [ini, fin], both
// endpoints inclusive, most recent first.
func (a Account) OperationsBetween(ini, fin time.Time) []Operation {
	var out []Operation
	for _, op := range a.Operations {
		if op.DateTime.Before(ini) || op.DateTime.After(fin) {
			continue
		}
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].DateTime.After(out[j].DateTime)
	})
	return out
}

// ---- internals ----

func (a Account) clone() Account {
	balances := make(map[Currency]int64, len(a.Balances))
	for c, v := range a.Balances {
		balances[c] = v
	}
	operations := make(map[int64]Operation, len(a.Operations))
	for id, op := range a.Operations {
		operations[id] = op
	}
	a.Balances = balances
	a.Operations = operations
	return a
}

// floor is the lowest value the balance of a currency may reach.
func (a Account) floor(currency Currency) int64 {
	if currency == a.DefaultCurrency {
		return a.Limit
	}
	return 0
}

func (a Account) canDebit(amount int64, currency Currency) bool {
	return a.Balances[currency]-amount >= a.floor(currency)
}

// debit applies the shared debit-or-deny path of withdraw, card transactions
// and single transfers.
func (a Account) debit(typ OperationType, amount int64, currency Currency, at time.Time, data Data) Mutation {
	if !a.canDebit(amount, currency) {
		reason := noFundsMessage(currency)
		denied := data.clone()
		denied["message"] = reason
		next := a.clone()
		next, op := next.register(typ, OperationStatusDenied, at, denied)
		return Mutation{Account: next, Operations: []Operation{op}, Denied: true, Reason: reason}
	}

	next := a.clone()
	next.Balances[currency] -= amount
	next, op := next.register(typ, OperationStatusDone, at, data)
	return Mutation{Account: next, Operations: []Operation{op}}
}

// register appends a ledger entry. The receiver must already be a private
// clone.
func (a Account) register(typ OperationType, status OperationStatus, at time.Time, data Data) (Account, Operation) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	op := Operation{
		ID:       a.NextOperationID,
		DateTime: at,
		Type:     typ,
		Status:   status,
		Data:     data,
	}
	a.Operations[op.ID] = op
	a.NextOperationID++
	return a, op
}

func noFundsMessage(currency Currency) string {
	return fmt.Sprintf("No %s funds", currency)
}

func recipientsData(recipients []SplitRecipient) []any {
	out := make([]any, 0, len(recipients))
	for _, r := range recipients {
		entry := mergeData(r.Meta, Data{
			"percentage":           r.Percentage.String(),
			"recipient_account_id": r.RecipientID,
		})
		out = append(out, map[string]any(entry))
	}
	return out
}
