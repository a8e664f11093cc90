package ports

import (
	"context"
	"time"

	"github.com/oliveigah/banking-prototype/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Storage is the key-sharded persistence pool. All requests for one key are
// served by the same slot in FIFO order.
type Storage interface {
	// StoreSync blocks until the value is durably written.
	StoreSync(folder, key string, value any) error
	// StoreAsync enqueues the write and returns. Per-key FIFO is the only
	// delivery guarantee; reserved for collector-style sinks, never for
	// authoritative account state.
	StoreAsync(folder, key string, value any) error
	// Get blocks and decodes the latest value for the key into out. The bool
	// result distinguishes absence from an I/O error.
	Get(folder, key string, out any) (bool, error)
}

// RateConverter computes currency conversions against the process-wide rate
// table.
type RateConverter interface {
	// Convert returns the converted amount and the effective rate
	// (rate[to] / rate[from]). Unknown currencies yield a typed error.
	Convert(amount int64, from, to domain.Currency) (int64, decimal.Decimal, error)
}

// TokenService handles account-scoped JWT operations.
type TokenService interface {
	Generate(accountID int64) (string, time.Time, error)
	Validate(tokenString string) (int64, error)
}

// HashService verifies the operator access key hash.
type HashService interface {
	Hash(key string) (string, error)
	Verify(key string, hash string) (bool, error)
}

// AuthService exchanges an operator access key for an account-scoped token.
type AuthService interface {
	IssueToken(ctx context.Context, accountID int64, accessKey string) (string, time.Time, error)
}

// OperationReply is the engine's answer to deposit, withdraw, card and
// transfer_in requests. On denial the balance is the unchanged one for the
// debited currency and the operation carries the denial record.
type OperationReply struct {
	Balance   int64            `json:"balance"`
	Operation domain.Operation `json:"operation"`
	Denied    bool             `json:"denied,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

// TransferReply is the engine's answer to single and split transfer_out
// requests. Recipient operations are ordered as the recipients were supplied.
type TransferReply struct {
	Balance             int64              `json:"balance"`
	LocalOperations     []domain.Operation `json:"local_operations"`
	RecipientOperations []domain.Operation `json:"recipient_operations,omitempty"`
	Denied              bool               `json:"denied,omitempty"`
	Reason              string             `json:"reason,omitempty"`
}

// BalancesReply is the engine's answer to refund and exchange requests.
type BalancesReply struct {
	Balances  map[domain.Currency]int64 `json:"balances"`
	Operation domain.Operation          `json:"operation"`
	Denied    bool                      `json:"denied,omitempty"`
	Reason    string                    `json:"reason,omitempty"`
}

// AccountService is the caller-facing surface of the account engine. Every
// reply reflects state after persistence succeeded.
type AccountService interface {
	Deposit(ctx context.Context, accountID int64, req domain.DepositRequest) (*OperationReply, error)
	Withdraw(ctx context.Context, accountID int64, req domain.WithdrawRequest) (*OperationReply, error)
	CardTransaction(ctx context.Context, accountID int64, req domain.CardTransactionRequest) (*OperationReply, error)
	TransferIn(ctx context.Context, accountID int64, req domain.TransferInRequest) (*OperationReply, error)
	TransferOut(ctx context.Context, accountID int64, req domain.TransferOutRequest) (*TransferReply, error)
	SplitTransferOut(ctx context.Context, accountID int64, req domain.SplitTransferRequest) (*TransferReply, error)
	Refund(ctx context.Context, accountID int64, req domain.RefundRequest) (*BalancesReply, error)
	Exchange(ctx context.Context, accountID int64, req domain.ExchangeRequest) (*BalancesReply, error)

	Balance(ctx context.Context, accountID int64, currency domain.Currency) (int64, error)
	Balances(ctx context.Context, accountID int64) (map[domain.Currency]int64, error)
	Operation(ctx context.Context, accountID int64, operationID int64) (domain.Operation, error)
	OperationsOn(ctx context.Context, accountID int64, day time.Time) ([]domain.Operation, error)
	OperationsBetween(ctx context.Context, accountID int64, ini, fin time.Time) ([]domain.Operation, error)
}
