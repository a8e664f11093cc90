package service

import (
	"context"
	"time"

	"github.com/oliveigah/banking-prototype/internal/core/domain"
	"github.com/oliveigah/banking-prototype/internal/core/ports"
	"github.com/oliveigah/banking-prototype/pkg/apperror"
)

// AccountEngine is the caller-facing facade over the registry and its actors.
// It implements ports.AccountService; every reply reflects state after
// persistence succeeded.
type AccountEngine struct {
	registry *AccountRegistry
}

// NewAccountEngine creates the engine facade.
func NewAccountEngine(registry *AccountRegistry) *AccountEngine {
	return &AccountEngine{registry: registry}
}

func (e *AccountEngine) Deposit(ctx context.Context, accountID int64, req domain.DepositRequest) (*ports.OperationReply, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		return a.applyDeposit(req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.OperationReply), nil
}

func (e *AccountEngine) Withdraw(ctx context.Context, accountID int64, req domain.WithdrawRequest) (*ports.OperationReply, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		return a.applyWithdraw(req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.OperationReply), nil
}

func (e *AccountEngine) CardTransaction(ctx context.Context, accountID int64, req domain.CardTransactionRequest) (*ports.OperationReply, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		return a.applyCardTransaction(req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.OperationReply), nil
}

func (e *AccountEngine) TransferIn(ctx context.Context, accountID int64, req domain.TransferInRequest) (*ports.OperationReply, error) {
	return e.registry.transferIn(ctx, accountID, req)
}

func (e *AccountEngine) TransferOut(ctx context.Context, accountID int64, req domain.TransferOutRequest) (*ports.TransferReply, error) {
	v, err := e.registry.callAsync(ctx, accountID, nil, func(a *AccountActor, reply chan<- actorReply) {
		a.handleTransferOut(req, reply)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.TransferReply), nil
}

func (e *AccountEngine) SplitTransferOut(ctx context.Context, accountID int64, req domain.SplitTransferRequest) (*ports.TransferReply, error) {
	v, err := e.registry.callAsync(ctx, accountID, nil, func(a *AccountActor, reply chan<- actorReply) {
		a.handleSplitTransferOut(req, reply)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.TransferReply), nil
}

func (e *AccountEngine) Refund(ctx context.Context, accountID int64, req domain.RefundRequest) (*ports.BalancesReply, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		return a.applyRefund(req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.BalancesReply), nil
}

func (e *AccountEngine) Exchange(ctx context.Context, accountID int64, req domain.ExchangeRequest) (*ports.BalancesReply, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		return a.applyExchange(req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.BalancesReply), nil
}

func (e *AccountEngine) Balance(ctx context.Context, accountID int64, currency domain.Currency) (int64, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		return a.state.Balance(currency), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (e *AccountEngine) Balances(ctx context.Context, accountID int64) (map[domain.Currency]int64, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		return a.state.AllBalances(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[domain.Currency]int64), nil
}

func (e *AccountEngine) Operation(ctx context.Context, accountID int64, operationID int64) (domain.Operation, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		op, ok := a.state.Operation(operationID)
		if !ok {
			return nil, apperror.ErrOperationNotFound()
		}
		return op, nil
	})
	if err != nil {
		return domain.Operation{}, err
	}
	return v.(domain.Operation), nil
}

func (e *AccountEngine) OperationsOn(ctx context.Context, accountID int64, day time.Time) ([]domain.Operation, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		return a.state.OperationsOn(day), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Operation), nil
}

func (e *AccountEngine) OperationsBetween(ctx context.Context, accountID int64, ini, fin time.Time) ([]domain.Operation, error) {
	v, err := e.registry.call(ctx, accountID, nil, func(a *AccountActor) (any, error) {
		return a.state.OperationsBetween(ini, fin), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Operation), nil
}
