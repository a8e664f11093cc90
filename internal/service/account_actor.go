package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/oliveigah/banking-prototype/internal/core/domain"
	"github.com/oliveigah/banking-prototype/internal/core/ports"
	"github.com/oliveigah/banking-prototype/pkg/apperror"
	"github.com/oliveigah/banking-prototype/pkg/logger"

	"github.com/rs/zerolog"
)

// accountsFolder holds one record per account, keyed by account id.
const accountsFolder = "accounts"

// errActorStopped signals the handle raced the actor's idle shutdown. Callers
// respawn through the registry and retry; the message is never lost.
var errActorStopped = errors.New("account actor stopped")

type actorReply struct {
	value any
	err   error
}

type actorCall struct {
	// fn runs inside the actor loop and its result is replied immediately.
	fn func(*AccountActor) (any, error)
	// async runs inside the actor loop but owns reply delivery itself, so the
	// loop can keep serving while a helper task finishes the call.
	async func(*AccountActor, chan<- actorReply)
	reply chan actorReply
}

// AccountActor owns one account's state and serves requests strictly in
// arrival order. It rehydrates from storage before serving, write-throughs
// every recorded mutation before advancing in-memory state, and terminates
// after the configured idle interval.
type AccountActor struct {
	id   int64
	args domain.NewAccountArgs

	state domain.Account

	inbox   chan actorCall
	ready   chan struct{}
	done    chan struct{}
	initErr error

	registry    *AccountRegistry
	storage     ports.Storage
	rates       ports.RateConverter
	idleTimeout time.Duration

	log zerolog.Logger
}

func newAccountActor(id int64, args domain.NewAccountArgs, r *AccountRegistry) *AccountActor {
	return &AccountActor{
		id:          id,
		args:        args,
		inbox:       make(chan actorCall),
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
		registry:    r,
		storage:     r.storage,
		rates:       r.rates,
		idleTimeout: r.idleTimeout,
		log:         logger.ForAccount(r.log, id),
	}
}

// AccountID returns the id this actor serves.
func (a *AccountActor) AccountID() int64 {
	return a.id
}

func (a *AccountActor) run() {
	a.initErr = a.rehydrate()
	close(a.ready)
	if a.initErr != nil {
		a.log.Error().Err(a.initErr).Msg("actor rehydration failed")
		a.registry.remove(a.id, a)
		close(a.done)
		return
	}

	timer := time.NewTimer(a.idleTimeout)
	defer timer.Stop()

	for {
		select {
		case c := <-a.inbox:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			a.handle(c)
			timer.Reset(a.idleTimeout)
		case <-timer.C:
			a.log.Debug().Msg("actor idle, terminating")
			a.registry.remove(a.id, a)
			close(a.done)
			return
		}
	}
}

func (a *AccountActor) handle(c actorCall) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("actor handler panic")
			c.reply <- actorReply{err: apperror.InternalError(fmt.Errorf("account %d handler panic: %v", a.id, r))}
		}
	}()

	if c.async != nil {
		c.async(a, c.reply)
		return
	}
	v, err := c.fn(a)
	c.reply <- actorReply{value: v, err: err}
}

// ask runs fn inside the actor loop and waits for the reply.
func (a *AccountActor) ask(ctx context.Context, fn func(*AccountActor) (any, error)) (any, error) {
	return a.send(ctx, actorCall{fn: fn, reply: make(chan actorReply, 1)})
}

// askAsync runs a handler that owns its own reply delivery.
func (a *AccountActor) askAsync(ctx context.Context, h func(*AccountActor, chan<- actorReply)) (any, error) {
	return a.send(ctx, actorCall{async: h, reply: make(chan actorReply, 1)})
}

func (a *AccountActor) send(ctx context.Context, c actorCall) (any, error) {
	select {
	case <-a.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if a.initErr != nil {
		return nil, a.initErr
	}

	// The inbox is unbuffered: once the send succeeds the loop has the call
	// and a reply is guaranteed.
	select {
	case a.inbox <- c:
	case <-a.done:
		return nil, errActorStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-c.reply:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// rehydrate adopts the stored state when present, otherwise builds a fresh
// account from the initial args and writes it through before serving.
func (a *AccountActor) rehydrate() error {
	var stored domain.Account
	found, err := a.storage.Get(accountsFolder, a.key(), &stored)
	if err != nil {
		return apperror.ErrStorageFailure(err)
	}
	if found {
		a.state = stored
		return nil
	}

	fresh := domain.NewAccount(a.id, a.args)
	if err := a.persist(fresh); err != nil {
		return err
	}
	a.state = fresh
	return nil
}

// persist write-throughs the post-state. In-memory state only advances after
// this succeeds.
func (a *AccountActor) persist(acc domain.Account) error {
	if err := a.storage.StoreSync(accountsFolder, a.key(), acc); err != nil {
		return apperror.ErrStorageFailure(err)
	}
	return nil
}

func (a *AccountActor) key() string {
	return strconv.FormatInt(a.id, 10)
}

// ---- handlers (run inside the actor loop) ----

func (a *AccountActor) applyDeposit(req domain.DepositRequest) (any, error) {
	mut := a.state.Deposit(req)
	if err := a.persist(mut.Account); err != nil {
		return nil, err
	}
	a.state = mut.Account
	return &ports.OperationReply{
		Balance:   a.state.Balance(req.Currency),
		Operation: mut.Operation(),
	}, nil
}

func (a *AccountActor) applyWithdraw(req domain.WithdrawRequest) (any, error) {
	return a.applyDebit(a.state.Withdraw(req), req.Currency)
}

func (a *AccountActor) applyCardTransaction(req domain.CardTransactionRequest) (any, error) {
	return a.applyDebit(a.state.CardTransaction(req), req.Currency)
}

func (a *AccountActor) applyTransferIn(req domain.TransferInRequest) (any, error) {
	mut := a.state.TransferIn(req)
	if err := a.persist(mut.Account); err != nil {
		return nil, err
	}
	a.state = mut.Account
	return &ports.OperationReply{
		Balance:   a.state.Balance(req.Currency),
		Operation: mut.Operation(),
	}, nil
}

// applyDebit finishes the shared withdraw/card path. Denials are recorded
// ledger entries, so they persist like any other mutation.
func (a *AccountActor) applyDebit(mut domain.Mutation, currency domain.Currency) (any, error) {
	if err := a.persist(mut.Account); err != nil {
		return nil, err
	}
	a.state = mut.Account
	return &ports.OperationReply{
		Balance:   a.state.Balance(currency),
		Operation: mut.Operation(),
		Denied:    mut.Denied,
		Reason:    mut.Reason,
	}, nil
}

func (a *AccountActor) applyRefund(req domain.RefundRequest) (any, error) {
	mut, err := a.state.Refund(req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOperationNotFound):
			return nil, apperror.ErrOperationNotFound()
		case errors.Is(err, domain.ErrUnrefundable):
			return nil, apperror.ErrUnrefundableOperation()
		default:
			return nil, apperror.InternalError(err)
		}
	}
	if err := a.persist(mut.Account); err != nil {
		return nil, err
	}
	a.state = mut.Account
	return &ports.BalancesReply{
		Balances:  a.state.AllBalances(),
		Operation: mut.Operation(),
	}, nil
}

func (a *AccountActor) applyExchange(req domain.ExchangeRequest) (any, error) {
	newAmount, rate, err := a.rates.Convert(req.CurrentAmount, req.CurrentCurrency, req.NewCurrency)
	if err != nil {
		return nil, err
	}
	mut := a.state.Exchange(req, domain.ExchangeQuote{NewAmount: newAmount, Rate: rate})
	if err := a.persist(mut.Account); err != nil {
		return nil, err
	}
	a.state = mut.Account
	return &ports.BalancesReply{
		Balances: map[domain.Currency]int64{
			req.CurrentCurrency: a.state.Balance(req.CurrentCurrency),
			req.NewCurrency:     a.state.Balance(req.NewCurrency),
		},
		Operation: mut.Operation(),
		Denied:    mut.Denied,
		Reason:    mut.Reason,
	}, nil
}

// handleTransferOut applies the local debit synchronously, then hands the
// recipient call to a helper task so the actor keeps serving its inbox while
// the recipient works. The caller stays blocked until the helper delivers the
// combined reply. A recipient failure after the local debit persisted leaves
// the debit standing.
func (a *AccountActor) handleTransferOut(req domain.TransferOutRequest, reply chan<- actorReply) {
	mut := a.state.TransferOut(req)
	if err := a.persist(mut.Account); err != nil {
		reply <- actorReply{err: err}
		return
	}
	a.state = mut.Account

	balance := a.state.Balance(req.Currency)
	if mut.Denied {
		reply <- actorReply{value: &ports.TransferReply{
			Balance:         balance,
			LocalOperations: mut.Operations,
			Denied:          true,
			Reason:          mut.Reason,
		}}
		return
	}

	local := mut.Operations
	in := domain.TransferInRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		SenderID: a.id,
		DateTime: req.DateTime,
		Meta:     req.Meta,
	}
	registry, recipientID, timeout := a.registry, req.RecipientID, a.idleTimeout

	a.submitHelper(reply, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		rep, err := registry.transferIn(ctx, recipientID, in)
		if err != nil {
			return nil, apperror.ErrTransferDelivery(err)
		}
		return &ports.TransferReply{
			Balance:             balance,
			LocalOperations:     local,
			RecipientOperations: []domain.Operation{rep.Operation},
		}, nil
	})
}

// handleSplitTransferOut debits the total, then fans out one transfer_in per
// recipient in parallel from a helper task, preserving the supplied order in
// the reply.
func (a *AccountActor) handleSplitTransferOut(req domain.SplitTransferRequest, reply chan<- actorReply) {
	mut := a.state.SplitTransferOut(req)
	if err := a.persist(mut.Account); err != nil {
		reply <- actorReply{err: err}
		return
	}
	a.state = mut.Account

	balance := a.state.Balance(req.Currency)
	if mut.Denied {
		reply <- actorReply{value: &ports.TransferReply{
			Balance:         balance,
			LocalOperations: mut.Operations,
			Denied:          true,
			Reason:          mut.Reason,
		}}
		return
	}

	local := mut.Operations
	registry, timeout, senderID := a.registry, a.idleTimeout, a.id
	recipients := req.Recipients
	currency, generalMeta, at := req.Currency, req.Meta, req.DateTime

	a.submitHelper(reply, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		received := make([]domain.Operation, len(recipients))
		errs := make([]error, len(recipients))
		var wg sync.WaitGroup
		for i, recipient := range recipients {
			wg.Add(1)
			go func(i int, recipient domain.SplitRecipient, share int64) {
				defer wg.Done()
				rep, err := registry.transferIn(ctx, recipient.RecipientID, domain.TransferInRequest{
					Amount:   share,
					Currency: currency,
					SenderID: senderID,
					DateTime: at,
					Meta:     generalMeta.Merge(recipient.Meta),
				})
				if err != nil {
					errs[i] = err
					return
				}
				received[i] = rep.Operation
			}(i, recipient, local[i].Data.Amount())
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return nil, apperror.ErrTransferDelivery(err)
			}
		}
		return &ports.TransferReply{
			Balance:             balance,
			LocalOperations:     local,
			RecipientOperations: received,
		}, nil
	})
}

// submitHelper runs fn on the registry's task pool and delivers its result to
// the waiting caller. Submission failure is reported instead of dropping the
// reply.
func (a *AccountActor) submitHelper(reply chan<- actorReply, fn func() (any, error)) {
	err := a.registry.tasks.Submit(func() {
		v, err := fn()
		reply <- actorReply{value: v, err: err}
	})
	if err != nil {
		reply <- actorReply{err: apperror.ErrTransferDelivery(err)}
	}
}
