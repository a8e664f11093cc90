package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oliveigah/banking-prototype/internal/core/domain"
	"github.com/oliveigah/banking-prototype/internal/core/ports"
	"github.com/oliveigah/banking-prototype/pkg/logger"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

// AccountRegistry maps account ids to live actors, spawning one on demand.
// At most one live actor exists per id; a handle observed mid-shutdown is
// replaced on the next lookup.
type AccountRegistry struct {
	mu     sync.Mutex
	actors map[int64]*AccountActor

	storage     ports.Storage
	rates       ports.RateConverter
	defaults    domain.NewAccountArgs
	idleTimeout time.Duration
	tasks       *ants.Pool

	log zerolog.Logger
}

// NewAccountRegistry wires the registry and the helper-task pool used for
// cross-account transfer calls.
func NewAccountRegistry(
	storage ports.Storage,
	rates ports.RateConverter,
	defaults domain.NewAccountArgs,
	idleTimeout time.Duration,
	transferWorkers int,
	log zerolog.Logger,
) (*AccountRegistry, error) {
	tasks, err := ants.NewPool(transferWorkers)
	if err != nil {
		return nil, err
	}
	return &AccountRegistry{
		actors:      make(map[int64]*AccountActor),
		storage:     storage,
		rates:       rates,
		defaults:    defaults,
		idleTimeout: idleTimeout,
		tasks:       tasks,
		log:         logger.ForComponent(log, "account_registry"),
	}, nil
}

// ServerProcess returns the live actor for the id, spawning and registering
// one atomically when absent. A nil args uses the configured account defaults;
// args are ignored when the actor already exists.
func (r *AccountRegistry) ServerProcess(id int64, args *domain.NewAccountArgs) *AccountActor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.actors[id]; ok {
		select {
		case <-a.done:
			// Stale registration from an in-flight shutdown; replace it.
		default:
			return a
		}
	}

	initial := r.defaults
	if args != nil {
		initial = *args
		if initial.DefaultCurrency == "" {
			initial.DefaultCurrency = r.defaults.DefaultCurrency
		}
	}

	a := newAccountActor(id, initial, r)
	r.actors[id] = a
	go a.run()
	return a
}

// Len returns the number of registered actors.
func (r *AccountRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actors)
}

// Close releases the helper-task pool. Live actors terminate on their own
// idle timers.
func (r *AccountRegistry) Close() {
	r.tasks.Release()
}

// remove deregisters a terminating actor, but only if it is still the
// registered instance for its id.
func (r *AccountRegistry) remove(id int64, a *AccountActor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.actors[id] == a {
		delete(r.actors, id)
	}
}

// call runs fn inside the actor loop for the id, respawning and retrying when
// the handle raced an idle shutdown.
func (r *AccountRegistry) call(ctx context.Context, id int64, args *domain.NewAccountArgs, fn func(*AccountActor) (any, error)) (any, error) {
	for {
		a := r.ServerProcess(id, args)
		v, err := a.ask(ctx, fn)
		if errors.Is(err, errActorStopped) {
			continue
		}
		return v, err
	}
}

// callAsync is call for handlers that own their reply delivery.
func (r *AccountRegistry) callAsync(ctx context.Context, id int64, args *domain.NewAccountArgs, h func(*AccountActor, chan<- actorReply)) (any, error) {
	for {
		a := r.ServerProcess(id, args)
		v, err := a.askAsync(ctx, h)
		if errors.Is(err, errActorStopped) {
			continue
		}
		return v, err
	}
}

// transferIn credits a recipient account on behalf of a sender actor.
func (r *AccountRegistry) transferIn(ctx context.Context, id int64, req domain.TransferInRequest) (*ports.OperationReply, error) {
	v, err := r.call(ctx, id, nil, func(a *AccountActor) (any, error) {
		return a.applyTransferIn(req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.OperationReply), nil
}
