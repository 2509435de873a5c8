package retrieval

import (
	"context"
	"sync"

	"github.com/cirruslabs/mediacache/internal/cache"
	"github.com/cirruslabs/mediacache/internal/media"
)

// Lease tracks the retrieval of a single consumer. It holds on to the handle
// it's showing until Switch() or Release() is called, at which point the handle
// is revoked if it isn't shared with the cache or other leases.
type Lease struct {
	service *Service
	kind    media.Kind
	ctx     context.Context

	// bumped on every new attempt, results of older attempts are ignored
	generation uint64

	source string
	state  State
	err    error
	done   chan struct{}

	heldSource string
	handle     *cache.Handle

	unsubscribe func()
	released    bool

	mtx sync.Mutex
}

// Acquire starts retrieving the source for a new consumer. An empty source
// results in an idle lease that can be pointed somewhere with Switch().
func (service *Service) Acquire(ctx context.Context, source string, kind media.Kind) *Lease {
	lease := &Lease{
		service: service,
		kind:    kind,
		ctx:     context.WithoutCancel(ctx),
	}

	lease.unsubscribe = service.session.Subscribe(lease.onAuthChange)

	lease.start(ctx, source)

	return lease
}

// Image acquires a lease that only accepts image/* responses.
func (service *Service) Image(ctx context.Context, source string) *Lease {
	return service.Acquire(ctx, source, media.KindImage)
}

func (service *Service) Media(ctx context.Context, source string, kind media.Kind) *Lease {
	return service.Acquire(ctx, source, kind)
}

func (lease *Lease) State() State {
	lease.mtx.Lock()
	defer lease.mtx.Unlock()

	return lease.state
}

func (lease *Lease) Source() string {
	lease.mtx.Lock()
	defer lease.mtx.Unlock()

	return lease.source
}

// Handle returns the handle the lease currently holds, if any.
func (lease *Lease) Handle() *cache.Handle {
	lease.mtx.Lock()
	defer lease.mtx.Unlock()

	return lease.handle
}

// Wait blocks until the current attempt settles and returns the resulting
// state along with the error that caused the failure, if any.
func (lease *Lease) Wait(ctx context.Context) (State, error) {
	for {
		lease.mtx.Lock()
		done := lease.done
		lease.mtx.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return lease.State(), ctx.Err()
		}

		lease.mtx.Lock()

		if lease.released {
			state := lease.state
			lease.mtx.Unlock()

			return state, ErrReleased
		}

		// A newer attempt was started in the meantime
		if lease.done != done {
			lease.mtx.Unlock()

			continue
		}

		state, err := lease.state, lease.err
		lease.mtx.Unlock()

		return state, err
	}
}

// Switch points the lease to a new source, letting go of the handle it held.
func (lease *Lease) Switch(ctx context.Context, source string) {
	lease.start(ctx, source)
}

// Reload retrieves the current source again.
func (lease *Lease) Reload(ctx context.Context) {
	lease.start(ctx, lease.Source())
}

// Release lets go of the held handle and stops listening for results.
// It's safe to call it more than once.
func (lease *Lease) Release() {
	lease.mtx.Lock()

	if lease.released {
		lease.mtx.Unlock()

		return
	}

	lease.released = true
	lease.generation++
	lease.state = State{Phase: PhaseIdle}

	heldSource, handle := lease.heldSource, lease.handle
	lease.heldSource, lease.handle = "", nil
	unsubscribe := lease.unsubscribe
	lease.mtx.Unlock()

	unsubscribe()

	lease.service.release(heldSource, handle)
}

func (lease *Lease) start(ctx context.Context, source string) {
	lease.mtx.Lock()

	if lease.released {
		lease.mtx.Unlock()

		return
	}

	lease.generation++
	generation := lease.generation
	done := make(chan struct{})

	lease.source = source
	lease.done = done
	lease.err = nil

	heldSource, handle := lease.heldSource, lease.handle
	lease.heldSource, lease.handle = "", nil

	if source == "" {
		lease.state = State{Phase: PhaseIdle}
		close(done)
		lease.mtx.Unlock()

		lease.service.release(heldSource, handle)

		return
	}

	lease.state = loadingState()
	lease.mtx.Unlock()

	lease.service.release(heldSource, handle)

	// Cached and pass-through URLs settle without waiting
	if result, ok := lease.service.peek(source, lease.kind); ok {
		if result.Handle == nil || result.Handle.Retain() {
			lease.settle(generation, source, result, nil, done)

			return
		}
	}

	go func() {
		result, err := lease.service.hold(ctx, source, lease.kind)

		lease.settle(generation, source, result, err, done)
	}()
}

func (lease *Lease) settle(generation uint64, source string, result *Result, err error, done chan struct{}) {
	defer close(done)

	lease.mtx.Lock()

	if generation != lease.generation {
		lease.mtx.Unlock()

		// Nobody's interested in this result anymore
		if result != nil {
			lease.service.release(source, result.Handle)
		}

		return
	}

	if err != nil {
		lease.state = failedState(err)
		lease.err = err
	} else {
		lease.state = successState(result)
		lease.heldSource = source
		lease.handle = result.Handle
	}

	lease.mtx.Unlock()
}

func (lease *Lease) onAuthChange(_ bool) {
	source := lease.Source()

	if source == "" || !lease.service.classifier.Classify(source).AuthRequired() {
		return
	}

	lease.Reload(lease.ctx)
}
