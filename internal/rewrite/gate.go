package rewrite

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// gate admits requests to the engine. slots bounds concurrent engine calls;
// queue, when non-nil, bounds waiting plus in-flight requests.
type gate struct {
	sem     *semaphore.Weighted
	queue   chan struct{}
	maxWait time.Duration
}

func newGate(slots, queueDepth int, maxWait time.Duration) *gate {
	if slots < 1 {
		slots = 1
	}
	g := &gate{sem: semaphore.NewWeighted(int64(slots)), maxWait: maxWait}
	if queueDepth > 0 {
		g.queue = make(chan struct{}, queueDepth)
	}
	return g
}

// acquire reserves a queue slot (if bounded) and then an engine slot.
// Returns a release func to be deferred.
func (g *gate) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.queue != nil {
		select {
		case g.queue <- struct{}{}:
		default:
			return nil, &BusyError{Reason: "queue full"}
		}
	}
	waitCtx := ctx
	if g.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.maxWait)
		defer cancel()
	}
	if err := g.sem.Acquire(waitCtx, 1); err != nil {
		g.leaveQueue()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &BusyError{Reason: "wait timeout"}
	}
	return func() {
		g.sem.Release(1)
		g.leaveQueue()
	}, nil
}

func (g *gate) leaveQueue() {
	if g.queue != nil {
		<-g.queue
	}
}
