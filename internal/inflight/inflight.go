// Package inflight makes concurrent requesters of the same key share a single
// underlying computation.
package inflight

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

type Producer[T any] func(ctx context.Context) (T, error)

type Group[T any] struct {
	group singleflight.Group
}

// StartOrJoin runs the producer for the key unless there's already one in-flight,
// in which case the caller attaches to it and shared is true. The key is forgotten
// as soon as the producer settles, no matter the outcome.
//
// The producer is detached from the caller's cancellation: a caller that gives up
// receives ctx.Err(), but the producer still runs to completion for the benefit
// of the others.
func (group *Group[T]) StartOrJoin(ctx context.Context, key string, producer Producer[T]) (T, bool, error) {
	detachedCtx := context.WithoutCancel(ctx)

	resultCh := group.group.DoChan(key, func() (any, error) {
		return producer(detachedCtx)
	})

	var zero T

	select {
	case result := <-resultCh:
		if result.Err != nil {
			return zero, result.Shared, result.Err
		}

		value, ok := result.Val.(T)
		if !ok {
			return zero, result.Shared, fmt.Errorf("producer for key %q returned %T", key, result.Val)
		}

		return value, result.Shared, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Forget makes the next StartOrJoin for the key start a new computation
// even if the current one hasn't settled yet.
func (group *Group[T]) Forget(key string) {
	group.group.Forget(key)
}
