package noop

import (
	cachepkg "github.com/cirruslabs/mediacache/internal/cache"
)

// NoOp disables caching: every retrieval produces a handle that
// is owned by its holders and is revoked once they're all gone.
type NoOp struct{}

func New() *NoOp {
	return &NoOp{}
}

func (noop *NoOp) Get(_ string) (*cachepkg.Handle, bool) {
	return nil, false
}

func (noop *NoOp) Put(_ string, _ *cachepkg.Handle) {
	// do nothing
}

func (noop *NoOp) Clear() []*cachepkg.Handle {
	return nil
}

func (noop *NoOp) Len() int {
	return 0
}
