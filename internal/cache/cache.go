package cache

import (
	"errors"
)

var (
	ErrNotFound = errors.New("blob handle not found")
	ErrRevoked  = errors.New("blob handle was revoked")
)

// Cache maps a source URL to the canonical handle created for it.
//
// A handle returned by Get is owned by the cache: consumers may render it,
// but must never revoke it while it's still the cached one.
type Cache interface {
	Get(url string) (*Handle, bool)
	Put(url string, handle *Handle)
	Clear() []*Handle
	Len() int
}
