package cache

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"
)

const (
	urlScheme = "blob:"

	revokedRefs = -1 << 32
)

type Handle struct {
	id          string
	contentType string

	content []byte
	mtx     sync.RWMutex

	refs    atomic.Int64
	revoked atomic.Bool
}

func (handle *Handle) ID() string {
	return handle.id
}

// URL returns an opaque reference to the handle, similar to what
// URL.createObjectURL() returns in a browser.
func (handle *Handle) URL() string {
	return urlScheme + handle.id
}

func (handle *Handle) ContentType() string {
	return handle.contentType
}

func (handle *Handle) Size() int {
	handle.mtx.RLock()
	defer handle.mtx.RUnlock()

	return len(handle.content)
}

// Content returns the handle's buffer, which is shared with every
// other holder and must not be modified.
func (handle *Handle) Content() ([]byte, error) {
	handle.mtx.RLock()
	defer handle.mtx.RUnlock()

	if handle.revoked.Load() {
		return nil, ErrRevoked
	}

	return handle.content, nil
}

func (handle *Handle) Open() (io.ReadSeeker, error) {
	content, err := handle.Content()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(content), nil
}

func (handle *Handle) Revoked() bool {
	return handle.revoked.Load()
}

// Retain registers one more holder of the handle. It fails once
// the handle has been claimed for revocation.
func (handle *Handle) Retain() bool {
	for {
		refs := handle.refs.Load()
		if refs < 0 {
			return false
		}

		if handle.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

// Release drops one holder and returns the number of holders left.
func (handle *Handle) Release() int64 {
	return handle.refs.Add(-1)
}

// Refs returns the number of holders, or a negative
// number if the handle was revoked.
func (handle *Handle) Refs() int64 {
	return handle.refs.Load()
}

// claim makes the handle unretainable, provided nobody holds it.
func (handle *Handle) claim() bool {
	return handle.refs.CompareAndSwap(0, revokedRefs)
}

func (handle *Handle) revoke() bool {
	if !handle.revoked.CompareAndSwap(false, true) {
		return false
	}

	handle.refs.Store(revokedRefs)

	handle.mtx.Lock()
	handle.content = nil
	handle.mtx.Unlock()

	return true
}
