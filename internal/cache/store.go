package cache

import (
	"strings"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// Store is the registry of live handles.
type Store struct {
	handles *xsync.MapOf[string, *Handle]
}

func NewStore() *Store {
	return &Store{
		handles: xsync.NewMapOf[string, *Handle](),
	}
}

func (store *Store) Create(content []byte, contentType string) *Handle {
	handle := &Handle{
		id:          uuid.NewString(),
		contentType: contentType,
		content:     content,
	}

	store.handles.Store(handle.id, handle)

	return handle
}

// Lookup accepts either a bare handle ID or a handle URL.
func (store *Store) Lookup(id string) (*Handle, error) {
	handle, ok := store.handles.Load(strings.TrimPrefix(id, urlScheme))
	if !ok || handle.Revoked() {
		return nil, ErrNotFound
	}

	return handle, nil
}

// Revoke frees the handle's buffer. Only the first call for
// a given handle has an effect and returns true.
func (store *Store) Revoke(handle *Handle) bool {
	if handle == nil {
		return false
	}

	if !handle.revoke() {
		return false
	}

	store.handles.Delete(handle.id)

	return true
}

// RevokeUnheld revokes the handle unless someone holds it. Deciding that
// nobody holds it and preventing new holders happen atomically, so a handle
// revoked this way is never returned by a successful Retain().
func (store *Store) RevokeUnheld(handle *Handle) bool {
	if handle == nil || !handle.claim() {
		return false
	}

	return store.Revoke(handle)
}

func (store *Store) Len() int {
	return store.handles.Size()
}
