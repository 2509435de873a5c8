package memory

import (
	cachepkg "github.com/cirruslabs/mediacache/internal/cache"
	"github.com/puzpuzpuz/xsync/v3"
)

// Memory keeps handles for the lifetime of the process, there's no eviction.
type Memory struct {
	entries *xsync.MapOf[string, *cachepkg.Handle]
}

func New() *Memory {
	return &Memory{
		entries: xsync.NewMapOf[string, *cachepkg.Handle](),
	}
}

func (memory *Memory) Get(url string) (*cachepkg.Handle, bool) {
	return memory.entries.Load(url)
}

func (memory *Memory) Put(url string, handle *cachepkg.Handle) {
	memory.entries.Store(url, handle)
}

func (memory *Memory) Clear() []*cachepkg.Handle {
	var dropped []*cachepkg.Handle

	memory.entries.Range(func(url string, _ *cachepkg.Handle) bool {
		if handle, ok := memory.entries.LoadAndDelete(url); ok {
			dropped = append(dropped, handle)
		}

		return true
	})

	return dropped
}

func (memory *Memory) Len() int {
	return memory.entries.Size()
}
