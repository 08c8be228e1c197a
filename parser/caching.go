// Resolve file ids to full paths. Lookups go to the filesystem by
// id, which is expensive, so results are cached for the lifetime of
// the open volume. Parent directories in particular are looked up
// over and over.

package parser

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Velocidex/ordereddict"
)

var (
	ErrNoObjectStore = errors.New("No object store available")
)

// Object is a filesystem object opened by id.
type Object interface {
	Name() (string, error)
	AllocationSize() (int64, error)
	Close() error
}

// ObjectStore opens objects by their file reference number.
type ObjectStore interface {
	OpenByID(id uint64) (Object, error)
}

type ResolveFlags int

const (
	ResolvePathOnly ResolveFlags = 0
	ResolveSize     ResolveFlags = 1
	ResolveCache    ResolveFlags = 2
)

type resolverEntry struct {
	path     string
	size     int64
	has_size bool
}

// PathResolver maps file ids to paths and sizes. Cached entries are
// never invalidated while the volume is open: a file renamed or
// deleted during a long scan keeps resolving to its old path.
type PathResolver struct {
	mu sync.Mutex

	store ObjectStore
	cache map[uint64]*resolverEntry

	hits   int
	misses int
	errors int
}

func NewPathResolver(store ObjectStore) *PathResolver {
	return &PathResolver{
		store: store,
		cache: make(map[uint64]*resolverEntry),
	}
}

// Reset drops all cached entries. Called when a volume is opened.
func (self *PathResolver) Reset() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.cache = make(map[uint64]*resolverEntry)
	self.hits = 0
	self.misses = 0
	self.errors = 0
}

func (self *PathResolver) Len() int {
	self.mu.Lock()
	defer self.mu.Unlock()

	return len(self.cache)
}

func (self *PathResolver) Stats() *ordereddict.Dict {
	self.mu.Lock()
	defer self.mu.Unlock()

	return ordereddict.NewDict().
		Set("Hits", self.hits).
		Set("Misses", self.misses).
		Set("Errors", self.errors).
		Set("Entries", len(self.cache))
}

// ResolveDir resolves a directory path. Directory lookups are always
// cached.
func (self *PathResolver) ResolveDir(id uint64) (string, error) {
	path, _, err := self.Resolve(id, ResolveCache)
	return path, err
}

// Resolve returns the path of the object and, if ResolveSize is
// set, its allocated size. Only lookups with ResolveCache are
// stored.
func (self *PathResolver) Resolve(id uint64, flags ResolveFlags) (string, int64, error) {
	want_size := flags&ResolveSize != 0

	self.mu.Lock()
	defer self.mu.Unlock()

	if flags&ResolveCache != 0 {
		entry, pres := self.cache[id]
		// A cached entry without a size can not serve a sized
		// lookup.
		if pres && (entry.has_size || !want_size) {
			self.hits++
			return entry.path, entry.size, nil
		}
	}

	self.misses++
	entry, err := self.lookup(id, want_size)
	if err != nil {
		self.errors++
		STATS.Inc_ResolverError()
		return "", 0, err
	}

	if flags&ResolveCache != 0 {
		self.cache[id] = entry
	}

	return entry.path, entry.size, nil
}

// Already holding the lock.
func (self *PathResolver) lookup(id uint64, want_size bool) (*resolverEntry, error) {
	if self.store == nil {
		return nil, ErrNoObjectStore
	}

	STATS.Inc_ResolverLookup()

	obj, err := self.store.OpenByID(id)
	if err != nil {
		return nil, fmt.Errorf("OpenByID %#x: %w", id, err)
	}
	defer obj.Close()

	name, err := obj.Name()
	if err != nil {
		return nil, fmt.Errorf("Name of %#x: %w", id, err)
	}

	result := &resolverEntry{path: name}
	if want_size {
		// Size is best effort: the path is still good without it.
		size, err := obj.AllocationSize()
		if err == nil {
			result.size = size
			result.has_size = true
		}
	}

	return result, nil
}
