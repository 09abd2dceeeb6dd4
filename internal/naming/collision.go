package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver hands out free filenames inside a directory. Claims for
// the same directory are serialized, so the existence check and the commit
// callback (usually a move) cannot interleave with another claim in this
// process. Other processes writing to the directory are not coordinated.
// All methods are goroutine-safe.
type CollisionResolver struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex // cleaned dir path → lock
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{locks: make(map[string]*sync.Mutex)}
}

func (cr *CollisionResolver) dirLock(dir string) *sync.Mutex {
	dir = filepath.Clean(dir)
	cr.mu.Lock()
	defer cr.mu.Unlock()
	l, ok := cr.locks[dir]
	if !ok {
		l = &sync.Mutex{}
		cr.locks[dir] = l
	}
	return l
}

// Claim resolves a free variant of name inside dir and calls commit with the
// full target path while holding the directory lock. It returns the target
// path, or commit's error unchanged.
func (cr *CollisionResolver) Claim(dir, name string, commit func(target string) error) (string, error) {
	l := cr.dirLock(dir)
	l.Lock()
	defer l.Unlock()

	target := filepath.Join(dir, UniqueName(dir, name))
	if err := commit(target); err != nil {
		return "", err
	}
	return target, nil
}

// UniqueName returns name when dir/name is free. Otherwise it tries
// name_1.ext, name_2.ext, … (counter inserted before the last dot, or
// appended when there is none) and returns the first free candidate.
func UniqueName(dir, name string) string {
	if !pathTaken(filepath.Join(dir, name)) {
		return name
	}
	for counter := 1; ; counter++ {
		candidate := CounterName(name, counter)
		if !pathTaken(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
}

// CounterName inserts "_n" before the final extension of name.
//
//	CounterName("out.mp4", 2)  → "out_2.mp4"
//	CounterName("README", 1)   → "README_1"
func CounterName(name string, n int) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return fmt.Sprintf("%s_%d%s", name[:i], n, name[i:])
	}
	return fmt.Sprintf("%s_%d", name, n)
}

// pathTaken treats anything other than a clean "does not exist" as taken,
// so an unreadable entry is never overwritten.
func pathTaken(path string) bool {
	_, err := os.Lstat(path)
	if err == nil {
		return true
	}
	return !errors.Is(err, fs.ErrNotExist)
}
