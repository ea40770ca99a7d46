package mapbuffer

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const defaultDirCacheSize = 256

// dirCache remembers segment directories already known to exist.
type dirCache struct {
	known *lru.Cache[string, struct{}]
}

func newDirCache(size int) *dirCache {
	if size <= 0 {
		size = defaultDirCacheSize
	}
	known, err := lru.New[string, struct{}](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &dirCache{known: known}
}

func (d *dirCache) ensure(dir string) error {
	if d.known.Contains(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}
	d.known.Add(dir, struct{}{})
	return nil
}

func (d *dirCache) forget(dir string) {
	d.known.Remove(dir)
}
