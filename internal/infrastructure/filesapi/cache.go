package filesapi

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"jan-server/services/assistant-api/internal/domain/retrieval"
)

type cachedTypes struct {
	types     []retrieval.FileType
	expiresAt time.Time
}

// FileTypeCache keeps the supported file types per endpoint and header set
// for a limited time.
type FileTypeCache struct {
	entries *lru.Cache
	ttl     time.Duration
	now     func() time.Time
}

func NewFileTypeCache(size int, ttl time.Duration) (*FileTypeCache, error) {
	if size <= 0 {
		size = 64
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &FileTypeCache{entries: entries, ttl: ttl, now: time.Now}, nil
}

// cacheKey hashes the headers so secrets are not kept as map keys.
func cacheKey(endpoint string, headers map[string]string) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(headers[name]))
		h.Write([]byte{0})
	}
	return endpoint + "#" + hex.EncodeToString(h.Sum(nil))
}

func (c *FileTypeCache) Get(endpoint string, headers map[string]string) ([]retrieval.FileType, bool) {
	key := cacheKey(endpoint, headers)
	value, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	entry := value.(cachedTypes)
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.types, true
}

func (c *FileTypeCache) Add(endpoint string, headers map[string]string, types []retrieval.FileType) {
	if c.ttl <= 0 {
		return
	}
	c.entries.Add(cacheKey(endpoint, headers), cachedTypes{types: types, expiresAt: c.now().Add(c.ttl)})
}

// Purge drops the cached types of one endpoint and header set.
func (c *FileTypeCache) Purge(endpoint string, headers map[string]string) {
	c.entries.Remove(cacheKey(endpoint, headers))
}
