// Package opengraph fetches link-preview metadata and caches it on disk.
//
// Cache entries are keyed by the MD5 of the URL. The key is a stable,
// non-cryptographic 128-bit hash: collisions between distinct URLs are
// possible in theory and ignored in practice. Entries never expire; use
// Fetcher refresh mode to overwrite them.
package opengraph

import (
	"crypto/md5" // #nosec G501 -- cache key, not a security boundary
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-newsletter/internal/fileutil"
)

// Record is the cached metadata for one URL.
type Record struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	SiteName    string `json:"site_name"`
}

// Store persists records by URL.
type Store interface {
	// Get returns ok=false on a miss. Unreadable entries are misses.
	Get(url string) (rec Record, ok bool, err error)
	Put(url string, rec Record) error
}

// Key returns the cache key for url.
func Key(url string) string {
	sum := md5.Sum([]byte(url)) // #nosec G401 -- cache key only
	return hex.EncodeToString(sum[:])
}

// FileStore keeps one JSON file per URL in Dir.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the file holding the record for url.
func (s *FileStore) Path(url string) string {
	return filepath.Join(s.Dir, Key(url)+".json")
}

// Get implements Store.
func (s *FileStore) Get(url string) (Record, bool, error) {
	data, err := os.ReadFile(s.Path(url)) // #nosec G304 -- path derived from hash
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("reading cache entry: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// Put implements Store. The entry is replaced atomically.
func (s *FileStore) Put(url string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.Path(url), data); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
