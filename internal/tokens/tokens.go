// Package tokens derives and persists per-recipient unsubscribe tokens.
//
// A token is the first 32 hex characters of sha256("<email>:<newsletter>").
// The store maps tokens to the recipient and issue they were minted for; it
// is merged across runs and never pruned.
package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/alnah/go-newsletter/internal/fileutil"
)

// TimeLayout formats Entry.SentAt.
const TimeLayout = "2006-01-02 15:04:05"

// tokenLength is the number of hex characters kept from the digest.
const tokenLength = 32

// ErrParse indicates the token file is not a JSON object of entries.
var ErrParse = errors.New("failed to parse token store")

// Entry records who a token was issued to.
type Entry struct {
	Email      string `json:"email"`
	Newsletter string `json:"newsletter"`
	SentAt     string `json:"sent_at"`
}

// NewEntry builds an entry stamped with t in local time.
func NewEntry(email, newsletter string, t time.Time) Entry {
	return Entry{Email: email, Newsletter: newsletter, SentAt: t.Format(TimeLayout)}
}

// Token returns the unsubscribe token for email and newsletter id.
func Token(email, newsletter string) string {
	sum := sha256.Sum256([]byte(email + ":" + newsletter))
	return hex.EncodeToString(sum[:])[:tokenLength]
}

// Store maps tokens to entries.
type Store map[string]Entry

// Load reads a store from path. A missing file yields an empty store.
func Load(path string) (Store, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-provided path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading token store: %w", err)
	}

	s := Store{}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return s, nil
}

// Record adds or replaces the entry for token.
func (s Store) Record(token string, e Entry) {
	s[token] = e
}

// Save rewrites path with the full store, replacing the file atomically.
func (s Store) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token store: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing token store: %w", err)
	}
	return nil
}

// ForNewsletter returns the tokens minted for one issue, sorted.
func (s Store) ForNewsletter(newsletter string) []string {
	var out []string
	for token, e := range s {
		if e.Newsletter == newsletter {
			out = append(out, token)
		}
	}
	sort.Strings(out)
	return out
}
