package gemini

import (
	"errors"
	"strings"
	"sync"
)

// ErrNoCredentials is returned when the keyring would be empty.
var ErrNoCredentials = errors.New("no Gemini API credentials configured")

// Keyring hands out API keys round-robin. The rotation counter lives
// on the value so independent clients rotate independently; it is
// guarded for concurrent request handlers.
type Keyring struct {
	mu   sync.Mutex
	keys []string
	next int
}

// NewKeyring builds a keyring from the given keys, dropping blanks.
// Fails fast with ErrNoCredentials when nothing usable remains.
func NewKeyring(keys []string) (*Keyring, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoCredentials
	}
	return &Keyring{keys: cleaned}, nil
}

// Next returns the next key in rotation order.
func (k *Keyring) Next() string {
	k.mu.Lock()
	defer k.mu.Unlock()

	key := k.keys[k.next]
	k.next = (k.next + 1) % len(k.keys)
	return key
}

// Size returns the number of keys in the rotation pool.
func (k *Keyring) Size() int {
	return len(k.keys)
}
