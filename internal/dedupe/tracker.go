// Package dedupe implements the optional processed-item tracker
// described in SPEC_FULL §3: a probabilistic instrument used by
// WorkerThread to flag apparent reprocessing (invariant 1) without
// itself gating correctness. False positives are possible and expected;
// it never drops work, only logs a warning.
package dedupe

import (
	"sync"

	"github.com/OneOfOne/xxhash"
	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// Tracker wraps a cuckoo filter keyed on xxhash64(item) behind a mutex,
// since the underlying filter is not safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	filter *cuckoo.Filter
}

// New returns a Tracker sized for approximately capacity distinct items.
func New(capacity uint) *Tracker {
	return &Tracker{filter: cuckoo.NewFilter(capacity)}
}

// SeenBefore reports whether an item hashing to the same key has been
// observed already, then records item as seen. A true result is a
// probabilistic signal, not proof: callers should log, not reject.
func (t *Tracker) SeenBefore(item []byte) bool {
	key := keyOf(item)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.filter.Lookup(key) {
		return true
	}
	t.filter.InsertUnique(key)
	return false
}

func keyOf(item []byte) []byte {
	h := xxhash.Checksum64(item)
	key := make([]byte, 8)
	for i := 0; i < 8; i++ {
		key[i] = byte(h >> (8 * i))
	}
	return key
}
