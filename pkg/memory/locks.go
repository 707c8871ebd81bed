package memory

import (
	"hash/fnv"
	"sync"
)

// Conversation state is written from more than one goroutine: lane workers
// during processing, the lifecycle endpoints, and the idle sweep. Lanes
// serialize interactions per identifier, but resolve/reopen and the sweeper
// act on conversations directly, so every read-modify-write cycle on a
// customer's state must hold that customer's stripe lock.

const lockStripes = 64

var custLocks [lockStripes]sync.Mutex

// WithCustomer runs fn holding the customer's stripe lock. Callers re-read
// the conversation inside fn; state loaded before the lock may be stale.
func WithCustomer(customerID string, fn func() error) error {
	h := fnv.New32a()
	h.Write([]byte(customerID))
	mu := &custLocks[h.Sum32()%lockStripes]
	mu.Lock()
	defer mu.Unlock()
	return fn()
}
