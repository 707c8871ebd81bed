package utils

import (
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq uint64

// GenCustomerID generates a unique customer ID using the current UTC
// nanosecond timestamp and an atomic sequence number.
// The format is "cust-<timestamp>-<seq>".
func GenCustomerID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("cust-%d-%d", n, s)
}

// GenConversationID generates a unique conversation ID.
// The format is "conv-<timestamp>-<seq>".
func GenConversationID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("conv-%d-%d", n, s)
}

// GenInteractionID generates an interaction ID for ingestion paths that did
// not supply one. The format is "int-<timestamp>-<seq>".
func GenInteractionID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("int-%d-%d", n, s)
}
