package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"triaged/pkg/logger"
	"triaged/pkg/models"

	"github.com/cockroachdb/pebble"
)

// Key layout:
//
//	cust:<customer_id>                 customer record
//	ident:<type>:<value>               identifier -> customer_id
//	conv:<conversation_id>             conversation record
//	convactive:<customer_id>           id of the active conversation
//	convlast:<customer_id>             id of the most recent conversation
//	int:<conversation_id>:<ts>-<seq>   interaction, append ordered
//	decision:<interaction_id>          decision record (replay short-circuit)
//	pending:<interaction_id>           handoffs awaiting redelivery

var db *pebble.DB
var dbPath string

// seq reduces key collisions when multiple interactions share the same
// nanosecond timestamp.
var seq uint64

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func notOpened() error {
	return fmt.Errorf("pebble not opened; call store.Open first")
}

func setJSON(key string, v any) error {
	if db == nil {
		return notOpened()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return db.Set([]byte(key), data, pebble.Sync)
}

func getJSON(key string, v any) (bool, error) {
	if db == nil {
		return false, notOpened()
	}
	data, closer, err := db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer closer.Close()
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("corrupt record at %s: %w", key, err)
	}
	return true, nil
}

// prefixIter returns an iterator bounded to keys with the given prefix.
func prefixIter(prefix string) (*pebble.Iterator, error) {
	lb := []byte(prefix)
	ub := append(append([]byte{}, lb...), 0xff)
	return db.NewIter(&pebble.IterOptions{LowerBound: lb, UpperBound: ub})
}

// -- Customers --

// SaveCustomer persists a customer record.
func SaveCustomer(c models.Customer) error {
	return setJSON("cust:"+c.ID, c)
}

// GetCustomer returns the customer by id.
func GetCustomer(id string) (models.Customer, error) {
	var c models.Customer
	ok, err := getJSON("cust:"+id, &c)
	if err != nil {
		return c, err
	}
	if !ok {
		return c, fmt.Errorf("customer %s: %w", id, models.ErrNotFound)
	}
	return c, nil
}

// BindIdentifier registers an identifier for a customer. Binding an
// identifier already held by a different customer is a conflict, never a
// merge.
func BindIdentifier(t models.IdentifierType, value, customerID string) error {
	if db == nil {
		return notOpened()
	}
	key := fmt.Sprintf("ident:%s:%s", t, value)
	var existing string
	ok, err := getJSON(key, &existing)
	if err != nil {
		return err
	}
	if ok && existing != customerID {
		return &models.IdentityConflictError{
			Identifier: models.Identifier{Type: t, Value: value},
			BoundTo:    existing,
			Requested:  customerID,
		}
	}
	return setJSON(key, customerID)
}

// LookupIdentifier resolves an identifier to a customer id.
func LookupIdentifier(t models.IdentifierType, value string) (string, bool, error) {
	var id string
	ok, err := getJSON(fmt.Sprintf("ident:%s:%s", t, value), &id)
	return id, ok, err
}

// -- Conversations --

// SaveConversation persists a conversation record.
func SaveConversation(c models.Conversation) error {
	return setJSON("conv:"+c.ID, c)
}

// GetConversation returns the conversation by id.
func GetConversation(id string) (models.Conversation, error) {
	var c models.Conversation
	ok, err := getJSON("conv:"+id, &c)
	if err != nil {
		return c, err
	}
	if !ok {
		return c, fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	return c, nil
}

// SetActiveConversation points the customer's active-conversation index at
// convID; empty convID clears it.
func SetActiveConversation(customerID, convID string) error {
	if db == nil {
		return notOpened()
	}
	key := []byte("convactive:" + customerID)
	if convID == "" {
		return db.Delete(key, pebble.Sync)
	}
	return setJSON(string(key), convID)
}

// GetActiveConversation returns the id of the customer's active
// conversation, if any.
func GetActiveConversation(customerID string) (string, bool, error) {
	var id string
	ok, err := getJSON("convactive:"+customerID, &id)
	return id, ok, err
}

// SetLastConversation records the customer's most recent conversation for
// the reopen-from-resolved policy lookup.
func SetLastConversation(customerID, convID string) error {
	return setJSON("convlast:"+customerID, convID)
}

// GetLastConversation returns the customer's most recent conversation id.
func GetLastConversation(customerID string) (string, bool, error) {
	var id string
	ok, err := getJSON("convlast:"+customerID, &id)
	return id, ok, err
}

// ListConversations iterates every stored conversation. Used by the
// sweeper and admin stats; the keyspace is prefix-bounded so this does not
// touch interactions.
func ListConversations() ([]models.Conversation, error) {
	if db == nil {
		return nil, notOpened()
	}
	iter, err := prefixIter("conv:")
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Conversation
	for iter.First(); iter.Valid(); iter.Next() {
		var c models.Conversation
		if err := json.Unmarshal(iter.Value(), &c); err != nil {
			logger.Warn("skip_corrupt_conversation", "key", string(iter.Key()))
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// -- Interactions --

// AppendInteraction appends an interaction to its conversation with a
// sortable timestamp key so listing returns insertion order.
func AppendInteraction(it models.Interaction) error {
	if db == nil {
		return notOpened()
	}
	ts := it.TS
	if ts == 0 {
		ts = time.Now().UTC().UnixNano()
	}
	s := atomic.AddUint64(&seq, 1)
	key := fmt.Sprintf("int:%s:%020d-%06d", it.ConversationID, ts, s)
	return setJSON(key, it)
}

// ListInteractions returns a conversation's interactions in insertion
// order. A limit of 0 means all.
func ListInteractions(convID string, limit int) ([]models.Interaction, error) {
	if db == nil {
		return nil, notOpened()
	}
	iter, err := prefixIter("int:" + convID + ":")
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Interaction
	for iter.First(); iter.Valid(); iter.Next() {
		var it models.Interaction
		if err := json.Unmarshal(iter.Value(), &it); err != nil {
			continue
		}
		out = append(out, it)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// -- Decisions --

// SaveDecision persists a new decision record. A record already present for
// the interaction id means the replay check was bypassed somewhere; the
// write is rejected rather than silently overwriting history.
func SaveDecision(rec models.DecisionRecord) error {
	if _, ok, err := GetDecision(rec.Output.InteractionID); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("decision already recorded for %s: %w",
			rec.Output.InteractionID, models.ErrDuplicateInteraction)
	}
	return UpdateDecision(rec)
}

// UpdateDecision writes the decision record unconditionally and maintains
// the pending-handoff index. Used for delivery-status updates.
func UpdateDecision(rec models.DecisionRecord) error {
	if db == nil {
		return notOpened()
	}
	id := rec.Output.InteractionID
	if err := setJSON("decision:"+id, rec); err != nil {
		return err
	}
	pkey := []byte("pending:" + id)
	if rec.Delivery == models.DeliveryPending {
		return db.Set(pkey, []byte("1"), pebble.Sync)
	}
	if err := db.Delete(pkey, pebble.Sync); err != nil {
		return err
	}
	return nil
}

// GetDecision returns the stored decision record for an interaction id.
// The replay path relies on this being checked before any counter mutation.
func GetDecision(interactionID string) (models.DecisionRecord, bool, error) {
	var rec models.DecisionRecord
	ok, err := getJSON("decision:"+interactionID, &rec)
	return rec, ok, err
}

// ListPendingHandoffs returns decision records whose escalation handoff has
// not been delivered yet.
func ListPendingHandoffs() ([]models.DecisionRecord, error) {
	if db == nil {
		return nil, notOpened()
	}
	iter, err := prefixIter("pending:")
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.DecisionRecord
	for iter.First(); iter.Valid(); iter.Next() {
		id := string(bytes.TrimPrefix(iter.Key(), []byte("pending:")))
		rec, ok, err := GetDecision(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Stats is a compact view of store contents for readiness and admin
// endpoints.
type Stats struct {
	Customers     int `json:"customers"`
	Conversations int `json:"conversations"`
	Decisions     int `json:"decisions"`
	Pending       int `json:"pending_handoffs"`
}

// CountStats scans key prefixes and returns entity counts.
func CountStats() (Stats, error) {
	var st Stats
	if db == nil {
		return st, notOpened()
	}
	counts := map[string]*int{
		"cust:":     &st.Customers,
		"conv:":     &st.Conversations,
		"decision:": &st.Decisions,
		"pending:":  &st.Pending,
	}
	for prefix, dst := range counts {
		iter, err := prefixIter(prefix)
		if err != nil {
			return st, err
		}
		for iter.First(); iter.Valid(); iter.Next() {
			*dst++
		}
		if err := iter.Close(); err != nil {
			return st, err
		}
	}
	return st, nil
}
