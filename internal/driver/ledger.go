package driver

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/droverproject/drover/internal/common/util"
)

// Number of recently acknowledged keys remembered for duplicate suppression.
const ackHistorySize = 4096

// AckKey identifies one status update exactly: the task (or operation) id
// plus the update's uuid. Acknowledgement is by exact identity, never by
// task alone.
type AckKey struct {
	ID   string
	UUID string
}

// PendingAck is one in-flight status update that still owes an
// acknowledgement. On the scheduler side these are updates delivered to the
// framework under explicit-ack mode; on the executor side they are updates
// sent to the agent and retried until acknowledged.
type PendingAck struct {
	Key        AckKey
	Payload    interface{}
	SentAt     time.Time
	RetryCount int
}

// AckLedger tracks status updates requiring acknowledgement. The ledger
// never evicts pending entries on timeout: redelivery is the transport's
// concern. It is resilient to duplicate delivery in both directions: a
// duplicate Record of a pending or recently acknowledged key is rejected,
// and Acknowledge of an absent key is an idempotent no-op.
type AckLedger struct {
	mu      sync.Mutex
	pending map[AckKey]*PendingAck
	acked   *lru.Cache
	clock   util.Clock
}

func NewAckLedger(clock util.Clock) *AckLedger {
	// lru.New only fails for a non-positive size.
	acked, err := lru.New(ackHistorySize)
	if err != nil {
		panic(err)
	}
	return &AckLedger{
		pending: map[AckKey]*PendingAck{},
		acked:   acked,
		clock:   clock,
	}
}

// Record registers an update awaiting acknowledgement. It reports false when
// the update is a duplicate delivery (already pending, or acknowledged
// recently enough to still be in the history), in which case the caller
// should suppress it.
func (l *AckLedger) Record(key AckKey, payload interface{}) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, pending := l.pending[key]; pending {
		return false
	}
	if l.acked.Contains(key) {
		return false
	}
	l.pending[key] = &PendingAck{Key: key, Payload: payload, SentAt: l.clock.Now()}
	return true
}

// Acknowledge removes the entry with exactly this key. Acknowledging an
// entry that is absent (never recorded, or already acknowledged) reports
// false and changes nothing.
func (l *AckLedger) Acknowledge(key AckKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.pending[key]; !ok {
		return false
	}
	delete(l.pending, key)
	l.acked.Add(key, struct{}{})
	return true
}

// Has reports whether an entry with this key is still pending.
func (l *AckLedger) Has(key AckKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[key]
	return ok
}

// Pending snapshots the entries still owing an acknowledgement.
func (l *AckLedger) Pending() []*PendingAck {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]*PendingAck, 0, len(l.pending))
	for _, entry := range l.pending {
		copied := *entry
		entries = append(entries, &copied)
	}
	return entries
}

// MarkRetried records one more delivery attempt for a pending entry.
func (l *AckLedger) MarkRetried(key AckKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.pending[key]; ok {
		entry.RetryCount++
		entry.SentAt = l.clock.Now()
	}
}

func (l *AckLedger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}
